package model

import "encoding/json"

// Ref points at another record by ID. Value is set only after the reference has been
// resolved; until then the reference renders as {"id": ...}. An empty ID renders as null.
type Ref[T any] struct {
	ID    string
	Value *T
}

// RefTo returns an unresolved reference.
func RefTo[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

// Resolved returns a reference carrying its resolved value.
func Resolved[T any](id string, v T) Ref[T] {
	return Ref[T]{ID: id, Value: &v}
}

// IsResolved reports whether the referenced value has been loaded.
func (r Ref[T]) IsResolved() bool {
	return r.Value != nil
}

// Resolve attaches v to the reference.
func (r *Ref[T]) Resolve(v T) {
	r.Value = &v
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: r.ID})
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var id string
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
	}
	r.ID = id
	r.Value = nil
	if len(fields) > 1 {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		r.Value = &v
	}
	return nil
}
