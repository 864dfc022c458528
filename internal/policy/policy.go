// Package policy decides what a principal may do with a document. Everything here is
// pure: no I/O, no clock, no shared state.
package policy

import "clientdocs/internal/model"

// Operation is an action a principal attempts on a document.
type Operation string

const (
	OpRead     Operation = "read"
	OpDownload Operation = "download"
	OpWrite    Operation = "write"
	OpDelete   Operation = "delete"
	OpShare    Operation = "share"
)

// Decision is the outcome of Evaluate. Reason is set when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Evaluate decides whether principalID may perform op on doc.
//
// Read and download follow ReadScope. Write, delete and share belong to the owner
// alone; shared or public access never grants them.
func Evaluate(doc *model.Document, principalID string, op Operation) Decision {
	if doc == nil || principalID == "" {
		return deny("not authorized to access this document")
	}
	switch op {
	case OpRead, OpDownload:
		if ReadScope(principalID).Matches(doc) {
			return allow()
		}
		return deny("not authorized to access this document")
	case OpWrite, OpDelete, OpShare:
		if doc.OwnerID() == principalID {
			return allow()
		}
		return deny("not authorized to " + verb(op) + " this document")
	default:
		return deny("unsupported operation")
	}
}

func verb(op Operation) string {
	if op == OpWrite {
		return "update"
	}
	return string(op)
}
