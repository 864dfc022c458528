// Package migration creates the relational schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clientdocs/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step; its presence means the schema is complete.
const sentinelTable = "public.notifications"

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY,
  name          TEXT        NOT NULL,
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_clients",
		SQL: `CREATE TABLE IF NOT EXISTS clients (
  id         UUID        PRIMARY KEY,
  name       TEXT        NOT NULL,
  email      TEXT        NOT NULL DEFAULT '',
  company    TEXT        NOT NULL DEFAULT '',
  created_by UUID        NOT NULL REFERENCES users (id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY,
  title         TEXT        NOT NULL,
  description   TEXT        NOT NULL DEFAULT '',
  category      TEXT        NOT NULL CHECK (category IN ('Proposal', 'Invoice', 'Report', 'Contract')),
  access_level  TEXT        NOT NULL DEFAULT 'private' CHECK (access_level IN ('private', 'shared', 'public')),
  client_id     UUID        NOT NULL,
  created_by    UUID        NOT NULL,
  original_name TEXT        NOT NULL,
  storage_key   TEXT        NOT NULL UNIQUE,
  file_type     TEXT        NOT NULL,
  file_size     BIGINT      NOT NULL CHECK (file_size >= 0),
  upload_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  version       BIGINT      NOT NULL DEFAULT 1
);`,
	},
	{
		Name: "create_index_documents_created_by",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_by ON documents (created_by);`,
	},
	{
		Name: "create_index_documents_client_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_client_id ON documents (client_id);`,
	},
	{
		Name: "create_index_documents_access_level",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_access_level ON documents (access_level);`,
	},
	{
		Name: "create_index_documents_upload_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents (upload_date DESC, id DESC);`,
	},
	{
		Name: "create_table_document_shares",
		SQL: `CREATE TABLE IF NOT EXISTS document_shares (
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  user_id     UUID        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (document_id, user_id)
);`,
	},
	{
		Name: "create_index_document_shares_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_shares_user_id ON document_shares (user_id);`,
	},
	{
		// document_id has no foreign key: a notification outlives its document and
		// keeps the dangling reference.
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id           UUID        PRIMARY KEY,
  user_id      UUID        NOT NULL,
  type         TEXT        NOT NULL,
  title        TEXT        NOT NULL,
  message      TEXT        NOT NULL,
  document_id  UUID,
  from_user_id UUID        NOT NULL,
  is_read      BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_notifications_user_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC);`,
	},
	{
		Name: "create_index_notifications_unread",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id) WHERE is_read = FALSE;`,
	},
}

// EnsureMigrated checks for the sentinel table and runs every step when it is missing.
// Steps are idempotent, so a run interrupted halfway is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	host := zap.String("db_host", dbHost)

	logging.Event(log, "database", "db_migration_check", "starting", host)

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		logging.Event(log, "database", "db_migration_failed", "error", host,
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logging.Event(log, "database", "db_migration_skip", "success", host,
			zap.String("reason", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	logging.Event(log, "database", "db_migration_start", "in_progress", host, zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logging.Event(log, "database", "db_migration_failed", "error", host,
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logging.Event(log, "database", "db_migration_step", "success", host,
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	logging.Event(log, "database", "db_migration_success", "success", host,
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
