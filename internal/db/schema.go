package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'Viewer'
                  CHECK (role IN ('Admin', 'Asset Manager', 'Operations Manager', 'Editor', 'Viewer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rigs (
    id         INTEGER PRIMARY KEY,
    rig_id     TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS companies (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assets (
    id         INTEGER PRIMARY KEY,
    asset_id   TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    location   TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'Active',
    rig_id     INTEGER REFERENCES rigs(id),
    company_id INTEGER REFERENCES companies(id),
    value_usd  NUMERIC,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS asset_history (
    id         INTEGER PRIMARY KEY,
    asset_id   INTEGER NOT NULL REFERENCES assets(id),
    action     TEXT NOT NULL,
    changed_by INTEGER REFERENCES users(id),
    notes      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transfers (
    id               INTEGER PRIMARY KEY,
    transfer_id      TEXT NOT NULL UNIQUE,
    asset_id         INTEGER NOT NULL REFERENCES assets(id),
    current_location TEXT NOT NULL DEFAULT '',
    destination      TEXT NOT NULL,
    dest_rig_id      INTEGER REFERENCES rigs(id),
    dest_company_id  INTEGER REFERENCES companies(id),
    priority         TEXT NOT NULL CHECK (priority IN ('Critical', 'High', 'Normal', 'Low')),
    transfer_type    TEXT NOT NULL DEFAULT 'Field to Field',
    reason           TEXT NOT NULL,
    instructions     TEXT NOT NULL DEFAULT '',
    request_date     DATE NOT NULL,
    required_date    DATE,
    status           TEXT NOT NULL DEFAULT 'Pending'
                     CHECK (status IN ('Pending', 'Ops Approved', 'Rejected', 'On Hold', 'Completed')),
    requested_by     INTEGER REFERENCES users(id),
    ops_approved_by  INTEGER REFERENCES users(id),
    ops_action       TEXT CHECK (ops_action IN ('approve', 'reject', 'hold')),
    ops_date         DATETIME,
    ops_comment      TEXT,
    mgr_approved_by  INTEGER REFERENCES users(id),
    mgr_action       TEXT CHECK (mgr_action IN ('approve', 'reject', 'hold')),
    mgr_date         DATETIME,
    mgr_comment      TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);

CREATE TABLE IF NOT EXISTS notifications (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER REFERENCES users(id),
    type        TEXT NOT NULL DEFAULT 'info',
    icon        TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    entity_type TEXT NOT NULL DEFAULT '',
    entity_id   INTEGER,
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);
`

// postgresSchema mirrors sqliteSchema with Postgres column types.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'Viewer'
                  CHECK (role IN ('Admin', 'Asset Manager', 'Operations Manager', 'Editor', 'Viewer')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at    TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rigs (
    id         BIGSERIAL PRIMARY KEY,
    rig_id     TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS companies (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS assets (
    id         BIGSERIAL PRIMARY KEY,
    asset_id   TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    location   TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'Active',
    rig_id     BIGINT REFERENCES rigs(id),
    company_id BIGINT REFERENCES companies(id),
    value_usd  NUMERIC(14, 2),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS asset_history (
    id         BIGSERIAL PRIMARY KEY,
    asset_id   BIGINT NOT NULL REFERENCES assets(id),
    action     TEXT NOT NULL,
    changed_by BIGINT REFERENCES users(id),
    notes      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transfers (
    id               BIGSERIAL PRIMARY KEY,
    transfer_id      TEXT NOT NULL UNIQUE,
    asset_id         BIGINT NOT NULL REFERENCES assets(id),
    current_location TEXT NOT NULL DEFAULT '',
    destination      TEXT NOT NULL,
    dest_rig_id      BIGINT REFERENCES rigs(id),
    dest_company_id  BIGINT REFERENCES companies(id),
    priority         TEXT NOT NULL CHECK (priority IN ('Critical', 'High', 'Normal', 'Low')),
    transfer_type    TEXT NOT NULL DEFAULT 'Field to Field',
    reason           TEXT NOT NULL,
    instructions     TEXT NOT NULL DEFAULT '',
    request_date     DATE NOT NULL,
    required_date    DATE,
    status           TEXT NOT NULL DEFAULT 'Pending'
                     CHECK (status IN ('Pending', 'Ops Approved', 'Rejected', 'On Hold', 'Completed')),
    requested_by     BIGINT REFERENCES users(id),
    ops_approved_by  BIGINT REFERENCES users(id),
    ops_action       TEXT CHECK (ops_action IN ('approve', 'reject', 'hold')),
    ops_date         TIMESTAMPTZ,
    ops_comment      TEXT,
    mgr_approved_by  BIGINT REFERENCES users(id),
    mgr_action       TEXT CHECK (mgr_action IN ('approve', 'reject', 'hold')),
    mgr_date         TIMESTAMPTZ,
    mgr_comment      TEXT,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transfers_status ON transfers(status);

CREATE TABLE IF NOT EXISTS notifications (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT REFERENCES users(id),
    type        TEXT NOT NULL DEFAULT 'info',
    icon        TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    entity_type TEXT NOT NULL DEFAULT '',
    entity_id   BIGINT,
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid on both drivers. Append new
// migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_asset_history_asset ON asset_history(asset_id, created_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
