package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS labs (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_labs_name_active
    ON labs(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('admin', 'lab')),
    lab_id        INTEGER REFERENCES labs(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME,
    CHECK ((role = 'lab') = (lab_id IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    category      TEXT NOT NULL,
    total_count   INTEGER NOT NULL CHECK (total_count >= 0),
    working_count INTEGER NOT NULL CHECK (working_count >= 0),
    damaged_count INTEGER NOT NULL CHECK (damaged_count >= 0),
    lost_count    INTEGER NOT NULL CHECK (lost_count >= 0),
    lab_id        INTEGER NOT NULL REFERENCES labs(id),
    version       INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME,
    CHECK (working_count + damaged_count + lost_count = total_count)
);

CREATE INDEX IF NOT EXISTS idx_items_natural_key
    ON items(lab_id, name, category) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS transfers (
    id             INTEGER PRIMARY KEY,
    item_id        INTEGER NOT NULL REFERENCES items(id),
    dest_item_id   INTEGER NOT NULL REFERENCES items(id),
    from_lab_id    INTEGER NOT NULL REFERENCES labs(id),
    to_lab_id      INTEGER NOT NULL REFERENCES labs(id),
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    notes          TEXT,
    transferred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    transferred_by INTEGER REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS stock_requests (
    id            INTEGER PRIMARY KEY,
    lab_id        INTEGER NOT NULL REFERENCES labs(id),
    item_id       INTEGER NOT NULL REFERENCES items(id),
    requested_qty INTEGER NOT NULL CHECK (requested_qty >= 1),
    status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    version       INTEGER NOT NULL DEFAULT 1,
    decided_by    INTEGER REFERENCES users(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_stock_requests_status_lab
    ON stock_requests(status, lab_id);

CREATE TABLE IF NOT EXISTS complaints (
    id            INTEGER PRIMARY KEY,
    lab_id        INTEGER NOT NULL REFERENCES labs(id),
    item_id       INTEGER REFERENCES items(id),
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    severity      TEXT NOT NULL DEFAULT 'low' CHECK (severity IN ('low', 'medium', 'high')),
    status        TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'resolved')),
    admin_comment TEXT NOT NULL DEFAULT '',
    version       INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_complaints_lab_status
    ON complaints(lab_id, status);

CREATE TABLE IF NOT EXISTS complaint_attachments (
    id           INTEGER PRIMARY KEY,
    complaint_id INTEGER NOT NULL REFERENCES complaints(id),
    blob_key     TEXT NOT NULL,
    filename     TEXT NOT NULL,
    mime         TEXT NOT NULL,
    size         INTEGER NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS maintenance_records (
    id           INTEGER PRIMARY KEY,
    lab_id       INTEGER NOT NULL REFERENCES labs(id),
    item_id      INTEGER NOT NULL REFERENCES items(id),
    date         TEXT NOT NULL,
    cost         TEXT NOT NULL,
    type         TEXT NOT NULL DEFAULT 'repair'
                 CHECK (type IN ('repair', 'calibration', 'service', 'replacement', 'other')),
    vendor       TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT '',
    complaint_id INTEGER REFERENCES complaints(id),
    created_by   INTEGER REFERENCES users(id),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_maintenance_lab_date ON maintenance_records(lab_id, date);
CREATE INDEX IF NOT EXISTS idx_maintenance_item_date ON maintenance_records(item_id, date);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
