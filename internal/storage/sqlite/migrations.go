package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// Bucket items are stored per (session, person) with their position so the
// in-bill ordering survives a round trip.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    subtotal REAL NOT NULL,
    tax REAL NOT NULL,
    total REAL NOT NULL,
    tip REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS receipt_items (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price REAL NOT NULL,
    PRIMARY KEY (session_id, position),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS buckets (
    session_id TEXT NOT NULL,
    person TEXT NOT NULL,
    total REAL NOT NULL,
    PRIMARY KEY (session_id, person),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bucket_items (
    session_id TEXT NOT NULL,
    person TEXT NOT NULL,
    position INTEGER NOT NULL,
    unique_id TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price REAL NOT NULL,
    original_price REAL NOT NULL,
    shared_with INTEGER NOT NULL,
    PRIMARY KEY (session_id, person, position),
    FOREIGN KEY (session_id, person) REFERENCES buckets(session_id, person) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chat_messages (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    user_text TEXT NOT NULL,
    bot_text TEXT NOT NULL,
    PRIMARY KEY (session_id, position),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_receipt_items_session ON receipt_items(session_id);
CREATE INDEX IF NOT EXISTS idx_buckets_session ON buckets(session_id);
CREATE INDEX IF NOT EXISTS idx_bucket_items_session ON bucket_items(session_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
