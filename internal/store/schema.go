package store

const schema = `
-- Decks own cards; deleting a deck removes its cards.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,       -- unix millis
    last_reviewed INTEGER              -- unix millis, NULL until reviewed
);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    deck_id TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    ease REAL NOT NULL,
    interval_days INTEGER NOT NULL,
    due_date INTEGER NOT NULL,
    repetitions INTEGER NOT NULL,
    state TEXT NOT NULL,               -- new | learning | review | relearning
    tags TEXT NOT NULL DEFAULT '[]',   -- JSON array
    created_at INTEGER NOT NULL,

    FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due_date);

-- Review logs are append-only and outlive their cards.
CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    card_id TEXT NOT NULL,
    grade TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);

-- A single row; its presence marks that a document has been saved.
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    dark_mode INTEGER NOT NULL DEFAULT 0,
    daily_target INTEGER NOT NULL
);
`
