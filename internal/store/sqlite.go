package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLite keeps the document in a SQLite database.
type SQLite struct {
	conn   *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens the database at dsn and ensures the schema is up to date.
func OpenSQLite(dsn string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; also keeps :memory: databases on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{conn: db, logger: logger, now: domain.Now}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load reads the document, falling back to the seed document when nothing
// has been saved yet or the tables cannot be read.
func (s *SQLite) Load(ctx context.Context) domain.Document {
	doc, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("No saved document, starting from seed")
		} else {
			s.logger.Warn("Failed to load document, starting from seed", "error", err)
		}
		return Seed(s.now())
	}
	return doc
}

func (s *SQLite) load(ctx context.Context) (domain.Document, error) {
	doc := domain.Document{
		Decks: []domain.Deck{},
		Cards: []domain.Card{},
		Logs:  []domain.ReviewLog{},
	}

	var darkMode int
	row := s.conn.QueryRowContext(ctx, `SELECT dark_mode, daily_target FROM settings WHERE id = 1`)
	if err := row.Scan(&darkMode, &doc.Settings.DailyTarget); err != nil {
		return doc, err
	}
	doc.Settings.DarkMode = darkMode != 0

	decks, err := s.conn.QueryContext(ctx, `
		SELECT id, name, description, color, created_at, last_reviewed
		FROM decks ORDER BY position
	`)
	if err != nil {
		return doc, fmt.Errorf("failed to query decks: %w", err)
	}
	defer decks.Close()
	for decks.Next() {
		var d domain.Deck
		var created int64
		var reviewed sql.NullInt64
		if err := decks.Scan(&d.ID, &d.Name, &d.Description, &d.Color, &created, &reviewed); err != nil {
			return doc, fmt.Errorf("failed to scan deck row: %w", err)
		}
		d.CreatedAt = fromMillis(created)
		if reviewed.Valid {
			d.LastReviewed = fromMillis(reviewed.Int64)
		}
		doc.Decks = append(doc.Decks, d)
	}
	if err := decks.Err(); err != nil {
		return doc, fmt.Errorf("failed to read decks: %w", err)
	}

	cards, err := s.conn.QueryContext(ctx, `
		SELECT id, deck_id, front, back, ease, interval_days, due_date, repetitions, state, tags, created_at
		FROM cards ORDER BY position
	`)
	if err != nil {
		return doc, fmt.Errorf("failed to query cards: %w", err)
	}
	defer cards.Close()
	for cards.Next() {
		var c domain.Card
		var due, created int64
		var state, tags string
		if err := cards.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Ease, &c.Interval, &due, &c.Repetitions, &state, &tags, &created); err != nil {
			return doc, fmt.Errorf("failed to scan card row: %w", err)
		}
		if c.State, err = domain.ParseState(state); err != nil {
			return doc, fmt.Errorf("card %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return doc, fmt.Errorf("card %s tags: %w", c.ID, err)
		}
		c.DueDate = fromMillis(due)
		c.CreatedAt = fromMillis(created)
		doc.Cards = append(doc.Cards, c)
	}
	if err := cards.Err(); err != nil {
		return doc, fmt.Errorf("failed to read cards: %w", err)
	}
	floorEase(doc.Cards)

	logs, err := s.conn.QueryContext(ctx, `SELECT id, card_id, grade, timestamp FROM logs ORDER BY position`)
	if err != nil {
		return doc, fmt.Errorf("failed to query logs: %w", err)
	}
	defer logs.Close()
	for logs.Next() {
		var l domain.ReviewLog
		var grade string
		var ts int64
		if err := logs.Scan(&l.ID, &l.CardID, &grade, &ts); err != nil {
			return doc, fmt.Errorf("failed to scan log row: %w", err)
		}
		if err := l.Grade.UnmarshalText([]byte(grade)); err != nil {
			return doc, fmt.Errorf("log %s: %w", l.ID, err)
		}
		l.Timestamp = fromMillis(ts)
		doc.Logs = append(doc.Logs, l)
	}
	if err := logs.Err(); err != nil {
		return doc, fmt.Errorf("failed to read logs: %w", err)
	}

	return doc, nil
}

// Save replaces every table with the document in one transaction.
func (s *SQLite) Save(ctx context.Context, doc domain.Document) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"logs", "cards", "decks", "settings"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO settings (id, dark_mode, daily_target) VALUES (1, ?, ?)
	`, boolToInt(doc.Settings.DarkMode), doc.Settings.DailyTarget); err != nil {
		return fmt.Errorf("failed to insert settings: %w", err)
	}

	for i, d := range doc.Decks {
		var reviewed sql.NullInt64
		if !d.LastReviewed.IsZero() {
			reviewed = sql.NullInt64{Int64: d.LastReviewed.UnixMilli(), Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO decks (id, position, name, description, color, created_at, last_reviewed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, d.ID, i, d.Name, d.Description, d.Color, d.CreatedAt.UnixMilli(), reviewed); err != nil {
			return fmt.Errorf("failed to insert deck %s: %w", d.ID, err)
		}
	}

	for i, c := range doc.Cards {
		tags, jerr := json.Marshal(c.Tags)
		if jerr != nil {
			err = jerr
			return fmt.Errorf("failed to encode tags of card %s: %w", c.ID, err)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cards (id, position, deck_id, front, back, ease, interval_days, due_date, repetitions, state, tags, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, i, c.DeckID, c.Front, c.Back, c.Ease, c.Interval, c.DueDate.UnixMilli(), c.Repetitions, c.State.String(), string(tags), c.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
		}
	}

	for i, l := range doc.Logs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO logs (id, position, card_id, grade, timestamp) VALUES (?, ?, ?, ?, ?)
		`, l.ID, i, l.CardID, l.Grade.String(), l.Timestamp.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert log %s: %w", l.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
