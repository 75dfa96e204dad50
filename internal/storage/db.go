package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"vaquero/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS discounts (
  id INTEGER PRIMARY KEY,
  businessName TEXT NOT NULL,
  category TEXT NOT NULL,
  discountAmount TEXT NOT NULL,
  whoCanRedeem TEXT NOT NULL,
  howToRedeem TEXT NOT NULL,
  description TEXT NOT NULL,
  address TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT NOT NULL,
  website TEXT NOT NULL,
  campusProximity TEXT NOT NULL,
  isFeatured INTEGER NOT NULL,
  tags TEXT NOT NULL,
  joinDate TEXT NOT NULL,
  authorizedBy TEXT NOT NULL,
  contactTitle TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_discounts_category ON discounts(category);

CREATE TABLE IF NOT EXISTS ingest_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  accepted INTEGER NOT NULL,
  rejected INTEGER NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS filter_states (
  userKey TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceDiscounts swaps the whole snapshot in one transaction.
func (d *DB) ReplaceDiscounts(records []internal.DiscountRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM discounts`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO discounts (
  id, businessName, category, discountAmount, whoCanRedeem,
  howToRedeem, description, address, phone, email,
  website, campusProximity, isFeatured, tags,
  joinDate, authorizedBy, contactTitle
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		whoJSON, _ := json.Marshal(r.WhoCanRedeem)
		tagsJSON, _ := json.Marshal(r.Tags)
		if _, err := stmt.Exec(
			r.ID, r.BusinessName, string(r.Category), r.DiscountAmount, string(whoJSON),
			r.HowToRedeem, r.Description, r.Address, r.Phone, r.Email,
			r.Website, r.CampusProximity, r.IsFeatured, string(tagsJSON),
			r.JoinDate, r.AuthorizedBy, r.ContactTitle,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListDiscounts() ([]internal.DiscountRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, businessName, category, discountAmount, whoCanRedeem,
       howToRedeem, description, address, phone, email,
       website, campusProximity, isFeatured, tags,
       joinDate, authorizedBy, contactTitle
FROM discounts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.DiscountRecord{}
	for rows.Next() {
		var r internal.DiscountRecord
		var category, whoJSON, tagsJSON string
		if err := rows.Scan(
			&r.ID, &r.BusinessName, &category, &r.DiscountAmount, &whoJSON,
			&r.HowToRedeem, &r.Description, &r.Address, &r.Phone, &r.Email,
			&r.Website, &r.CampusProximity, &r.IsFeatured, &tagsJSON,
			&r.JoinDate, &r.AuthorizedBy, &r.ContactTitle,
		); err != nil {
			return nil, err
		}
		r.Category = internal.Category(category)
		_ = json.Unmarshal([]byte(whoJSON), &r.WhoCanRedeem)
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}

	return out, rows.Err()
}

type CategoryCount struct {
	Category internal.Category
	Count    int
}

func (d *DB) CountByCategory() ([]CategoryCount, error) {
	rows, err := d.conn.Query(`SELECT category, COUNT(*) FROM discounts GROUP BY category ORDER BY category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		var category string
		if err := rows.Scan(&category, &c.Count); err != nil {
			return nil, err
		}
		c.Category = internal.Category(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(run internal.IngestRun) error {
	_, err := d.conn.Exec(`INSERT INTO ingest_runs (traceId, source, accepted, rejected, durationMs) VALUES (?, ?, ?, ?, ?)`,
		run.TraceID, run.Source, run.Accepted, run.Rejected, run.DurationMs)
	return err
}

func (d *DB) LatestRun() (*internal.IngestRun, error) {
	var run internal.IngestRun
	err := d.conn.QueryRow(`
SELECT traceId, source, accepted, rejected, durationMs, createdAt
FROM ingest_runs ORDER BY id DESC LIMIT 1
`).Scan(&run.TraceID, &run.Source, &run.Accepted, &run.Rejected, &run.DurationMs, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadState returns the raw persisted filter document for a user key, or nil
// when nothing was saved.
func (d *DB) LoadState(userKey string) ([]byte, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM filter_states WHERE userKey = ?`, userKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (d *DB) SaveState(userKey string, value []byte) error {
	_, err := d.conn.Exec(`
INSERT INTO filter_states (userKey, value) VALUES (?, ?)
ON CONFLICT(userKey) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, userKey, string(value))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
