package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"presup/internal"
)

// DB is the document store handle. It is passed explicitly to every component
// that needs persistence; there is no package-level instance.
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
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  base_price REAL NOT NULL DEFAULT 0,
  category TEXT NOT NULL DEFAULT 'General',
  image_url TEXT,
  characteristics_json TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_owner ON products(owner_id);
CREATE INDEX IF NOT EXISTS idx_products_owner_category ON products(owner_id, category);

CREATE TABLE IF NOT EXISTS marking_techniques (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  cost_per_unit REAL NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_techniques_owner ON marking_techniques(owner_id);

CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  client_name TEXT NOT NULL,
  total_basic REAL NOT NULL,
  total_medium REAL NOT NULL,
  total_premium REAL NOT NULL,
  techniques_json TEXT NOT NULL DEFAULT '[]',
  breakdown_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_quotes_owner ON quotes(owner_id);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
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

// InsertProducts writes a batch in one transaction; either the whole batch
// lands or none of it does.
func (d *DB) InsertProducts(products []internal.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO products (id, owner_id, name, description, base_price, category, image_url, characteristics_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		charJSON, err := json.Marshal(p.Characteristics)
		if err != nil {
			return fmt.Errorf("encode characteristics for %q: %w", p.Name, err)
		}
		if _, err := stmt.Exec(p.ID, p.OwnerID, p.Name, p.Description, p.BasePrice, p.Category, p.ImageURL, string(charJSON), p.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) InsertProduct(p internal.Product) error {
	return d.InsertProducts([]internal.Product{p})
}

func (d *DB) ListProducts(ownerID string) ([]internal.Product, error) {
	return d.FindProductsByCategory(ownerID, "", 0)
}

// FindProductsByCategory does a case-insensitive contains match on category,
// mirroring the $regex-style filter the quote flow needs. Empty category
// matches everything. limit <= 0 means unbounded.
func (d *DB) FindProductsByCategory(ownerID, category string, limit int) ([]internal.Product, error) {
	query := `
SELECT id, owner_id, name, description, base_price, category, image_url, characteristics_json, created_at
FROM products
WHERE owner_id = ? AND (? = '' OR instr(lower(category), lower(?)) > 0)
ORDER BY created_at ASC, id ASC
`
	args := []any{ownerID, category, category}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Product
	for rows.Next() {
		var p internal.Product
		var charJSON string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.BasePrice, &p.Category, &p.ImageURL, &charJSON, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(charJSON), &p.Characteristics); err != nil {
			p.Characteristics = internal.Characteristics{}
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (d *DB) DeleteProduct(ownerID, id string) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM products WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) DeleteProductsByOwner(ownerID string) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM products WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) InsertTechniques(techniques []internal.MarkingTechnique) error {
	if len(techniques) == 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO marking_techniques (id, owner_id, name, cost_per_unit, description, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range techniques {
		if _, err := stmt.Exec(t.ID, t.OwnerID, t.Name, t.CostPerUnit, t.Description, t.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) InsertTechnique(t internal.MarkingTechnique) error {
	return d.InsertTechniques([]internal.MarkingTechnique{t})
}

func (d *DB) ListTechniques(ownerID string) ([]internal.MarkingTechnique, error) {
	rows, err := d.conn.Query(`
SELECT id, owner_id, name, cost_per_unit, description, created_at
FROM marking_techniques WHERE owner_id = ? ORDER BY created_at ASC, id ASC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTechniques(rows)
}

// FindTechniquesByNames is the $in-style lookup used at quote time.
func (d *DB) FindTechniquesByNames(ownerID string, names []string) ([]internal.MarkingTechnique, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, 0, len(names)+1)
	args = append(args, ownerID)
	for _, n := range names {
		args = append(args, n)
	}

	rows, err := d.conn.Query(`
SELECT id, owner_id, name, cost_per_unit, description, created_at
FROM marking_techniques WHERE owner_id = ? AND name IN (`+placeholders+`) ORDER BY created_at ASC, id ASC
`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTechniques(rows)
}

func scanTechniques(rows *sql.Rows) ([]internal.MarkingTechnique, error) {
	var out []internal.MarkingTechnique
	for rows.Next() {
		var t internal.MarkingTechnique
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.CostPerUnit, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) InsertQuote(q internal.Quote) error {
	techniquesJSON, err := json.Marshal(q.MarkingTechniques)
	if err != nil {
		return err
	}
	breakdownJSON, err := json.Marshal(q.Products)
	if err != nil {
		return err
	}

	_, err = d.conn.Exec(`
INSERT INTO quotes (id, owner_id, client_name, total_basic, total_medium, total_premium, techniques_json, breakdown_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, q.ID, q.OwnerID, q.ClientName, q.TotalBasic, q.TotalMedium, q.TotalPremium, string(techniquesJSON), string(breakdownJSON), q.CreatedAt)
	return err
}

func (d *DB) ListQuotes(ownerID string) ([]internal.Quote, error) {
	rows, err := d.conn.Query(`
SELECT id, owner_id, client_name, total_basic, total_medium, total_premium, techniques_json, breakdown_json, created_at
FROM quotes WHERE owner_id = ? ORDER BY created_at DESC, id DESC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (d *DB) GetQuote(ownerID, id string) (*internal.Quote, error) {
	rows, err := d.conn.Query(`
SELECT id, owner_id, client_name, total_basic, total_medium, total_premium, techniques_json, breakdown_json, created_at
FROM quotes WHERE owner_id = ? AND id = ?
`, ownerID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	q, err := scanQuote(rows)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func scanQuote(rows *sql.Rows) (internal.Quote, error) {
	var q internal.Quote
	var techniquesJSON, breakdownJSON string
	if err := rows.Scan(&q.ID, &q.OwnerID, &q.ClientName, &q.TotalBasic, &q.TotalMedium, &q.TotalPremium, &techniquesJSON, &breakdownJSON, &q.CreatedAt); err != nil {
		return internal.Quote{}, err
	}
	_ = json.Unmarshal([]byte(techniquesJSON), &q.MarkingTechniques)
	_ = json.Unmarshal([]byte(breakdownJSON), &q.Products)
	return q, nil
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.MailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.MailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.MailRow, error) {
	var row internal.MailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.MailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailRow
	for rows.Next() {
		var row internal.MailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
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
