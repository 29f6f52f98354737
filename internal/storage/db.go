package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"profilematch/internal"
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
CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  filename TEXT NOT NULL UNIQUE,
  hash TEXT NOT NULL,
  slideCount INTEGER NOT NULL,
  loadedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS consultants (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL,
  name TEXT NOT NULL,
  title TEXT NOT NULL,
  mobile TEXT NOT NULL,
  location TEXT NOT NULL,
  email TEXT NOT NULL,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);
CREATE INDEX IF NOT EXISTS idx_consultants_name ON consultants(name);

CREATE TABLE IF NOT EXISTS consultant_slides (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  consultantId INTEGER NOT NULL,
  slideNum INTEGER NOT NULL,
  rawData TEXT NOT NULL,
  data TEXT NOT NULL,
  FOREIGN KEY(consultantId) REFERENCES consultants(id)
);

CREATE TABLE IF NOT EXISTS profiles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  documentId INTEGER NOT NULL UNIQUE,
  name TEXT NOT NULL,
  profile_text TEXT NOT NULL,
  FOREIGN KEY(documentId) REFERENCES documents(id)
);

CREATE TABLE IF NOT EXISTS mail_messages (
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

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
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

// SaveDocument replaces everything stored for doc.Filename in one
// transaction: one consultant row and one slide row per slide, and one
// profile row for the whole document.
func (d *DB) SaveDocument(doc internal.DocumentRecord, entry internal.ConsultantCorpusEntry, hash string) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteDocument(tx, doc.Filename); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`INSERT INTO documents (filename, hash, slideCount) VALUES (?, ?, ?)`, doc.Filename, hash, len(doc.Slides))
	if err != nil {
		return 0, err
	}
	documentID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	consultantStmt, err := tx.Prepare(`
INSERT INTO consultants (documentId, name, title, mobile, location, email)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer consultantStmt.Close()

	slideStmt, err := tx.Prepare(`INSERT INTO consultant_slides (consultantId, slideNum, rawData, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer slideStmt.Close()

	for _, slide := range doc.Slides {
		p := slide.ParsedData
		res, err := consultantStmt.Exec(documentID, p.Name, p.Title, p.Mobile, p.Location, p.Email)
		if err != nil {
			return 0, err
		}
		consultantID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		if _, err := slideStmt.Exec(consultantID, slide.SlideNum, slide.RawData, p.Data); err != nil {
			return 0, err
		}
	}

	if _, err := tx.Exec(`INSERT INTO profiles (documentId, name, profile_text) VALUES (?, ?, ?)`, documentID, entry.Name, entry.ProfileText); err != nil {
		return 0, err
	}

	return documentID, tx.Commit()
}

func deleteDocument(tx *sql.Tx, filename string) error {
	var id int64
	err := tx.QueryRow(`SELECT id FROM documents WHERE filename = ?`, filename).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	stmts := []string{
		`DELETE FROM consultant_slides WHERE consultantId IN (SELECT id FROM consultants WHERE documentId = ?)`,
		`DELETE FROM consultants WHERE documentId = ?`,
		`DELETE FROM profiles WHERE documentId = ?`,
		`DELETE FROM documents WHERE id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	return nil
}

// PruneDocuments deletes every stored document whose filename is not in
// keep and returns how many were removed.
func (d *DB) PruneDocuments(keep []string) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	kept := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		kept[name] = struct{}{}
	}

	rows, err := tx.Query(`SELECT filename FROM documents`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return 0, err
		}
		if _, ok := kept[name]; !ok {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, err
	}
	_ = rows.Close()

	for _, name := range stale {
		if err := deleteDocument(tx, name); err != nil {
			return 0, err
		}
	}
	return len(stale), tx.Commit()
}

func (d *DB) GetDocumentHash(filename string) (*string, error) {
	var hash string
	err := d.conn.QueryRow(`SELECT hash FROM documents WHERE filename = ?`, filename).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// ListCorpusEntries returns one entry per stored document ordered by
// filename, so repeated queries see the same corpus.
func (d *DB) ListCorpusEntries() ([]internal.ConsultantCorpusEntry, error) {
	rows, err := d.conn.Query(`
SELECT p.name, p.profile_text
FROM profiles p
JOIN documents d ON d.id = p.documentId
ORDER BY d.filename ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ConsultantCorpusEntry
	for rows.Next() {
		var e internal.ConsultantCorpusEntry
		if err := rows.Scan(&e.Name, &e.ProfileText); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDocuments rebuilds the stored documents with their slides in page
// order.
func (d *DB) ListDocuments() ([]internal.DocumentRecord, error) {
	rows, err := d.conn.Query(`
SELECT d.filename, s.slideNum, s.rawData, c.name, c.title, c.email, c.mobile, c.location, s.data
FROM documents d
JOIN consultants c ON c.documentId = d.id
JOIN consultant_slides s ON s.consultantId = c.id
ORDER BY d.filename ASC, s.slideNum ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DocumentRecord
	for rows.Next() {
		var filename string
		var slide internal.SlideRecord
		p := &slide.ParsedData
		if err := rows.Scan(&filename, &slide.SlideNum, &slide.RawData, &p.Name, &p.Title, &p.Email, &p.Mobile, &p.Location, &p.Data); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Filename != filename {
			out = append(out, internal.DocumentRecord{Filename: filename, Slides: []internal.SlideRecord{}})
		}
		last := &out[len(out)-1]
		last.Slides = append(last.Slides, slide)
	}
	return out, rows.Err()
}

func (d *DB) GetConsultantByName(name string) (*internal.ConsultantRow, error) {
	var row internal.ConsultantRow
	err := d.conn.QueryRow(`
SELECT id, documentId, name, title, mobile, location, email
FROM consultants WHERE name = ? ORDER BY id ASC LIMIT 1
`, name).Scan(&row.ID, &row.DocumentID, &row.Name, &row.Title, &row.Mobile, &row.Location, &row.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListSlidesByConsultantID(consultantID int) ([]internal.ConsultantSlideRow, error) {
	rows, err := d.conn.Query(`
SELECT id, consultantId, slideNum, rawData, data
FROM consultant_slides WHERE consultantId = ? ORDER BY slideNum ASC
`, consultantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ConsultantSlideRow
	for rows.Next() {
		var row internal.ConsultantSlideRow
		if err := rows.Scan(&row.ID, &row.ConsultantID, &row.SlideNum, &row.RawData, &row.Data); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ClearProfiles removes every stored document and the rows derived from it.
func (d *DB) ClearProfiles() error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"consultant_slides", "consultants", "profiles", "documents"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (d *DB) UpsertMailMessage(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.MailMessageRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO mail_messages (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
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
		return internal.MailMessageRow{}, err
	}

	row, err := d.GetMailMessageByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailMessageRow{}, err
	}
	if row == nil {
		return internal.MailMessageRow{}, errors.New("failed to upsert mail message")
	}
	return *row, nil
}

func (d *DB) GetMailMessageByProviderMessageID(provider, messageID string) (*internal.MailMessageRow, error) {
	var row internal.MailMessageRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mail_messages WHERE provider = ? AND messageId = ?
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

func (d *DB) ListMailMessagesByStatus(status string, limit int) ([]internal.MailMessageRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM mail_messages WHERE status = ? ORDER BY receivedAt ASC, id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailMessageRow
	for rows.Next() {
		var row internal.MailMessageRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateMailMessageStatus(id int, status string) error {
	_, err := d.conn.Exec(`UPDATE mail_messages SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (d *DB) MustMailMessageByProviderMessageID(provider, messageID string) (internal.MailMessageRow, error) {
	row, err := d.GetMailMessageByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailMessageRow{}, err
	}
	if row == nil {
		return internal.MailMessageRow{}, fmt.Errorf("mail message not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) InsertRun(traceID, kind string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, kind, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) CountRuns(kind string) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM runs WHERE kind = ?`, kind).Scan(&n)
	return n, err
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
