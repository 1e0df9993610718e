package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store implements ports.PresentationStore and ports.ImageStore on a SQLite file.
// Decks are stored relationally: one row per presentation, slide and node.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func New(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection also keeps :memory: shared.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS presentations (
			patient_id TEXT PRIMARY KEY,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS slides (
			patient_id TEXT NOT NULL REFERENCES presentations(patient_id) ON DELETE CASCADE,
			slide_id TEXT NOT NULL,
			PRIMARY KEY (patient_id, slide_id)
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			patient_id TEXT NOT NULL,
			slide_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			pos_left REAL NOT NULL,
			pos_top REAL NOT NULL,
			width REAL,
			value TEXT,
			draggable INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (patient_id, slide_id, node_id),
			FOREIGN KEY (patient_id, slide_id) REFERENCES slides(patient_id, slide_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			content_type TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_slide ON nodes(patient_id, slide_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_images_patient ON images(patient_id)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the patient's deck in one transaction.
func (s *Store) Save(ctx context.Context, patientID string, doc domain.Document) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE patient_id = ?`, patientID); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE patient_id = ?`, patientID); err != nil {
		return fmt.Errorf("clear slides: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO presentations (patient_id) VALUES (?)
		 ON CONFLICT(patient_id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, patientID); err != nil {
		return fmt.Errorf("upsert presentation: %w", err)
	}

	for slideID, nodes := range doc.Slides {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO slides (patient_id, slide_id) VALUES (?, ?)`, patientID, string(slideID)); err != nil {
			return fmt.Errorf("insert slide %s: %w", slideID, err)
		}
		for seq, n := range nodes {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO nodes (patient_id, slide_id, node_id, seq, type, pos_left, pos_top, width, value, draggable)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				patientID, string(slideID), n.ID, seq, string(n.Type),
				n.Position.Left, n.Position.Top, nullFloat(n.Position.Width), nullString(n.Value), n.Draggable)
			if err != nil {
				return fmt.Errorf("insert node %s: %w", n.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load rebuilds the deck from its rows.
func (s *Store) Load(ctx context.Context, patientID string) (domain.Document, error) {
	var exists int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM presentations WHERE patient_id = ?`, patientID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrPresentationNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("query presentation: %w", err)
	}

	doc := domain.NewDocument()
	slideRows, err := s.conn.QueryContext(ctx, `SELECT slide_id FROM slides WHERE patient_id = ?`, patientID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("query slides: %w", err)
	}
	for slideRows.Next() {
		var id string
		if err := slideRows.Scan(&id); err != nil {
			slideRows.Close()
			return domain.Document{}, err
		}
		doc.Slides[domain.SlideID(id)] = []domain.Node{}
	}
	slideRows.Close()
	if err := slideRows.Err(); err != nil {
		return domain.Document{}, err
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT slide_id, node_id, type, pos_left, pos_top, width, value, draggable
		 FROM nodes WHERE patient_id = ? ORDER BY slide_id, seq`, patientID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slideID, nodeType string
			n                 domain.Node
			width             sql.NullFloat64
			value             sql.NullString
		)
		if err := rows.Scan(&slideID, &n.ID, &nodeType, &n.Position.Left, &n.Position.Top, &width, &value, &n.Draggable); err != nil {
			return domain.Document{}, fmt.Errorf("scan node: %w", err)
		}
		n.Type = domain.NodeType(nodeType)
		if width.Valid {
			n.Position.Width = domain.Ptr(width.Float64)
		}
		if value.Valid {
			n.Value = domain.Ptr(value.String)
		}
		doc.Slides[domain.SlideID(slideID)] = append(doc.Slides[domain.SlideID(slideID)], n)
	}
	return doc, rows.Err()
}

// Delete removes the deck and its images.
func (s *Store) Delete(ctx context.Context, patientID string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM nodes WHERE patient_id = ?`,
		`DELETE FROM slides WHERE patient_id = ?`,
		`DELETE FROM presentations WHERE patient_id = ?`,
		`DELETE FROM images WHERE patient_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, patientID); err != nil {
			return fmt.Errorf("delete presentation: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the patients with a stored deck.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT patient_id FROM presentations`)
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()

	var patients []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		patients = append(patients, id)
	}
	sort.Strings(patients)
	return patients, rows.Err()
}

// PutImage stores the blob in the images table.
func (s *Store) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO images (id, patient_id, content_type, data) VALUES (?, ?, ?, ?)`,
		id, patientID, contentType, data)
	if err != nil {
		return "", fmt.Errorf("insert image: %w", err)
	}
	return domain.ImageLocation(patientID, id), nil
}

// GetImage loads an image row.
func (s *Store) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	img := domain.Image{ID: imageID, PatientID: patientID}
	err := s.conn.QueryRowContext(ctx,
		`SELECT content_type, data FROM images WHERE id = ? AND patient_id = ?`, imageID, patientID).
		Scan(&img.ContentType, &img.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Image{}, domain.ErrImageNotFound
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("query image: %w", err)
	}
	return img, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
