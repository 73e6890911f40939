// Package store persists template bundles (target schema + field mappings)
// in SQLite.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/mapping"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a template id does not exist.
var ErrNotFound = fmt.Errorf("template not found")

// Template is one persisted bundle. Name is unique: saving under an
// existing name overwrites that record while keeping its id and creation
// time.
type Template struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	TargetFields  []schema.TargetField   `json:"targetFields"`
	FieldMappings []mapping.FieldMapping `json:"fieldMappings"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// SQLiteStore implements template persistence over a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates an unopened store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens the database at path (":memory:" for tests) and initializes
// the schema.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open template database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping template database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("initialize template schema: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores a bundle under the given name, overwriting an existing
// record of the same name.
func (s *SQLiteStore) Save(name string, targetFields []schema.TargetField, mappings []mapping.FieldMapping) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("template name must not be empty")
	}

	tfJSON, err := json.Marshal(orEmptyFields(targetFields))
	if err != nil {
		return nil, fmt.Errorf("encode target fields: %w", err)
	}
	fmJSON, err := json.Marshal(orEmptyMappings(mappings))
	if err != nil {
		return nil, fmt.Errorf("encode mappings: %w", err)
	}

	now := time.Now().UTC()
	tpl := &Template{
		Name:          name,
		TargetFields:  orEmptyFields(targetFields),
		FieldMappings: orEmptyMappings(mappings),
		UpdatedAt:     now,
	}

	var existingID string
	var createdAt time.Time
	err = s.db.QueryRow(`SELECT id, created_at FROM templates WHERE name = ?`, name).
		Scan(&existingID, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		tpl.ID = uuid.New().String()
		tpl.CreatedAt = now
		_, err = s.db.Exec(
			`INSERT INTO templates (id, name, target_fields, mappings, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tpl.ID, tpl.Name, string(tfJSON), string(fmJSON), tpl.CreatedAt, tpl.UpdatedAt,
		)
	case err != nil:
		return nil, fmt.Errorf("look up template: %w", err)
	default:
		tpl.ID = existingID
		tpl.CreatedAt = createdAt
		_, err = s.db.Exec(
			`UPDATE templates SET target_fields = ?, mappings = ?, updated_at = ? WHERE id = ?`,
			string(tfJSON), string(fmJSON), tpl.UpdatedAt, tpl.ID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return tpl, nil
}

// Get retrieves a template by id.
func (s *SQLiteStore) Get(id string) (*Template, error) {
	row := s.db.QueryRow(
		`SELECT id, name, target_fields, mappings, created_at, updated_at FROM templates WHERE id = ?`, id)
	return scanTemplate(row)
}

// List returns all templates ordered by creation time.
func (s *SQLiteStore) List() ([]*Template, error) {
	rows, err := s.db.Query(
		`SELECT id, name, target_fields, mappings, created_at, updated_at FROM templates ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// Delete removes a template by id.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	var tpl Template
	var tfJSON, fmJSON string
	err := row.Scan(&tpl.ID, &tpl.Name, &tfJSON, &fmJSON, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}
	if err := json.Unmarshal([]byte(tfJSON), &tpl.TargetFields); err != nil {
		return nil, fmt.Errorf("decode target fields: %w", err)
	}
	if err := json.Unmarshal([]byte(fmJSON), &tpl.FieldMappings); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	return &tpl, nil
}

func orEmptyFields(v []schema.TargetField) []schema.TargetField {
	if v == nil {
		return []schema.TargetField{}
	}
	return v
}

func orEmptyMappings(v []mapping.FieldMapping) []mapping.FieldMapping {
	if v == nil {
		return []mapping.FieldMapping{}
	}
	return v
}
