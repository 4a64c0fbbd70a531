package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"phenomap/inference"
)

// Journal stores completed assignments in SQLite.
type Journal struct {
	database *sql.DB
}

// AssignmentRow is one journal entry as read back from the database.
type AssignmentRow struct {
	ID          string             `json:"id"`
	Schema      string             `json:"schema"`
	Label       int                `json:"label"`
	Confidence  float64            `json:"confidence"`
	Description string             `json:"description,omitempty"`
	Inputs      map[string]float64 `json:"inputs"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS assignments (
        id TEXT PRIMARY KEY,
        schema_name TEXT NOT NULL,
        label INTEGER NOT NULL,
        confidence REAL NOT NULL,
        description TEXT,
        inputs TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_assignments_created ON assignments (created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Journal{database: database}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.database == nil {
		return nil
	}
	return j.database.Close()
}

// SaveAssignment implements inference.Journal.
func (j *Journal) SaveAssignment(ctx context.Context, a *inference.Assignment) error {
	if j == nil || j.database == nil {
		return errors.New("database not initialized")
	}
	inputs, err := json.Marshal(a.Inputs())
	if err != nil {
		return err
	}
	_, err = j.database.ExecContext(ctx, `
        INSERT OR REPLACE INTO assignments (
            id, schema_name, label, confidence, description, inputs, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Schema,
		a.Result.Label,
		a.Result.Confidence,
		a.Description,
		string(inputs),
		a.CreatedAt,
	)
	return err
}

// RecentAssignments returns up to limit entries, newest first. An empty
// schemaName matches every schema.
func (j *Journal) RecentAssignments(ctx context.Context, schemaName string, limit int) ([]AssignmentRow, error) {
	if j == nil || j.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.database.QueryContext(ctx, `
        SELECT id, schema_name, label, confidence, description, inputs, created_at
        FROM assignments
        WHERE ? = '' OR schema_name = ?
        ORDER BY created_at DESC
        LIMIT ?`, schemaName, schemaName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AssignmentRow, 0)
	for rows.Next() {
		var row AssignmentRow
		var description sql.NullString
		var inputs string
		if err := rows.Scan(&row.ID, &row.Schema, &row.Label, &row.Confidence, &description, &inputs, &row.CreatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			row.Description = description.String
		}
		if err := json.Unmarshal([]byte(inputs), &row.Inputs); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
