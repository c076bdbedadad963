package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nexulsly-backend/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name   TEXT NOT NULL,
    last_name    TEXT NOT NULL,
    email        TEXT NOT NULL,
    project_type TEXT NOT NULL,
    message      TEXT NOT NULL,
    created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts (created_at);
`

// Open opens the database at dsn and makes sure the contacts table exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent submissions
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return db, nil
}

type contactRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepo{db: db, now: time.Now}
}

func (r *contactRepo) Create(ctx context.Context, req *domain.ContactRequest) (*domain.StoredContact, error) {
	contact := &domain.StoredContact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		ProjectType: req.ProjectType,
		Message:     req.Message,
		CreatedAt:   r.now().UTC(),
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, project_type, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		contact.FirstName, contact.LastName, contact.Email, contact.ProjectType, contact.Message, contact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	contact.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *contactRepo) List(ctx context.Context, filter domain.ContactFilter) ([]domain.StoredContact, error) {
	query := `SELECT id, first_name, last_name, email, project_type, message, created_at FROM contacts`
	args := make([]interface{}, 0, len(filter.ProjectTypes)+1)

	if len(filter.ProjectTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.ProjectTypes)), ",")
		query += ` WHERE project_type IN (` + placeholders + `)`
		for _, pt := range filter.ProjectTypes {
			args = append(args, pt)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []domain.StoredContact{}
	for rows.Next() {
		var c domain.StoredContact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.ProjectType, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
