package postgres

import (
	"context"

	"nexulsly-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type contactRepo struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) domain.ContactRepository {
	return &contactRepo{db: db}
}

const contactColumns = `id, first_name, last_name, email, project_type, message, created_at`

func (r *contactRepo) Create(ctx context.Context, req *domain.ContactRequest) (*domain.StoredContact, error) {
	query := `INSERT INTO contacts (first_name, last_name, email, project_type, message)
              VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`

	contact := &domain.StoredContact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		ProjectType: req.ProjectType,
		Message:     req.Message,
	}
	err := r.db.QueryRow(ctx, query,
		req.FirstName, req.LastName, req.Email, req.ProjectType, req.Message,
	).Scan(&contact.ID, &contact.CreatedAt)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *contactRepo) List(ctx context.Context, filter domain.ContactFilter) ([]domain.StoredContact, error) {
	var args []interface{}
	query := `SELECT ` + contactColumns + ` FROM contacts`

	if len(filter.ProjectTypes) > 0 {
		query += ` WHERE project_type = ANY($1::text[]) ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, pq.Array(filter.ProjectTypes), filter.Limit)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $1`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
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
