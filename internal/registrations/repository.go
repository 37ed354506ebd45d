package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolve-africa/backend/internal/models"
)

const registrationColumns = `id, first_name, last_name, email, phone, location, course_of_interest, selected_session, created_at`

// Store is the persistence surface the registration service depends on.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByEmail(ctx context.Context, email string) (*models.Registration, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]models.Registration, error)
	Search(ctx context.Context, f Filter, strict bool) ([]models.Registration, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListAll(ctx context.Context) ([]models.Registration, error)
}

// Repository implements Store on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration and fills in the assigned id and timestamp.
// The unique constraint on email is authoritative for duplicates; a
// violation surfaces as ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (id, first_name, last_name, email, phone, location, course_of_interest, selected_session)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q,
		reg.FirstName, reg.LastName, reg.Email, reg.Phone, reg.Location, reg.CourseOfInterest, reg.SelectedSession).
		Scan(&reg.ID, &reg.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// GetByEmail returns the registration with the given email, or nil when none exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE email = $1`
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Count returns the total number of registrations.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&total)
	return total, err
}

// List returns one page of registrations, newest first.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	rows, err := r.pool.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	return collectRegistrations(rows)
}

// Search returns registrations matching the filter, newest first. Ties on
// created_at have no defined relative order.
func (r *Repository) Search(ctx context.Context, f Filter, strict bool) ([]models.Registration, error) {
	where, args, err := buildPredicate(f, strict)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + registrationColumns + ` FROM registrations` + where + ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectRegistrations(rows)
}

// DeleteByID removes a registration and returns its prior state.
// Returns ErrNotFound when no row has that id.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	q := `DELETE FROM registrations WHERE id = $1 RETURNING ` + registrationColumns
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListAll returns every registration, newest first (used by export).
func (r *Repository) ListAll(ctx context.Context) ([]models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectRegistrations(rows)
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone,
		&reg.Location, &reg.CourseOfInterest, &reg.SelectedSession, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func collectRegistrations(rows pgx.Rows) ([]models.Registration, error) {
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone,
			&reg.Location, &reg.CourseOfInterest, &reg.SelectedSession, &reg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
