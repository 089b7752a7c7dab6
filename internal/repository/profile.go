package repository

import (
	"context"
	"errors"
	"fmt"

	"matchdeck-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `
	id, name, age, COALESCE(gender, ''), COALESCE(location, ''), COALESCE(distance, ''),
	COALESCE(bio, ''), COALESCE(occupation, ''), COALESCE(education, ''), COALESCE(height, ''),
	COALESCE(photos, '{}'), is_verified, COALESCE(looking_for, ''), COALESCE(tags, '{}'), created_at
`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Name, &p.Age, &p.Gender, &p.Location, &p.Distance,
		&p.Bio, &p.Occupation, &p.Education, &p.Height,
		&p.Photos, &p.IsVerified, &p.LookingFor, &p.Tags, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ListCandidates returns every profile except the viewer, oldest first
func (r *ProfileRepository) ListCandidates(ctx context.Context, viewerID string) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id <> $1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, viewerID)
}

// GetMany retrieves the profiles with the given IDs. Unknown IDs are skipped.
func (r *ProfileRepository) GetMany(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1::text[]::uuid[])`
	return r.list(ctx, query, ids)
}

func (r *ProfileRepository) list(ctx context.Context, query string, args ...any) ([]models.Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

// AppendPhoto adds a photo key to the end of a profile's photo list
func (r *ProfileRepository) AppendPhoto(ctx context.Context, id, key string) error {
	query := `UPDATE profiles SET photos = array_append(COALESCE(photos, '{}'), $2) WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, key)
	if err != nil {
		return fmt.Errorf("failed to append photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}
