package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"presskit/internal/types"
)

const collabColumns = `id, profile_id, brand_name, email, message, budget, status,
	manage_token_hash, created_at, responded_at`

// CollabRepo manages brand collaboration requests submitted against media kits.
type CollabRepo struct {
	db     DBTX
	logger *slog.Logger
}

// NewCollabRepo creates a new CollabRepo backed by the given database
// connection (pool or transaction).
func NewCollabRepo(db DBTX, logger *slog.Logger) *CollabRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollabRepo{db: db, logger: logger}
}

// Create inserts a new collaboration request.
func (r *CollabRepo) Create(ctx context.Context, c *types.CollabRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO collab_requests
		 (id, profile_id, brand_name, email, message, budget, status, manage_token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID,
		c.ProfileID,
		c.BrandName,
		c.Email,
		c.Message,
		c.Budget,
		c.Status,
		c.ManageTokenHash,
		c.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create collab request", err)
	}
	return nil
}

// GetByID fetches a collaboration request by its ID.
func (r *CollabRepo) GetByID(ctx context.Context, id string) (*types.CollabRequest, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+collabColumns+` FROM collab_requests WHERE id = $1`,
		id,
	)
	return scanCollab(row)
}

// ListByProfile returns all collaboration requests for a creator, newest first.
func (r *CollabRepo) ListByProfile(ctx context.Context, profileID string) ([]types.CollabRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+collabColumns+` FROM collab_requests
		 WHERE profile_id = $1
		 ORDER BY created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list collab requests", err)
	}
	defer rows.Close()

	var result []types.CollabRequest
	for rows.Next() {
		var c types.CollabRequest
		if err := rows.Scan(
			&c.ID, &c.ProfileID, &c.BrandName, &c.Email, &c.Message, &c.Budget,
			&c.Status, &c.ManageTokenHash, &c.CreatedAt, &c.RespondedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan collab request", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate collab requests", err)
	}
	return result, nil
}

// CountAccepted returns the number of accepted collaborations for a profile.
// Shown on the public media kit as social proof.
func (r *CollabRepo) CountAccepted(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM collab_requests WHERE profile_id = $1 AND status = $2`,
		profileID,
		types.CollabStatusAccepted,
	).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count accepted collabs", err)
	}
	return count, nil
}

// UpdateStatus transitions a pending request to accepted or declined. Only the
// owning creator may respond, and a request can be responded to exactly once.
// Returns conflict_collab_request_closed if the request was already answered.
func (r *CollabRepo) UpdateStatus(ctx context.Context, id, profileID string, status types.CollabStatus, respondedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE collab_requests
		 SET status = $1,
		     responded_at = $2
		 WHERE id = $3
		   AND profile_id = $4
		   AND status = $5`,
		status,
		respondedAt,
		id,
		profileID,
		types.CollabStatusPending,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update collab status", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: distinguish missing request from an already-answered one.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.ProfileID != profileID {
		return types.NewAppError(types.ErrCodeNotFoundCollab, "collab request not found", nil)
	}
	return types.NewAppError(types.ErrCodeConflictCollabClosed, "collab request has already been responded to", nil)
}

func scanCollab(row pgx.Row) (*types.CollabRequest, error) {
	var c types.CollabRequest
	err := row.Scan(
		&c.ID, &c.ProfileID, &c.BrandName, &c.Email, &c.Message, &c.Budget,
		&c.Status, &c.ManageTokenHash, &c.CreatedAt, &c.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundCollab, "collab request not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan collab request", err)
	}
	return &c, nil
}
