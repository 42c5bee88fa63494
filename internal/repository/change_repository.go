package repository

import (
	"context"
	"fmt"

	"github.com/akinfemi/timetable/internal/model"
	"github.com/akinfemi/timetable/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChangeRepository struct {
	*base.Repository
}

func NewChangeRepository(pool *pgxpool.Pool) *ChangeRepository {
	return &ChangeRepository{Repository: base.NewRepository(pool)}
}

// Create persists a new pending change.
func (r *ChangeRepository) Create(ctx context.Context, change *model.PendingChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}

	query := `
		INSERT INTO timetable_changes (id, level, day, start_time, subject, teacher, submitted_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		change.ID,
		change.Level,
		change.Day,
		change.StartTime,
		change.Subject,
		change.Teacher,
		change.SubmittedBy,
		change.Status,
	).Scan(&change.CreatedAt)

	if err != nil {
		return fmt.Errorf("create pending change: %w", err)
	}

	return nil
}

// GetByID fetches one change by id, or nil when it does not exist.
func (r *ChangeRepository) GetByID(ctx context.Context, id string) (*model.PendingChange, error) {
	query := `
		SELECT id, level, day, start_time, subject, teacher, submitted_by, status, created_at, resolved_at
		FROM timetable_changes
		WHERE id = $1
	`

	var change model.PendingChange
	err := r.QueryRow(ctx, query, id).Scan(
		&change.ID,
		&change.Level,
		&change.Day,
		&change.StartTime,
		&change.Subject,
		&change.Teacher,
		&change.SubmittedBy,
		&change.Status,
		&change.CreatedAt,
		&change.ResolvedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending change by id: %w", err)
	}

	return &change, nil
}

// ListPending returns all unresolved changes in submission order, oldest
// first, to drive the review queue.
func (r *ChangeRepository) ListPending(ctx context.Context) ([]*model.PendingChange, error) {
	query := `
		SELECT id, level, day, start_time, subject, teacher, submitted_by, status, created_at, resolved_at
		FROM timetable_changes
		WHERE status = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, model.ChangeStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending changes: %w", err)
	}
	defer rows.Close()

	var changes []*model.PendingChange
	for rows.Next() {
		var change model.PendingChange
		err := rows.Scan(
			&change.ID,
			&change.Level,
			&change.Day,
			&change.StartTime,
			&change.Subject,
			&change.Teacher,
			&change.SubmittedBy,
			&change.Status,
			&change.CreatedAt,
			&change.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending change: %w", err)
		}
		changes = append(changes, &change)
	}

	return changes, nil
}

// Resolve moves a change out of the pending state. The WHERE clause keeps
// resolved changes immutable; resolving twice affects zero rows.
func (r *ChangeRepository) Resolve(ctx context.Context, id, status string) error {
	query := `
		UPDATE timetable_changes
		SET status = $1, resolved_at = now()
		WHERE id = $2 AND status = $3
	`

	affected, err := r.ExecAffected(ctx, query, status, id, model.ChangeStatusPending)
	if err != nil {
		return fmt.Errorf("resolve pending change: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resolve pending change %s: not found or already resolved", id)
	}

	return nil
}
