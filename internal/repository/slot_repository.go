package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/akinfemi/timetable/internal/model"
	"github.com/akinfemi/timetable/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

// Create persists a new slot. The surrogate id is assigned here if the
// caller did not set one.
func (r *SlotRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}

	query := `
		INSERT INTO timetable (id, level, day, start_time, subject, teacher)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.ID,
		slot.Level,
		slot.Day,
		slot.StartTime,
		slot.Subject,
		slot.Teacher,
	).Scan(&slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByLevel fetches the canonical slot list for one academic level.
func (r *SlotRepository) GetByLevel(ctx context.Context, level string) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT id, level, day, start_time, subject, teacher, created_at
		FROM timetable
		WHERE level = $1
		ORDER BY start_time, day
	`

	rows, err := r.Query(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("get slots by level: %w", err)
	}
	defer rows.Close()

	var slots []*model.ScheduleSlot
	for rows.Next() {
		var slot model.ScheduleSlot
		err := rows.Scan(
			&slot.ID,
			&slot.Level,
			&slot.Day,
			&slot.StartTime,
			&slot.Subject,
			&slot.Teacher,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

// GetByCell fetches the slot occupying one grid cell, or nil if the cell
// is empty.
func (r *SlotRepository) GetByCell(ctx context.Context, level, day, startTime string) (*model.ScheduleSlot, error) {
	query := `
		SELECT id, level, day, start_time, subject, teacher, created_at
		FROM timetable
		WHERE level = $1 AND day = $2 AND start_time = $3
	`

	var slot model.ScheduleSlot
	err := r.QueryRow(ctx, query, level, day, startTime).Scan(
		&slot.ID,
		&slot.Level,
		&slot.Day,
		&slot.StartTime,
		&slot.Subject,
		&slot.Teacher,
		&slot.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by cell: %w", err)
	}

	return &slot, nil
}

// UpdateFields applies a partial update to an existing slot. Only the
// columns named in fields are touched; the rest keep their stored value.
func (r *SlotRepository) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("update slot %s: no fields to update", id)
	}

	set := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	// Field names double as column names; iterate a fixed order so the
	// generated SQL is deterministic.
	for _, field := range []string{model.FieldSubject, model.FieldTeacher} {
		value, ok := fields[field]
		if !ok {
			continue
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	if len(set) != len(fields) {
		return fmt.Errorf("update slot %s: unknown field in update set", id)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE timetable SET %s WHERE id = $%d`,
		strings.Join(set, ", "), len(args),
	)

	affected, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update slot %s: slot not found", id)
	}

	return nil
}
