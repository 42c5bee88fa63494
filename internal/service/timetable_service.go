package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/akinfemi/timetable/internal/model"
	"go.uber.org/zap"
)

// SlotStore is the persistence boundary for schedule slots. The store owns
// the one-slot-per-cell invariant; the engine never re-checks it.
type SlotStore interface {
	GetByLevel(ctx context.Context, level string) ([]*model.ScheduleSlot, error)
	GetByCell(ctx context.Context, level, day, startTime string) (*model.ScheduleSlot, error)
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
}

// ChangeStore is the persistence boundary for pending changes.
type ChangeStore interface {
	Create(ctx context.Context, change *model.PendingChange) error
	GetByID(ctx context.Context, id string) (*model.PendingChange, error)
	ListPending(ctx context.Context) ([]*model.PendingChange, error)
	Resolve(ctx context.Context, id, status string) error
}

// CellChange is one cell's worth of drained edits: the grid coordinates
// plus whichever fields the editor touched.
type CellChange struct {
	Cell   model.Cell
	Fields map[string]string
}

// CommitMode says what a commit produced.
type CommitMode string

const (
	CommitModeDirect   CommitMode = "direct"
	CommitModeProposed CommitMode = "proposed"
)

// CommitResult summarises a successful commit.
type CommitResult struct {
	Mode      CommitMode            `json:"mode"`
	Created   int                   `json:"created"`
	Updated   int                   `json:"updated"`
	Submitted int                   `json:"submitted"`
	Slots     []*model.ScheduleSlot `json:"slots"`
}

// TimetableService is the commit-time reconciliation engine. It diffs the
// drained edit overlay against the session's canonical snapshot and turns
// each touched cell into a direct write or a change proposal, depending on
// the acting role.
//
// The snapshot is not version-checked against the store, so concurrent
// edits by another user resolve last-write-wins.
type TimetableService struct {
	slotStore   SlotStore
	changeStore ChangeStore
	logger      *zap.Logger
}

func NewTimetableService(slotStore SlotStore, changeStore ChangeStore, logger *zap.Logger) *TimetableService {
	return &TimetableService{
		slotStore:   slotStore,
		changeStore: changeStore,
		logger:      logger,
	}
}

// LoadLevel fetches the canonical slot list for the session's level and
// installs it as the diff baseline.
func (s *TimetableService) LoadLevel(ctx context.Context, sess *Session) ([]*model.ScheduleSlot, error) {
	slots, err := s.slotStore.GetByLevel(ctx, sess.Level)
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", sess.Level, err)
	}
	sess.SetSnapshot(slots)
	return slots, nil
}

// Commit drains the session's accumulator and reconciles it against the
// canonical snapshot. Direct-authority roles produce create/update
// operations; proposal-only roles produce pending changes. Per-cell
// operations are dispatched concurrently and the commit waits for all of
// them to settle. On any per-cell failure the failed cells are restored
// into the accumulator and a PartialWriteError is returned; applied cells
// are not rolled back and are not retried.
func (s *TimetableService) Commit(ctx context.Context, sess *Session, identity model.Identity) (*CommitResult, error) {
	if !identity.Role.CanPropose() {
		return nil, ErrUnauthorized
	}
	if sess.Acc.IsEmpty() {
		return nil, ErrNoChanges
	}

	if !sess.Loaded() {
		if _, err := s.LoadLevel(ctx, sess); err != nil {
			return nil, err
		}
	}

	changes := sess.Acc.Drain()
	if len(changes) == 0 {
		return nil, ErrNoChanges
	}

	if err := validateChanges(changes); err != nil {
		for _, change := range changes {
			sess.Acc.Restore(change)
		}
		return nil, err
	}

	var (
		result   *CommitResult
		failures []CellFailure
	)
	if identity.Role.CanWriteDirectly() {
		result, failures = s.commitDirect(ctx, sess, changes)
	} else {
		result, failures = s.commitProposals(ctx, sess, changes, identity)
	}

	if len(failures) > 0 {
		for _, f := range failures {
			s.logger.Error("cell operation failed",
				zap.String("level", sess.Level),
				zap.String("cell", f.Cell.String()),
				zap.Error(f.Err),
			)
		}
		return nil, &PartialWriteError{
			Applied:  len(changes) - len(failures),
			Failures: failures,
		}
	}

	slots, err := s.slotStore.GetByLevel(ctx, sess.Level)
	if err != nil {
		// The commit itself landed; a stale snapshot only degrades the
		// next diff, and the store still rejects duplicate creates.
		s.logger.Warn("refresh after commit failed",
			zap.String("level", sess.Level),
			zap.Error(err),
		)
	} else {
		sess.SetSnapshot(slots)
		result.Slots = slots
	}

	s.logger.Info("Timetable commit",
		zap.String("level", sess.Level),
		zap.String("user_id", identity.UserID),
		zap.String("role", identity.Role.String()),
		zap.String("mode", string(result.Mode)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("submitted", result.Submitted),
	)

	return result, nil
}

// commitDirect applies each cell against the store: an update when the
// snapshot holds a slot for the cell, a create otherwise. Matching is by
// (day, startTime) because new cells have no surrogate id yet.
func (s *TimetableService) commitDirect(ctx context.Context, sess *Session, changes []CellChange) (*CommitResult, []CellFailure) {
	byCell := make(map[model.Cell]*model.ScheduleSlot)
	for _, slot := range sess.Snapshot() {
		byCell[slot.Cell()] = slot
	}

	errs := make([]error, len(changes))
	var wg sync.WaitGroup
	for i, change := range changes {
		wg.Add(1)
		go func(i int, change CellChange, existing *model.ScheduleSlot) {
			defer wg.Done()
			errs[i] = s.applyDirect(ctx, sess.Level, change, existing)
		}(i, change, byCell[change.Cell])
	}
	wg.Wait()

	result := &CommitResult{Mode: CommitModeDirect}
	var failures []CellFailure
	for i, change := range changes {
		if errs[i] != nil {
			sess.Acc.Restore(change)
			failures = append(failures, CellFailure{Cell: change.Cell, Err: errs[i]})
			continue
		}
		if byCell[change.Cell] != nil {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, failures
}

func (s *TimetableService) applyDirect(ctx context.Context, level string, change CellChange, existing *model.ScheduleSlot) error {
	if existing != nil {
		return s.slotStore.UpdateFields(ctx, existing.ID, change.Fields)
	}

	slot := &model.ScheduleSlot{
		Level:     level,
		Day:       change.Cell.Day,
		StartTime: change.Cell.StartTime,
		Subject:   change.Fields[model.FieldSubject],
		Teacher:   change.Fields[model.FieldTeacher],
	}
	return s.slotStore.Create(ctx, slot)
}

// commitProposals submits one pending change per cell. Submissions are
// independent, not a transaction; a partial failure leaves the created
// proposals in place.
func (s *TimetableService) commitProposals(ctx context.Context, sess *Session, changes []CellChange, identity model.Identity) (*CommitResult, []CellFailure) {
	errs := make([]error, len(changes))
	var wg sync.WaitGroup
	for i, change := range changes {
		wg.Add(1)
		go func(i int, change CellChange) {
			defer wg.Done()
			errs[i] = s.submitProposal(ctx, sess.Level, change, identity)
		}(i, change)
	}
	wg.Wait()

	result := &CommitResult{Mode: CommitModeProposed}
	var failures []CellFailure
	for i, change := range changes {
		if errs[i] != nil {
			sess.Acc.Restore(change)
			failures = append(failures, CellFailure{Cell: change.Cell, Err: errs[i]})
			continue
		}
		result.Submitted++
	}
	return result, failures
}

func (s *TimetableService) submitProposal(ctx context.Context, level string, change CellChange, identity model.Identity) error {
	proposal := &model.PendingChange{
		Level:       level,
		Day:         change.Cell.Day,
		StartTime:   change.Cell.StartTime,
		SubmittedBy: identity.UserID,
		Status:      model.ChangeStatusPending,
	}
	if v, ok := change.Fields[model.FieldSubject]; ok {
		subject := v
		proposal.Subject = &subject
	}
	if v, ok := change.Fields[model.FieldTeacher]; ok {
		teacher := v
		proposal.Teacher = &teacher
	}
	return s.changeStore.Create(ctx, proposal)
}

func validateChanges(changes []CellChange) error {
	for _, change := range changes {
		if err := model.ValidateCell(change.Cell.Day, change.Cell.StartTime); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEdit, err)
		}
		for field := range change.Fields {
			if err := model.ValidateField(field); err != nil {
				return fmt.Errorf("%w: cell %s: %v", ErrInvalidEdit, change.Cell, err)
			}
		}
	}
	return nil
}
