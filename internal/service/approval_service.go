package service

import (
	"context"
	"fmt"

	"github.com/akinfemi/timetable/internal/model"
	"go.uber.org/zap"
)

// ApprovalService governs the pending-change lifecycle: pending changes
// are approved (their fields merged into the target slot) or rejected.
// Both outcomes are terminal.
type ApprovalService struct {
	slotStore   SlotStore
	changeStore ChangeStore
	logger      *zap.Logger
}

func NewApprovalService(slotStore SlotStore, changeStore ChangeStore, logger *zap.Logger) *ApprovalService {
	return &ApprovalService{
		slotStore:   slotStore,
		changeStore: changeStore,
		logger:      logger,
	}
}

// ListPending returns the review queue, oldest submission first.
func (s *ApprovalService) ListPending(ctx context.Context, identity model.Identity) ([]*model.PendingChange, error) {
	if !identity.Role.CanReview() {
		return nil, ErrUnauthorized
	}
	return s.changeStore.ListPending(ctx)
}

// Approve merges the proposal's fields into the slot at its target cell,
// creating the slot when the cell is empty, and then marks the proposal
// approved. The slot write happens first: if it fails the proposal stays
// pending and a SlotMergeError is returned, so the review can be retried.
func (s *ApprovalService) Approve(ctx context.Context, changeID string, identity model.Identity) (*model.PendingChange, error) {
	if !identity.Role.CanReview() {
		return nil, ErrUnauthorized
	}

	change, err := s.changeStore.GetByID(ctx, changeID)
	if err != nil {
		return nil, fmt.Errorf("approve change: %w", err)
	}
	if change == nil {
		return nil, ErrChangeNotFound
	}
	if !change.IsPending() {
		return nil, ErrAlreadyResolved
	}

	if err := s.mergeIntoSlot(ctx, change); err != nil {
		return nil, &SlotMergeError{ChangeID: change.ID, Cell: change.Cell(), Err: err}
	}

	if err := s.changeStore.Resolve(ctx, change.ID, model.ChangeStatusApproved); err != nil {
		// Slot write landed but the proposal is still pending; a retried
		// approve re-merges the same fields, which is harmless.
		return nil, fmt.Errorf("approve change %s: %w", change.ID, err)
	}
	change.Status = model.ChangeStatusApproved

	s.logger.Info("Change approved",
		zap.String("change_id", change.ID),
		zap.String("cell", change.Cell().String()),
		zap.String("level", change.Level),
		zap.String("reviewed_by", identity.UserID),
	)

	return change, nil
}

// Reject marks the proposal rejected. No slot is touched.
func (s *ApprovalService) Reject(ctx context.Context, changeID string, identity model.Identity) (*model.PendingChange, error) {
	if !identity.Role.CanReview() {
		return nil, ErrUnauthorized
	}

	change, err := s.changeStore.GetByID(ctx, changeID)
	if err != nil {
		return nil, fmt.Errorf("reject change: %w", err)
	}
	if change == nil {
		return nil, ErrChangeNotFound
	}
	if !change.IsPending() {
		return nil, ErrAlreadyResolved
	}

	if err := s.changeStore.Resolve(ctx, change.ID, model.ChangeStatusRejected); err != nil {
		return nil, fmt.Errorf("reject change %s: %w", change.ID, err)
	}
	change.Status = model.ChangeStatusRejected

	s.logger.Info("Change rejected",
		zap.String("change_id", change.ID),
		zap.String("cell", change.Cell().String()),
		zap.String("reviewed_by", identity.UserID),
	)

	return change, nil
}

// mergeIntoSlot applies the proposal's touched fields to the slot at its
// target cell. The lookup goes to the store, not a session snapshot: the
// reviewer may act long after the proposal was submitted.
func (s *ApprovalService) mergeIntoSlot(ctx context.Context, change *model.PendingChange) error {
	fields := change.Fields()
	if len(fields) == 0 {
		return nil
	}

	slot, err := s.slotStore.GetByCell(ctx, change.Level, change.Day, change.StartTime)
	if err != nil {
		return err
	}

	if slot != nil {
		return s.slotStore.UpdateFields(ctx, slot.ID, fields)
	}

	slot = &model.ScheduleSlot{
		Level:     change.Level,
		Day:       change.Day,
		StartTime: change.StartTime,
		Subject:   fields[model.FieldSubject],
		Teacher:   fields[model.FieldTeacher],
	}
	return s.slotStore.Create(ctx, slot)
}
