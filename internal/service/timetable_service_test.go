package service

import (
	"context"
	"errors"
	"testing"

	"github.com/akinfemi/timetable/internal/model"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*TimetableService, *fakeSlotStore, *fakeChangeStore) {
	t.Helper()
	slots := newFakeSlotStore()
	changes := newFakeChangeStore()
	return NewTimetableService(slots, changes, zap.NewNop()), slots, changes
}

func loadedSession(t *testing.T, svc *TimetableService, level string) *Session {
	t.Helper()
	sess := newSession(level)
	if _, err := svc.LoadLevel(context.Background(), sess); err != nil {
		t.Fatalf("load level: %v", err)
	}
	return sess
}

var (
	dean     = model.Identity{UserID: "dean-1", Role: model.RoleDean}
	hod      = model.Identity{UserID: "hod-1", Role: model.RoleHOD}
	lecturer = model.Identity{UserID: "lect-1", Role: model.RoleLecturer}
)

func TestCommitUpdatesExistingSlotWithoutDuplicate(t *testing.T) {
	svc, slots, _ := newTestService(t)
	seeded := slots.seed("100 Level", "Monday", "9:00", "Maths", "Dr. Ade")

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")

	result, err := svc.Commit(context.Background(), sess, dean)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Mode != CommitModeDirect || result.Updated != 1 || result.Created != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if slots.count() != 1 {
		t.Fatalf("expected 1 slot, got %d", slots.count())
	}
	got := slots.byCell("100 Level", "Monday", "9:00")
	if got.ID != seeded.ID {
		t.Fatalf("expected id %s preserved, got %s", seeded.ID, got.ID)
	}
	if got.Subject != "Physics" {
		t.Fatalf("expected subject updated, got %q", got.Subject)
	}
	if got.Teacher != "Dr. Ade" {
		t.Fatalf("untouched field changed: %q", got.Teacher)
	}
}

func TestCommitCreatesSlotForEmptyCell(t *testing.T) {
	svc, slots, _ := newTestService(t)

	sess := loadedSession(t, svc, "200 Level")
	sess.Acc.RecordEdit("10:00", "Tuesday", model.FieldSubject, "Chemistry")

	result, err := svc.Commit(context.Background(), sess, hod)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Created != 1 || result.Updated != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	got := slots.byCell("200 Level", "Tuesday", "10:00")
	if got == nil {
		t.Fatalf("slot was not created")
	}
	if got.Subject != "Chemistry" {
		t.Fatalf("expected subject Chemistry, got %q", got.Subject)
	}
	if got.Teacher != "" {
		t.Fatalf("unedited field should stay empty, got %q", got.Teacher)
	}
	if got.Level != "200 Level" {
		t.Fatalf("expected active level carried, got %q", got.Level)
	}
}

func TestLecturerCommitProducesProposalsOnly(t *testing.T) {
	svc, slots, changes := newTestService(t)
	slots.seed("100 Level", "Monday", "9:00", "Maths", "Dr. Ade")

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")
	sess.Acc.RecordEdit("11:00", "Friday", model.FieldTeacher, "Prof. Bello")

	result, err := svc.Commit(context.Background(), sess, lecturer)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Mode != CommitModeProposed || result.Submitted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if slots.updates != 0 || slots.creates != 0 {
		t.Fatalf("lecturer commit mutated slots: %d updates, %d creates", slots.updates, slots.creates)
	}
	if got := slots.byCell("100 Level", "Monday", "9:00"); got.Subject != "Maths" {
		t.Fatalf("canonical slot changed: %q", got.Subject)
	}

	pending, err := changes.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending changes, got %d", len(pending))
	}
	for _, p := range pending {
		if p.Status != model.ChangeStatusPending {
			t.Fatalf("expected pending status, got %q", p.Status)
		}
		if p.SubmittedBy != lecturer.UserID {
			t.Fatalf("expected submitted_by %q, got %q", lecturer.UserID, p.SubmittedBy)
		}
	}
	first := pending[0]
	if first.Day != "Monday" || first.StartTime != "9:00" || *first.Subject != "Physics" {
		t.Fatalf("unexpected proposal: %+v", first)
	}
	if first.Teacher != nil {
		t.Fatalf("untouched field should be nil, got %v", *first.Teacher)
	}
}

func TestCommitEmptyAccumulatorFailsWithNoChanges(t *testing.T) {
	svc, slots, _ := newTestService(t)
	slots.seed("100 Level", "Monday", "9:00", "Maths", "Dr. Ade")

	sess := loadedSession(t, svc, "100 Level")
	before := len(sess.Snapshot())

	_, err := svc.Commit(context.Background(), sess, dean)
	if !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if !sess.Acc.IsEmpty() {
		t.Fatalf("accumulator should stay empty")
	}
	if len(sess.Snapshot()) != before {
		t.Fatalf("snapshot changed on failed commit")
	}
}

func TestCommitRejectsUnauthorizedRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")

	_, err := svc.Commit(context.Background(), sess, model.Identity{UserID: "x", Role: model.RoleUnauthorized})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.Acc.IsEmpty() {
		t.Fatalf("edits must survive a rejected commit")
	}
}

func TestPartialFailureKeepsOnlyFailedCells(t *testing.T) {
	svc, slots, _ := newTestService(t)
	seeded := slots.seed("100 Level", "Monday", "9:00", "Maths", "Dr. Ade")
	slots.failCreate[model.Cell{Day: "Tuesday", StartTime: "10:00"}] = errors.New("store unavailable")

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")
	sess.Acc.RecordEdit("10:00", "Tuesday", model.FieldSubject, "Biology")

	_, err := svc.Commit(context.Background(), sess, dean)
	var partial *PartialWriteError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialWriteError, got %v", err)
	}
	if partial.Applied != 1 || len(partial.Failures) != 1 {
		t.Fatalf("unexpected partial error: %+v", partial)
	}
	failed := partial.Failures[0].Cell
	if failed.Day != "Tuesday" || failed.StartTime != "10:00" {
		t.Fatalf("wrong failed cell: %v", failed)
	}

	// The applied cell stays applied.
	if got := slots.byCell("100 Level", "Monday", "9:00"); got.Subject != "Physics" || got.ID != seeded.ID {
		t.Fatalf("applied update lost: %+v", got)
	}

	// Only the failed cell survives in the accumulator.
	retained := sess.Acc.Drain()
	if len(retained) != 1 {
		t.Fatalf("expected 1 retained cell, got %d", len(retained))
	}
	if retained[0].Cell != (model.Cell{Day: "Tuesday", StartTime: "10:00"}) {
		t.Fatalf("wrong retained cell: %v", retained[0].Cell)
	}
	if retained[0].Fields[model.FieldSubject] != "Biology" {
		t.Fatalf("retained fields lost: %v", retained[0].Fields)
	}
}

func TestCommitRefreshesSnapshot(t *testing.T) {
	svc, slots, _ := newTestService(t)

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")

	result, err := svc.Commit(context.Background(), sess, dean)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(result.Slots) != 1 {
		t.Fatalf("expected refreshed slots in result, got %d", len(result.Slots))
	}
	if len(sess.Snapshot()) != 1 {
		t.Fatalf("session snapshot not refreshed")
	}

	// A second commit against the same cell must update, not duplicate.
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldTeacher, "Dr. Obi")
	if _, err := svc.Commit(context.Background(), sess, dean); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if slots.count() != 1 {
		t.Fatalf("duplicate slot created: %d", slots.count())
	}
	got := slots.byCell("100 Level", "Monday", "9:00")
	if got.Subject != "Physics" || got.Teacher != "Dr. Obi" {
		t.Fatalf("merge across commits broken: %+v", got)
	}
}

func TestCommitRejectsOffGridEdits(t *testing.T) {
	svc, _, changes := newTestService(t)

	sess := loadedSession(t, svc, "100 Level")
	sess.Acc.RecordEdit("9:00", "Sunday", model.FieldSubject, "Physics")

	_, err := svc.Commit(context.Background(), sess, lecturer)
	if !errors.Is(err, ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit, got %v", err)
	}
	if changes.pendingCount() != 0 {
		t.Fatalf("invalid edit produced a proposal")
	}
	if sess.Acc.IsEmpty() {
		t.Fatalf("edits must survive a rejected commit")
	}
}

func TestCommitLoadsSnapshotWhenMissing(t *testing.T) {
	svc, slots, _ := newTestService(t)
	seeded := slots.seed("100 Level", "Monday", "9:00", "Maths", "Dr. Ade")

	// No prior LoadLevel: the engine fetches the baseline itself.
	sess := newSession("100 Level")
	sess.Acc.RecordEdit("9:00", "Monday", model.FieldSubject, "Physics")

	if _, err := svc.Commit(context.Background(), sess, dean); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if slots.count() != 1 {
		t.Fatalf("expected update of the seeded slot, got %d slots", slots.count())
	}
	if got := slots.byCell("100 Level", "Monday", "9:00"); got.ID != seeded.ID {
		t.Fatalf("slot id changed: %s", got.ID)
	}
}
