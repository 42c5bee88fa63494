package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akinfemi/timetable/internal/model"
)

// Shared errors for the timetable services
var (
	ErrNoChanges       = errors.New("no changes to save")
	ErrInvalidEdit     = errors.New("edit is outside the timetable grid")
	ErrUnauthorized    = errors.New("role is not permitted to edit the timetable")
	ErrChangeNotFound  = errors.New("pending change not found")
	ErrAlreadyResolved = errors.New("pending change is already resolved")
)

// CellFailure records one per-cell operation that failed during a commit.
type CellFailure struct {
	Cell model.Cell
	Err  error
}

// PartialWriteError reports a commit batch in which at least one per-cell
// operation failed. Applied operations are not rolled back; the failed
// cells are restored into the accumulator so the caller can retry them
// without re-submitting what already landed.
type PartialWriteError struct {
	Applied  int
	Failures []CellFailure
}

func (e *PartialWriteError) Error() string {
	cells := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		cells[i] = f.Cell.String()
	}
	return fmt.Sprintf("commit applied %d operation(s), %d failed: %s",
		e.Applied, len(e.Failures), strings.Join(cells, ", "))
}

// SlotMergeError reports an approval whose slot merge failed. The pending
// change keeps its pending status so the review can be retried.
type SlotMergeError struct {
	ChangeID string
	Cell     model.Cell
	Err      error
}

func (e *SlotMergeError) Error() string {
	return fmt.Sprintf("approve change %s: merge into slot %s failed: %v",
		e.ChangeID, e.Cell, e.Err)
}

func (e *SlotMergeError) Unwrap() error {
	return e.Err
}
