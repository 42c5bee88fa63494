package service

import (
	"sync"

	"github.com/akinfemi/timetable/internal/model"
)

// EditAccumulator is the sparse overlay of unsaved edits for one editing
// session, keyed startTime → day → field. It never touches durable storage;
// a commit drains it and dispatches the result.
type EditAccumulator struct {
	mu    sync.Mutex
	edits map[string]map[string]map[string]string
}

func NewEditAccumulator() *EditAccumulator {
	return &EditAccumulator{
		edits: make(map[string]map[string]map[string]string),
	}
}

// RecordEdit stores one field edit, overwriting any earlier value for the
// same (startTime, day, field). Field names are not validated here; the
// commit path validates the whole batch.
func (a *EditAccumulator) RecordEdit(startTime, day, field, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	days, ok := a.edits[startTime]
	if !ok {
		days = make(map[string]map[string]string)
		a.edits[startTime] = days
	}
	fields, ok := days[day]
	if !ok {
		fields = make(map[string]string)
		days[day] = fields
	}
	fields[field] = value
}

// IsEmpty reports whether any edit has been recorded since the last drain.
func (a *EditAccumulator) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.edits) == 0
}

// Drain flattens the overlay into one CellChange per touched cell, in grid
// order, and clears the accumulator. Draining an empty accumulator returns
// nil and stays a no-op.
func (a *EditAccumulator) Drain() []CellChange {
	a.mu.Lock()
	edits := a.edits
	a.edits = make(map[string]map[string]map[string]string)
	a.mu.Unlock()

	if len(edits) == 0 {
		return nil
	}

	var changes []CellChange
	for _, startTime := range model.Times {
		days, ok := edits[startTime]
		if !ok {
			continue
		}
		for _, day := range model.Days {
			fields, ok := days[day]
			if !ok {
				continue
			}
			changes = append(changes, CellChange{
				Cell:   model.Cell{Day: day, StartTime: startTime},
				Fields: fields,
			})
		}
	}

	// Off-grid coordinates do not land on the sweep above; keep them so
	// the commit path can reject them instead of dropping them silently.
	for startTime, days := range edits {
		for day, fields := range days {
			if model.ValidateCell(day, startTime) == nil {
				continue
			}
			changes = append(changes, CellChange{
				Cell:   model.Cell{Day: day, StartTime: startTime},
				Fields: fields,
			})
		}
	}

	return changes
}

// Restore puts a drained cell back, merging under any edits recorded since
// the drain. Used after a partial write so only failed cells survive.
func (a *EditAccumulator) Restore(change CellChange) {
	a.mu.Lock()
	defer a.mu.Unlock()

	days, ok := a.edits[change.Cell.StartTime]
	if !ok {
		days = make(map[string]map[string]string)
		a.edits[change.Cell.StartTime] = days
	}
	fields, ok := days[change.Cell.Day]
	if !ok {
		fields = make(map[string]string)
		days[change.Cell.Day] = fields
	}
	for field, value := range change.Fields {
		if _, exists := fields[field]; !exists {
			fields[field] = value
		}
	}
}
