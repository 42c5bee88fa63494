package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akinfemi/timetable/internal/model"
)

// fakeSlotStore is an in-memory SlotStore. Methods are mutex-guarded
// because the engine dispatches cell operations concurrently.
type fakeSlotStore struct {
	mu      sync.Mutex
	nextID  int
	slots   map[string]*model.ScheduleSlot
	creates int
	updates int

	failCreate map[model.Cell]error
	failUpdate map[string]error
	failFetch  error
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{
		slots:      make(map[string]*model.ScheduleSlot),
		failCreate: make(map[model.Cell]error),
		failUpdate: make(map[string]error),
	}
}

func (f *fakeSlotStore) seed(level, day, startTime, subject, teacher string) *model.ScheduleSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	slot := &model.ScheduleSlot{
		ID:        fmt.Sprintf("slot-%d", f.nextID),
		Level:     level,
		Day:       day,
		StartTime: startTime,
		Subject:   subject,
		Teacher:   teacher,
		CreatedAt: time.Now(),
	}
	f.slots[slot.ID] = slot
	return slot
}

func (f *fakeSlotStore) GetByLevel(_ context.Context, level string) ([]*model.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	var out []*model.ScheduleSlot
	for _, s := range f.slots {
		if s.Level == level {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) GetByCell(_ context.Context, level, day, startTime string) (*model.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.Level == level && s.Day == day && s.StartTime == startTime {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSlotStore) Create(_ context.Context, slot *model.ScheduleSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failCreate[slot.Cell()]; err != nil {
		return err
	}
	for _, s := range f.slots {
		if s.Level == slot.Level && s.Day == slot.Day && s.StartTime == slot.StartTime {
			return fmt.Errorf("duplicate cell %s", slot.Cell())
		}
	}
	f.nextID++
	slot.ID = fmt.Sprintf("slot-%d", f.nextID)
	slot.CreatedAt = time.Now()
	copied := *slot
	f.slots[slot.ID] = &copied
	f.creates++
	return nil
}

func (f *fakeSlotStore) UpdateFields(_ context.Context, id string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdate[id]; err != nil {
		return err
	}
	slot, ok := f.slots[id]
	if !ok {
		return fmt.Errorf("slot %s not found", id)
	}
	if v, ok := fields[model.FieldSubject]; ok {
		slot.Subject = v
	}
	if v, ok := fields[model.FieldTeacher]; ok {
		slot.Teacher = v
	}
	f.updates++
	return nil
}

func (f *fakeSlotStore) byCell(level, day, startTime string) *model.ScheduleSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.Level == level && s.Day == day && s.StartTime == startTime {
			return s
		}
	}
	return nil
}

func (f *fakeSlotStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slots)
}

// fakeChangeStore is an in-memory ChangeStore preserving submission order.
type fakeChangeStore struct {
	mu      sync.Mutex
	nextID  int
	order   []string
	changes map[string]*model.PendingChange

	failCreate map[model.Cell]error
	failList   error
}

func newFakeChangeStore() *fakeChangeStore {
	return &fakeChangeStore{
		changes:    make(map[string]*model.PendingChange),
		failCreate: make(map[model.Cell]error),
	}
}

func (f *fakeChangeStore) Create(_ context.Context, change *model.PendingChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failCreate[change.Cell()]; err != nil {
		return err
	}
	f.nextID++
	change.ID = fmt.Sprintf("change-%d", f.nextID)
	change.CreatedAt = time.Now()
	copied := *change
	f.changes[change.ID] = &copied
	f.order = append(f.order, change.ID)
	return nil
}

func (f *fakeChangeStore) GetByID(_ context.Context, id string) (*model.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	change, ok := f.changes[id]
	if !ok {
		return nil, nil
	}
	copied := *change
	return &copied, nil
}

func (f *fakeChangeStore) ListPending(_ context.Context) ([]*model.PendingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []*model.PendingChange
	for _, id := range f.order {
		if c := f.changes[id]; c.IsPending() {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeChangeStore) Resolve(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	change, ok := f.changes[id]
	if !ok || !change.IsPending() {
		return fmt.Errorf("resolve pending change %s: not found or already resolved", id)
	}
	now := time.Now()
	change.Status = status
	change.ResolvedAt = &now
	return nil
}

func (f *fakeChangeStore) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.changes {
		if c.IsPending() {
			n++
		}
	}
	return n
}
