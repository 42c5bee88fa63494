package model

import "time"

// ScheduleSlot is a scheduled class occupying one grid cell. At most one
// slot exists per (level, day, start_time); the store enforces this with a
// unique index. ID is a surrogate assigned on first persistence.
type ScheduleSlot struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Day       string    `json:"day"`
	StartTime string    `json:"start_time"`
	Subject   string    `json:"subject"`
	Teacher   string    `json:"teacher"`
	CreatedAt time.Time `json:"created_at"`
}

// Cell returns the slot's grid coordinates.
func (s *ScheduleSlot) Cell() Cell {
	return Cell{Day: s.Day, StartTime: s.StartTime}
}
