package model

import "time"

// PendingChange is a proposed mutation to one timetable cell awaiting review.
// Subject and Teacher are nil when the proposer did not touch that field; a
// nil field is never applied on approval.
type PendingChange struct {
	ID          string     `json:"id"`
	Level       string     `json:"level"`
	Day         string     `json:"day"`
	StartTime   string     `json:"start_time"`
	Subject     *string    `json:"subject"`
	Teacher     *string    `json:"teacher"`
	SubmittedBy string     `json:"submitted_by"`
	Status      string     `json:"status"` // 'pending', 'approved', 'rejected'
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// Change status constants
const (
	ChangeStatusPending  = "pending"
	ChangeStatusApproved = "approved"
	ChangeStatusRejected = "rejected"
)

// IsPending checks if the change still awaits review
func (c *PendingChange) IsPending() bool {
	return c.Status == ChangeStatusPending
}

// IsApproved checks if the change was approved
func (c *PendingChange) IsApproved() bool {
	return c.Status == ChangeStatusApproved
}

// IsRejected checks if the change was rejected
func (c *PendingChange) IsRejected() bool {
	return c.Status == ChangeStatusRejected
}

// Cell returns the change's target coordinates.
func (c *PendingChange) Cell() Cell {
	return Cell{Day: c.Day, StartTime: c.StartTime}
}

// Fields returns the touched fields as a field→value map, the shape the
// store adapters take for partial updates.
func (c *PendingChange) Fields() map[string]string {
	fields := make(map[string]string, 2)
	if c.Subject != nil {
		fields[FieldSubject] = *c.Subject
	}
	if c.Teacher != nil {
		fields[FieldTeacher] = *c.Teacher
	}
	return fields
}
