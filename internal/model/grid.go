package model

import "fmt"

// Times is the ordered set of teaching periods. Every slot and proposal
// addresses one of these labels; anything else is rejected at validation.
var Times = []string{
	"8:00",
	"9:00",
	"10:00",
	"11:00",
	"12:00",
	"13:00",
	"14:00",
	"15:00",
	"16:00",
}

// Days is the ordered set of weekday columns.
var Days = []string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
}

// Levels is the set of academic levels, each with its own grid.
var Levels = []string{
	"100 Level",
	"200 Level",
	"300 Level",
	"400 Level",
	"500 Level",
}

// Cell identifies one grid position within a level's timetable.
type Cell struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
}

func (c Cell) String() string {
	return c.Day + " " + c.StartTime
}

// Editable class fields
const (
	FieldSubject = "subject"
	FieldTeacher = "teacher"
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidateLevel checks that level belongs to the fixed level set.
func ValidateLevel(level string) error {
	if !contains(Levels, level) {
		return fmt.Errorf("unknown level %q", level)
	}
	return nil
}

// ValidateCell checks that day and startTime belong to the fixed grid.
func ValidateCell(day, startTime string) error {
	if !contains(Days, day) {
		return fmt.Errorf("unknown day %q", day)
	}
	if !contains(Times, startTime) {
		return fmt.Errorf("unknown start time %q", startTime)
	}
	return nil
}

// ValidateField checks that field names an editable class attribute.
func ValidateField(field string) error {
	if field != FieldSubject && field != FieldTeacher {
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}
