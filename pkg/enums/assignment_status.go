package enums

import "fmt"

// AssignmentStatus tracks the lifecycle of a vehicle assignment record.
// A record starts as "assigned" and terminates as either "released" or
// "changed"; terminal records never transition again.
type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusReleased AssignmentStatus = "released"
	AssignmentStatusChanged  AssignmentStatus = "changed"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusReleased,
	AssignmentStatusChanged,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether records in this status may never transition.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusReleased || s == AssignmentStatusChanged
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
