package domain

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleAttendee  Role = "attendee"
	RoleOrganizer Role = "organizer"
)

// ParseRole validates a free-form role string case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case string(RoleAttendee):
		return RoleAttendee, nil
	case string(RoleOrganizer):
		return RoleOrganizer, nil
	default:
		return "", ErrInvalidRole
	}
}
