package models

import (
	"time"

	"github.com/google/uuid"
)

// Session values a registrant can choose.
const (
	SessionMorning = "Morning"
	SessionEvening = "Evening"
)

// Sessions lists the allowed selected_session values.
var Sessions = []string{SessionMorning, SessionEvening}

// IsValidSession reports whether s is an allowed session value (exact match).
func IsValidSession(s string) bool {
	for _, v := range Sessions {
		if s == v {
			return true
		}
	}
	return false
}

// Registration is a single user registration. Records are immutable after
// creation; the only mutations are insert and delete.
type Registration struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Location         string    `json:"location"`
	CourseOfInterest string    `json:"courseOfInterest"`
	SelectedSession  string    `json:"selectedSession"`
	CreatedAt        time.Time `json:"createdAt"`
}
