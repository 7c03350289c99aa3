// AngelaMos | 2026
// entity.go

package booking

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Price is the flat session fee in whole currency units.
const Price = 75

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Booking struct {
	ID                 string    `db:"id"`
	ClientName         string    `db:"client_name"`
	ClientEmail        string    `db:"client_email"`
	ServiceType        string    `db:"service_type"`
	SessionFormat      string    `db:"session_format"`
	PreferredDate      string    `db:"preferred_date"`
	ExperienceLevel    string    `db:"experience_level"`
	ProjectDescription string    `db:"project_description"`
	Status             Status    `db:"status"`
	Price              int       `db:"price"`
	PaymentIntentID    string    `db:"payment_intent_id"`
	CreatedAt          time.Time `db:"created_at"`
}
