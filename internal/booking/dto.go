// AngelaMos | 2026
// dto.go

package booking

import (
	"time"
)

type CreateBookingRequest struct {
	ClientName         string `json:"clientName"         validate:"required,max=200"`
	ClientEmail        string `json:"clientEmail"        validate:"required,email,max=255"`
	ServiceType        string `json:"serviceType"        validate:"required,max=100"`
	SessionFormat      string `json:"sessionFormat"      validate:"max=100"`
	PreferredDate      string `json:"preferredDate"      validate:"max=100"`
	ExperienceLevel    string `json:"experienceLevel"    validate:"max=100"`
	ProjectDescription string `json:"projectDescription" validate:"max=5000"`
	PaymentIntentID    string `json:"paymentIntentId"    validate:"max=255"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateBookingResponse struct {
	Success      bool   `json:"success"`
	BookingID    string `json:"bookingId"`
	TempPassword string `json:"tempPassword"`
}

type UpdateStatusResponse struct {
	Success bool            `json:"success"`
	Booking BookingResponse `json:"booking"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// PaymentErrorResponse keeps the nested shape Stripe.js clients expect.
type PaymentErrorResponse struct {
	Error PaymentErrorBody `json:"error"`
}

type PaymentErrorBody struct {
	Message string `json:"message"`
}

type BookingResponse struct {
	ID                 string    `json:"id"`
	ClientName         string    `json:"clientName"`
	ClientEmail        string    `json:"clientEmail"`
	ServiceType        string    `json:"serviceType"`
	SessionFormat      string    `json:"sessionFormat"`
	PreferredDate      string    `json:"preferredDate"`
	ExperienceLevel    string    `json:"experienceLevel"`
	ProjectDescription string    `json:"projectDescription"`
	Status             string    `json:"status"`
	Price              int       `json:"price"`
	PaymentIntentID    string    `json:"paymentIntentId"`
	DateBooked         time.Time `json:"dateBooked"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		ClientName:         b.ClientName,
		ClientEmail:        b.ClientEmail,
		ServiceType:        b.ServiceType,
		SessionFormat:      b.SessionFormat,
		PreferredDate:      b.PreferredDate,
		ExperienceLevel:    b.ExperienceLevel,
		ProjectDescription: b.ProjectDescription,
		Status:             string(b.Status),
		Price:              b.Price,
		PaymentIntentID:    b.PaymentIntentID,
		DateBooked:         b.CreatedAt,
	}
}

func ToBookingResponseList(bookings []Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, ToBookingResponse(&bookings[i]))
	}
	return out
}
