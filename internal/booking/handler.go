// AngelaMos | 2026
// handler.go

package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/payment"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Put("/{id}", h.UpdateStatus)
	})
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.service.CreatePaymentIntent(r.Context())
	if err != nil {
		message := err.Error()
		var payErr *payment.Error
		if errors.As(err, &payErr) {
			message = payErr.Message
		}
		core.JSON(w, http.StatusBadRequest, PaymentErrorResponse{
			Error: PaymentErrorBody{Message: message},
		})
		return
	}

	core.OK(w, PaymentIntentResponse{ClientSecret: intent.ClientSecret})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	core.OK(w, CreateBookingResponse{
		Success:      true,
		BookingID:    result.Booking.ID,
		TempPassword: result.TempPassword,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.List(r.Context())
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	core.OK(w, ToBookingResponseList(bookings))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "booking")
		case errors.Is(err, ErrInvalidStatus):
			core.BadRequest(w, "Status must be one of pending, confirmed, completed, canceled.")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, UpdateStatusResponse{
		Success: true,
		Booking: ToBookingResponse(b),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}
