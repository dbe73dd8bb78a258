package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/space-booking/internal/application"
	"github.com/example/space-booking/internal/booking"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	TransitionBooking(ctx context.Context, params application.TransitionBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
	ListBookingsForDay(ctx context.Context, params application.DaySchedule) ([]application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	location  *time.Location
	responder responder
}

// NewBookingHandler builds the handler for the reservation endpoints.
// location resolves date-only agenda queries to a calendar day; nil means the
// server's local zone.
func NewBookingHandler(service bookingService, location *time.Location, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, location: location, responder: newResponder(logger)}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(created)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	record, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(record)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req bookingPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	updated, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(updated)})
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	updated, err := h.service.TransitionBooking(r.Context(), application.TransitionBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Action:    booking.Action(strings.TrimSpace(strings.ToLower(req.Action))),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(updated)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	records, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal:   principal,
		SpaceID:     strings.TrimSpace(query.Get("space_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
		Status:      booking.Status(strings.TrimSpace(strings.ToLower(query.Get("status")))),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(records)})
}

// Agenda serves the day view: every booking intersecting one calendar day,
// optionally narrowed to a single space.
func (h *BookingHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	records, err := h.service.ListBookingsForDay(r.Context(), application.DaySchedule{
		Principal: principal,
		Date:      strings.TrimSpace(query.Get("date")),
		SpaceID:   strings.TrimSpace(query.Get("space_id")),
		Location:  h.location,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(records)})
}

type bookingRequest struct {
	SpaceID     string `json:"space_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Notes       string `json:"notes"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		SpaceID:     strings.TrimSpace(r.SpaceID),
		RequesterID: strings.TrimSpace(r.RequesterID),
		Start:       parseTime(r.Start),
		End:         parseTime(r.End),
		Notes:       r.Notes,
	}
}

type bookingPatchRequest struct {
	SpaceID *string `json:"space_id"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
	Notes   *string `json:"notes"`
}

func (r bookingPatchRequest) toPatch() (application.BookingPatch, error) {
	patch := application.BookingPatch{
		SpaceID: r.SpaceID,
		Notes:   r.Notes,
	}
	if r.Start != nil {
		ts, err := parseTimeStrict(*r.Start)
		if err != nil {
			return application.BookingPatch{}, err
		}
		patch.Start = &ts
	}
	if r.End != nil {
		ts, err := parseTimeStrict(*r.End)
		if err != nil {
			return application.BookingPatch{}, err
		}
		patch.End = &ts
	}
	return patch, nil
}

// parseTime is lenient: a blank or malformed timestamp becomes the zero
// time, which the services reject with a field error of their own.
func parseTime(value string) time.Time {
	ts, err := parseTimeStrict(value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func parseTimeStrict(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errInvalidTimestamp
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, errInvalidTimestamp
}

type transitionRequest struct {
	Action string `json:"action"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID          string `json:"id"`
	SpaceID     string `json:"space_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func toBookingDTO(record application.Booking) bookingDTO {
	dto := bookingDTO{
		ID:          record.ID,
		SpaceID:     record.SpaceID,
		RequesterID: record.RequesterID,
		Start:       record.Start.UTC().Format(time.RFC3339Nano),
		End:         record.End.UTC().Format(time.RFC3339Nano),
		Status:      string(record.Status),
		Notes:       record.Notes,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if record.UpdatedAt != nil {
		dto.UpdatedAt = record.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toBookingDTOs(records []application.Booking) []bookingDTO {
	if len(records) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toBookingDTO(record))
	}
	return out
}
