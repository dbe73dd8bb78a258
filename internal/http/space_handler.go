package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/space-booking/internal/application"
)

type spaceService interface {
	CreateSpace(ctx context.Context, params application.CreateSpaceParams) (application.Space, error)
	UpdateSpace(ctx context.Context, params application.UpdateSpaceParams) (application.Space, error)
	DeleteSpace(ctx context.Context, principal application.Principal, spaceID string) error
	GetSpace(ctx context.Context, id string) (application.Space, error)
	ListSpaces(ctx context.Context, spaceType string) ([]application.Space, error)
}

type SpaceHandler struct {
	service   spaceService
	responder responder
}

func NewSpaceHandler(service spaceService, logger *slog.Logger) *SpaceHandler {
	return &SpaceHandler{service: service, responder: newResponder(logger)}
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	created, err := h.service.CreateSpace(r.Context(), application.CreateSpaceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, spaceResponse{Space: toSpaceDTO(created)})
}

func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(spaceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	updated, err := h.service.UpdateSpace(r.Context(), application.UpdateSpaceParams{
		Principal: principal,
		SpaceID:   spaceID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(updated)})
}

func (h *SpaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(spaceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSpace(r.Context(), principal, spaceID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(spaceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	record, err := h.service.GetSpace(r.Context(), spaceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(record)})
}

func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	records, err := h.service.ListSpaces(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpacesResponse{Spaces: toSpaceDTOs(records)})
}

type spaceRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
}

func (r spaceRequest) toInput() application.SpaceInput {
	return application.SpaceInput{
		Name:        strings.TrimSpace(r.Name),
		Type:        r.Type,
		Capacity:    r.Capacity,
		Location:    strings.TrimSpace(r.Location),
		Description: r.Description,
		Available:   r.Available,
	}
}

type spaceResponse struct {
	Space spaceDTO `json:"space"`
}

type listSpacesResponse struct {
	Spaces []spaceDTO `json:"spaces"`
}

type spaceDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toSpaceDTO(record application.Space) spaceDTO {
	return spaceDTO{
		ID:          record.ID,
		Name:        record.Name,
		Type:        string(record.Type),
		Capacity:    record.Capacity,
		Location:    record.Location,
		Description: record.Description,
		Available:   record.Available,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSpaceDTOs(records []application.Space) []spaceDTO {
	if len(records) == 0 {
		return nil
	}
	out := make([]spaceDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toSpaceDTO(record))
	}
	return out
}
