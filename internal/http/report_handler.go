package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/space-booking/internal/application"
)

type reportService interface {
	Summary(ctx context.Context, principal application.Principal, period application.ReportPeriod) (application.Report, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: service, responder: newResponder(logger)}
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	period := application.ReportPeriod(strings.TrimSpace(strings.ToLower(r.URL.Query().Get("period"))))

	report, err := h.service.Summary(r.Context(), principal, period)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReportDTO(report))
}

type reportDTO struct {
	Period        string          `json:"period"`
	Totals        statusTotalsDTO `json:"totals"`
	MostBooked    *spaceUsageDTO  `json:"most_booked,omitempty"`
	OccupancyRate float64         `json:"occupancy_rate"`
}

type statusTotalsDTO struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

type spaceUsageDTO struct {
	SpaceID string    `json:"space_id"`
	Space   *spaceDTO `json:"space,omitempty"`
	Count   int       `json:"count"`
}

func toReportDTO(report application.Report) reportDTO {
	dto := reportDTO{
		Period: string(report.Period),
		Totals: statusTotalsDTO{
			Total:     report.Totals.Total,
			Pending:   report.Totals.Pending,
			Confirmed: report.Totals.Confirmed,
			Cancelled: report.Totals.Cancelled,
		},
		OccupancyRate: report.OccupancyRate,
	}
	if report.MostBooked != nil {
		usage := spaceUsageDTO{
			SpaceID: report.MostBooked.SpaceID,
			Count:   report.MostBooked.Count,
		}
		if report.MostBooked.Space != nil {
			space := toSpaceDTO(*report.MostBooked.Space)
			usage.Space = &space
		}
		dto.MostBooked = &usage
	}
	return dto
}
