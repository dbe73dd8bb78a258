package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/space-booking/internal/booking"
)

// SpaceLister exposes the catalog reads the report service needs.
type SpaceLister interface {
	ListSpaces(ctx context.Context) ([]Space, error)
}

// ReportService computes the read-only derived views shown on the reporting
// screen. Status totals always cover the full collection; the period window
// narrows only the usage figures (most-booked space and occupancy), matching
// the legacy report behavior exactly.
type ReportService struct {
	bookings BookingRepository
	spaces   SpaceLister
	cache    *reportCache
	now      func() time.Time
	logger   *slog.Logger
}

// NewReportService constructs a report service with the provided dependencies.
func NewReportService(bookings BookingRepository, spaces SpaceLister, now func() time.Time) *ReportService {
	return NewReportServiceWithLogger(bookings, spaces, now, nil)
}

// NewReportServiceWithLogger constructs a report service with a specified logger.
func NewReportServiceWithLogger(bookings BookingRepository, spaces SpaceLister, now func() time.Time, logger *slog.Logger) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		bookings: bookings,
		spaces:   spaces,
		cache:    newReportCache(30*time.Second, 16, now),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *ReportService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReportService", operation, attrs...)
}

// InvalidateCache drops memoized summaries, forcing the next call to recompute.
func (s *ReportService) InvalidateCache() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// Summary aggregates booking figures for administrators.
func (s *ReportService) Summary(ctx context.Context, principal Principal, period ReportPeriod) (report Report, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Summary",
		"principal_id", principal.UserID,
		"period", string(period),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "report built")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	if period == "" {
		period = PeriodAll
	}
	if !period.Valid() {
		vErr := &ValidationError{}
		vErr.add("period", "period must be all, week, month, or year")
		err = vErr
		return
	}

	if cached, ok := s.cache.Get(period); ok {
		report = cached
		return
	}

	var all []Booking
	all, err = s.bookings.ListBookings(ctx, BookingRepositoryFilter{})
	if err != nil {
		if isNotFoundError(err) {
			all, err = nil, nil
		} else {
			return
		}
	}

	var spaces []Space
	if s.spaces != nil {
		spaces, err = s.spaces.ListSpaces(ctx)
		if err != nil {
			return
		}
	}

	windowed := filterByPeriod(all, period, s.now())

	report = Report{
		Period:        period,
		Totals:        countByStatus(all),
		MostBooked:    mostBookedSpace(windowed, spaces),
		OccupancyRate: occupancyRate(windowed, len(spaces)),
	}

	s.cache.Store(period, report)
	return
}

// filterByPeriod keeps bookings starting within the trailing window ending at
// reference. PeriodAll keeps everything.
func filterByPeriod(bookings []Booking, period ReportPeriod, reference time.Time) []Booking {
	if period == PeriodAll {
		return bookings
	}

	var cutoff time.Time
	switch period {
	case PeriodWeek:
		cutoff = reference.AddDate(0, 0, -7)
	case PeriodMonth:
		cutoff = reference.AddDate(0, -1, 0)
	case PeriodYear:
		cutoff = reference.AddDate(-1, 0, 0)
	default:
		return bookings
	}

	filtered := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Start.IsZero() {
			continue
		}
		if !b.Start.Before(cutoff) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

func countByStatus(bookings []Booking) StatusTotals {
	totals := StatusTotals{Total: len(bookings)}
	for _, b := range bookings {
		switch b.Status {
		case booking.StatusPending:
			totals.Pending++
		case booking.StatusConfirmed:
			totals.Confirmed++
		case booking.StatusCancelled:
			totals.Cancelled++
		}
	}
	return totals
}

// mostBookedSpace returns the space with the highest booking frequency in the
// window, ties broken by space id for determinism. The space pointer is nil
// when the winning id no longer resolves to a catalog entry.
func mostBookedSpace(bookings []Booking, spaces []Space) *SpaceUsage {
	counts := make(map[string]int)
	for _, b := range bookings {
		if b.SpaceID == "" {
			continue
		}
		counts[b.SpaceID]++
	}
	if len(counts) == 0 {
		return nil
	}

	var topID string
	topCount := -1
	for id, count := range counts {
		if count > topCount || (count == topCount && id < topID) {
			topID = id
			topCount = count
		}
	}

	usage := &SpaceUsage{SpaceID: topID, Count: topCount}
	for i := range spaces {
		if spaces[i].ID == topID {
			space := spaces[i]
			usage.Space = &space
			break
		}
	}
	return usage
}

// occupancyRate is confirmed bookings over space count as a percentage with
// one decimal. A crude presentation ratio, preserved as-is for report parity.
func occupancyRate(bookings []Booking, spaceCount int) float64 {
	if spaceCount == 0 {
		return 0
	}
	confirmed := 0
	for _, b := range bookings {
		if b.Status == booking.StatusConfirmed {
			confirmed++
		}
	}
	rate := float64(confirmed) / float64(spaceCount) * 100
	return math.Round(rate*10) / 10
}
