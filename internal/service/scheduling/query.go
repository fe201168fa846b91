package scheduling

import (
	"context"
	"time"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QueryEngine serves filtered, sorted, paginated appointment listings.
// It normalizes the caller's query before touching storage so the
// repository only ever sees sane page bounds and known sort keys.
type QueryEngine struct {
	repo    repository.AppointmentRepository
	metrics *metrics.Metrics
}

func NewQueryEngine(repo repository.AppointmentRepository, m *metrics.Metrics) *QueryEngine {
	return &QueryEngine{repo: repo, metrics: m}
}

// Query returns one page of the filtered set. TotalCount on the result
// is always the unpaginated filtered count, so callers can compute the
// page count on any page.
func (e *QueryEngine) Query(ctx context.Context, q *model.AppointmentQuery) (*model.AppointmentPage, error) {
	normalized := normalizeQuery(q)

	start := time.Now()
	items, total, err := e.repo.Query(ctx, normalized)
	if e.metrics != nil {
		e.metrics.QueryLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	return &model.AppointmentPage{
		Items:      items,
		Page:       normalized.Page,
		PageSize:   normalized.PageSize,
		TotalCount: total,
	}, nil
}

// normalizeQuery clamps pagination, resolves the sort key against the
// closed enum, and normalizes every timestamp filter. An unknown sort
// key falls back to appointment time descending rather than erroring.
func normalizeQuery(q *model.AppointmentQuery) *model.AppointmentQuery {
	n := *q

	if n.Page < 1 {
		n.Page = 1
	}
	if n.PageSize < 1 {
		n.PageSize = DefaultPageSize
	}
	if n.PageSize > MaxPageSize {
		n.PageSize = MaxPageSize
	}

	if !n.SortBy.Valid() {
		n.SortBy = model.SortByAppointmentTime
		n.SortDir = model.SortDesc
	} else if n.SortDir != model.SortAsc && n.SortDir != model.SortDesc {
		n.SortDir = model.SortAsc
	}

	n.From = normalizeBound(n.From)
	n.To = normalizeBound(n.To)
	n.CreatedFrom = utcBound(n.CreatedFrom)
	n.CreatedTo = utcBound(n.CreatedTo)

	return &n
}

func normalizeBound(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := model.NormalizeInstant(*t)
	return &normalized
}

func utcBound(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
