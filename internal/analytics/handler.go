package analytics

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/confera/backend/pkg/response"
)

// Handler handles GET /analytics (admin dashboard counters).
type Handler struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(pool *pgxpool.Pool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pool: pool, logger: logger}
}

// SummaryResponse is the JSON shape for the admin dashboard.
type SummaryResponse struct {
	TotalRegistrations int            `json:"total_registrations"`
	ByStatus           map[string]int `json:"by_status"`
	ByPaymentStatus    map[string]int `json:"by_payment_status"`
	ByTrack            map[string]int `json:"by_track"`
	TotalAttended      int            `json:"total_attended"`
	TotalRevenue       int            `json:"total_revenue"`
}

// Summary handles GET /analytics.
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	out := SummaryResponse{
		ByStatus:        map[string]int{},
		ByPaymentStatus: map[string]int{},
		ByTrack:         map[string]int{},
	}

	byStatus, err := h.countGroups(ctx, `SELECT status, COUNT(*) FROM registrations GROUP BY status`)
	if err != nil {
		h.logger.Error("status counts failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	for k, v := range byStatus {
		out.ByStatus[k] = v
		out.TotalRegistrations += v
	}

	out.ByPaymentStatus, err = h.countGroups(ctx,
		`SELECT payment_status, COUNT(*) FROM registrations GROUP BY payment_status`)
	if err != nil {
		h.logger.Error("payment counts failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}

	out.ByTrack, err = h.countGroups(ctx, `
		SELECT COALESCE(NULLIF(paper_details->>'track',''), 'unassigned'), COUNT(*)
		FROM registrations GROUP BY 1`)
	if err != nil {
		h.logger.Error("track counts failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}

	err = h.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE attended), COALESCE(SUM(amount_paid), 0) FROM registrations`).
		Scan(&out.TotalAttended, &out.TotalRevenue)
	if err != nil {
		h.logger.Error("attendance and revenue counts failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}

	response.OK(c, out)
}

func (h *Handler) countGroups(ctx context.Context, query string) (map[string]int, error) {
	rows, err := h.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
