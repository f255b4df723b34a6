// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/queries/statsqueries"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
)

// Handler serves the dashboard and the admin reports.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	Users *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Users: userstore.New(db)}
}

type dashboardResponse struct {
	statsqueries.DashboardCounts
	DistrictStats  []statsqueries.BucketCount `json:"districtStats"`
	DivisionStats  []statsqueries.BucketCount `json:"divisionStats"`
	MovementTrends []statsqueries.TrendPoint  `json:"movementTrends"`
}

// ServeDashboard returns the role-scoped dashboard: headline counts,
// district and division breakdowns, and a dense trend series for the
// requested timeframe (7 days, 12 months or 5 years, zero-filled).
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	uid, err := su.ObjectID()
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = statsqueries.TimeframeDaily
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	scope := statsqueries.Scope{UserID: uid, Role: su.Role}
	if roles.IsSupervisor(su.Role) {
		reports, err := h.Users.IDsBySupervisor(ctx, uid)
		if err != nil {
			h.Log.Error("direct report lookup failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to load stats")
			return
		}
		scope.DirectReports = reports
	}

	counts, err := statsqueries.Dashboard(ctx, h.DB, scope)
	if err != nil {
		h.Log.Error("dashboard counts failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	districts, err := statsqueries.DistrictCounts(ctx, h.DB)
	if err != nil {
		h.Log.Error("district stats failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	divisions, err := statsqueries.DivisionCounts(ctx, h.DB)
	if err != nil {
		h.Log.Error("division stats failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	raw, err := statsqueries.RawTrend(ctx, h.DB, timeframe)
	if err != nil {
		h.Log.Error("trend query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	httpjson.OK(w, dashboardResponse{
		DashboardCounts: counts,
		DistrictStats:   districts,
		DivisionStats:   divisions,
		MovementTrends:  statsqueries.FillTrend(raw, timeframe, time.Now()),
	})
}

type overviewResponse struct {
	TotalMovements     int64 `json:"totalMovements"`
	ActiveUsers        int64 `json:"activeUsers"`
	PendingApprovals   int64 `json:"pendingApprovals"`
	CompletedMovements int64 `json:"completedMovements"`
}

// ServeOverview returns the unscoped totals for the reports screen.
// Active users means distinct movement submitters.
func (h *Handler) ServeOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mcol := h.DB.Collection("movements")
	var out overviewResponse
	var err error

	if out.TotalMovements, err = mcol.CountDocuments(ctx, bson.M{}); err != nil {
		h.Log.Error("report totals failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	submitters, err := mcol.Distinct(ctx, "staff_id", bson.M{})
	if err != nil {
		h.Log.Error("distinct submitters failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	out.ActiveUsers = int64(len(submitters))
	if out.PendingApprovals, err = mcol.CountDocuments(ctx, bson.M{"status": "pending"}); err != nil {
		h.Log.Error("pending count failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	if out.CompletedMovements, err = mcol.CountDocuments(ctx, bson.M{"status": "approved"}); err != nil {
		h.Log.Error("approved count failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	httpjson.OK(w, out)
}

// ServeByDivision returns movement counts grouped by division.
func (h *Handler) ServeByDivision(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := statsqueries.DivisionCounts(ctx, h.DB)
	if err != nil {
		h.Log.Error("by-division report failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	httpjson.OK(w, data)
}

// ServeOverTime returns bucketed movement counts, oldest first.
func (h *Handler) ServeOverTime(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := statsqueries.OverTime(ctx, h.DB, r.URL.Query().Get("range"))
	if err != nil {
		h.Log.Error("over-time report failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	httpjson.OK(w, data)
}

// ServeTopUsers returns the five busiest submitters.
func (h *Handler) ServeTopUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := statsqueries.TopUsers(ctx, h.DB, 5)
	if err != nil {
		h.Log.Error("top-users report failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	httpjson.OK(w, data)
}
