// Package statsqueries provides the read-only aggregations behind the
// dashboard and the admin reports.
package statsqueries

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldops/movelog/internal/app/system/roles"
)

// Timeframes for the dashboard trend series.
const (
	TimeframeDaily = "daily"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

// Scope describes whose movements a dashboard aggregates over.
type Scope struct {
	UserID        primitive.ObjectID
	Role          string
	DirectReports []primitive.ObjectID
}

// Filter returns the movement filter for a dashboard scope. Admins
// aggregate everything; field engineers only their own movements;
// supervisors what is assigned to them, unassigned work from their
// direct reports, and what they decided. Narrower than list visibility
// on purpose: the dashboard shows workload, not browsable history.
func (s Scope) Filter() bson.M {
	if roles.IsAdmin(s.Role) {
		return bson.M{}
	}
	if !roles.IsSupervisor(s.Role) {
		return bson.M{"staff_id": s.UserID}
	}
	or := []bson.M{
		{"assigned_supervisor_id": s.UserID},
		{"approved_by": s.UserID},
	}
	if len(s.DirectReports) > 0 {
		or = append(or, bson.M{
			"staff_id":               bson.M{"$in": s.DirectReports},
			"assigned_supervisor_id": nil,
		})
	}
	return bson.M{"$or": or}
}

// DashboardCounts is the headline block of the dashboard payload.
type DashboardCounts struct {
	TotalMovements        int64 `json:"totalMovements"`
	PendingApprovals      int64 `json:"pendingApprovals"`
	ApprovedMovements     int64 `json:"approvedMovements"`
	RejectedMovements     int64 `json:"rejectedMovements"`
	PerformancePercentage int   `json:"performancePercentage"`
	UnassignedEntries     int64 `json:"unassignedEntries"`
	TotalUsers            int64 `json:"totalUsers"`
}

func and(scope bson.M, extra bson.M) bson.M {
	if len(scope) == 0 {
		return extra
	}
	return bson.M{"$and": []bson.M{scope, extra}}
}

// Dashboard computes the headline counts for one scope. TotalUsers is
// global regardless of scope.
func Dashboard(ctx context.Context, db *mongo.Database, scope Scope) (DashboardCounts, error) {
	mcol := db.Collection("movements")
	filter := scope.Filter()

	var out DashboardCounts
	var err error

	if out.TotalMovements, err = mcol.CountDocuments(ctx, filter); err != nil {
		return out, err
	}
	if out.PendingApprovals, err = mcol.CountDocuments(ctx, and(filter, bson.M{"status": "pending"})); err != nil {
		return out, err
	}
	if out.ApprovedMovements, err = mcol.CountDocuments(ctx, and(filter, bson.M{"status": "approved"})); err != nil {
		return out, err
	}
	if out.RejectedMovements, err = mcol.CountDocuments(ctx, and(filter, bson.M{"status": "rejected"})); err != nil {
		return out, err
	}
	unassigned := bson.M{"$or": []bson.M{
		{"division": bson.M{"$exists": false}},
		{"division": ""},
	}}
	if out.UnassignedEntries, err = mcol.CountDocuments(ctx, and(filter, unassigned)); err != nil {
		return out, err
	}
	if out.TotalUsers, err = db.Collection("users").CountDocuments(ctx, bson.M{}); err != nil {
		return out, err
	}
	out.PerformancePercentage = PerformancePercentage(out.ApprovedMovements, out.RejectedMovements)
	return out, nil
}

// PerformancePercentage is the approval rate over decided movements,
// rounded to the nearest whole percent. With nothing decided yet it
// reads 100, not 0.
func PerformancePercentage(approved, rejected int64) int {
	total := approved + rejected
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(approved) / float64(total) * 100))
}

// BucketCount is one grouped count keyed by a label.
type BucketCount struct {
	Label string `bson:"_id" json:"label"`
	Count int64  `bson:"count" json:"count"`
}

// DistrictCounts groups movements by their own district, skipping
// movements without one.
func DistrictCounts(ctx context.Context, db *mongo.Database) ([]BucketCount, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"district": bson.M{"$nin": bson.A{nil, ""}}}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$district", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	return runBuckets(ctx, db, pipe)
}

// DivisionCounts groups movements by division, most active first.
func DivisionCounts(ctx context.Context, db *mongo.Database) ([]BucketCount, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"division": bson.M{"$nin": bson.A{nil, ""}}}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$division", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	return runBuckets(ctx, db, pipe)
}

func runBuckets(ctx context.Context, db *mongo.Database, pipe mongo.Pipeline) ([]BucketCount, error) {
	cur, err := db.Collection("movements").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []BucketCount{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopUser is one row of the most-active-staff report.
type TopUser struct {
	FullName string `bson:"full_name" json:"full_name"`
	Count    int64  `bson:"count" json:"count"`
}

// TopUsers returns the staff with the most movements, busiest first.
func TopUsers(ctx context.Context, db *mongo.Database, limit int64) ([]TopUser, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": "$staff_id", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$project", Value: bson.M{
			"full_name": "$user.full_name",
			"count":     1,
		}}},
	}
	cur, err := db.Collection("movements").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []TopUser{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrendPoint is one bucket of a time series.
type TrendPoint struct {
	Date  string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

// OverTime groups all movements into date buckets, oldest first,
// capped at 30 buckets. Range is "daily", "weekly" or "monthly".
// Movement dates are ISO strings, so daily and monthly buckets are
// plain prefixes; weekly goes through a real date conversion for ISO
// week numbering.
func OverTime(ctx context.Context, db *mongo.Database, rangeName string) ([]TrendPoint, error) {
	var key any
	switch rangeName {
	case "monthly":
		key = bson.M{"$substrBytes": bson.A{"$date", 0, 7}}
	case "weekly":
		key = bson.M{"$dateToString": bson.M{
			"format": "%G-%V",
			"date": bson.M{"$dateFromString": bson.M{
				"dateString": "$date",
				"onError":    nil,
			}},
		}}
	default:
		key = "$date"
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": nil}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: 30}},
	}
	cur, err := db.Collection("movements").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []TrendPoint{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RawTrend returns the newest N buckets for a dashboard timeframe,
// unfilled. The handler backfills missing buckets with Fill.
func RawTrend(ctx context.Context, db *mongo.Database, timeframe string) ([]TrendPoint, error) {
	var key any
	var limit int64
	switch timeframe {
	case TimeframeYear:
		key = bson.M{"$substrBytes": bson.A{"$date", 0, 4}}
		limit = 5
	case TimeframeMonth:
		key = bson.M{"$substrBytes": bson.A{"$date", 0, 7}}
		limit = 12
	default:
		key = "$date"
		limit = 7
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	cur, err := db.Collection("movements").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []TrendPoint{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
