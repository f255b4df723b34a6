// internal/app/store/movements/store.go
package movements

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/domain/models"
)

var (
	// ErrNotFound is returned when no movement matches the given ID.
	ErrNotFound = errors.New("movement not found")

	errBadDecision = errors.New(`decision must be "approved" or "rejected"`)
)

// Store manages the movements collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("movements")}
}

// EnsureIndexes creates the keys the list and claim paths depend on.
// seq is unique; values come from an atomic counter so duplicates mean
// a seeding bug, not a race.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "staff_id", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_supervisor_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{
			{Key: "date", Value: -1},
			{Key: "created_at", Value: -1},
		}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Viewer describes the principal a movement list is scoped to.
// Districts and DirectReports only matter for supervisor roles.
type Viewer struct {
	ID            primitive.ObjectID
	Role          string
	Districts     []string
	DirectReports []primitive.ObjectID
}

// BuildVisibilityFilter returns the filter for what a viewer may list.
// Admins see everything. Field engineers see only their own movements.
// Supervisors see their own, anything assigned to or decided by them,
// unassigned movements from their direct reports, and unassigned
// movements in one of their districts.
func BuildVisibilityFilter(v Viewer) bson.M {
	if roles.IsAdmin(v.Role) {
		return bson.M{}
	}
	if !roles.IsSupervisor(v.Role) {
		return bson.M{"staff_id": v.ID}
	}

	or := []bson.M{
		{"staff_id": v.ID},
		{"assigned_supervisor_id": v.ID},
		{"approved_by": v.ID},
	}
	if len(v.DirectReports) > 0 {
		or = append(or, bson.M{
			"staff_id":               bson.M{"$in": v.DirectReports},
			"assigned_supervisor_id": nil,
		})
	}
	if len(v.Districts) > 0 {
		or = append(or, bson.M{
			"district":               bson.M{"$in": v.Districts},
			"assigned_supervisor_id": nil,
		})
	}
	return bson.M{"$or": or}
}

// ListForViewer returns the movements visible to the viewer, newest
// date first with insertion order breaking ties.
func (s *Store) ListForViewer(ctx context.Context, v Viewer) ([]models.Movement, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cur, err := s.c.Find(ctx, BuildVisibilityFilter(v), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Movement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one movement. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Movement, error) {
	var m models.Movement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a new movement. Seq must already be claimed from the
// counter; ID, status and created_at are stamped here.
func (s *Store) Create(ctx context.Context, m models.Movement) (models.Movement, error) {
	m.ID = primitive.NewObjectID()
	if m.Status == "" {
		m.Status = models.MovementPending
	}
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Movement{}, err
	}
	return m, nil
}

// Claim atomically assigns an unassigned movement to the supervisor.
// Returns false when the movement is missing or already assigned; the
// guard and the write are a single statement, so two concurrent claims
// can never both succeed.
func (s *Store) Claim(ctx context.Context, id, supervisorID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "assigned_supervisor_id": nil},
		bson.M{"$set": bson.M{
			"assigned_supervisor_id": supervisorID,
			"status":                 models.MovementAssigned,
		}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Assign sets the supervisor on a movement, replacing any current
// assignee. Admin-driven; claim is the contended path.
func (s *Store) Assign(ctx context.Context, id, supervisorID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"assigned_supervisor_id": supervisorID,
			"status":                 models.MovementAssigned,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Acknowledge marks one movement acknowledged.
func (s *Store) Acknowledge(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.MovementAcknowledged}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AcknowledgeMany marks every listed movement acknowledged in one
// statement and returns how many matched.
func (s *Store) AcknowledgeMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": models.MovementAcknowledged}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// SetDecision records an approve or reject outcome with the deciding
// supervisor and their remarks.
func (s *Store) SetDecision(ctx context.Context, id primitive.ObjectID, status, remarks string, approver primitive.ObjectID) error {
	if status != models.MovementApproved && status != models.MovementRejected {
		return errBadDecision
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":             status,
			"supervisor_remarks": remarks,
			"approved_by":        approver,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FieldsUpdate holds the movement fields an edit may change. Status and
// assignment are owned by the lifecycle operations.
type FieldsUpdate struct {
	Date            string
	TimeIn          string
	TimeOut         string
	Division        string
	District        string
	Area            string
	Branch          string
	Purpose         string
	TransportMode   string
	Accomplishments string
	DueDate         string
}

// UpdateFields overwrites the editable fields of one movement.
func (s *Store) UpdateFields(ctx context.Context, id primitive.ObjectID, upd FieldsUpdate) error {
	set := bson.M{
		"date":            upd.Date,
		"time_in":         upd.TimeIn,
		"time_out":        upd.TimeOut,
		"division":        upd.Division,
		"district":        upd.District,
		"area":            upd.Area,
		"branch":          upd.Branch,
		"purpose":         upd.Purpose,
		"transport_mode":  upd.TransportMode,
		"accomplishments": upd.Accomplishments,
		"due_date":        upd.DueDate,
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one movement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes every listed movement in one statement.
func (s *Store) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByStaff removes every movement created by one user. Part of the
// user delete cascade.
func (s *Store) DeleteByStaff(ctx context.Context, staffID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"staff_id": staffID})
	return err
}

// ClearAssignee detaches a deleted supervisor from movements assigned
// to them. Status is left as-is, matching how a removed approver keeps
// the decision intact.
func (s *Store) ClearAssignee(ctx context.Context, supervisorID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"assigned_supervisor_id": supervisorID},
		bson.M{"$set": bson.M{"assigned_supervisor_id": nil}})
	return err
}

// ClearApprover detaches a deleted supervisor from movements they decided.
func (s *Store) ClearApprover(ctx context.Context, supervisorID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"approved_by": supervisorID},
		bson.M{"$set": bson.M{"approved_by": nil}})
	return err
}
