// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Action tags recorded by the application. Free-text by contract, constant by
// convention so the log stays greppable.
const (
	ActionLogin                = "LOGIN"
	ActionPasswordResetRequest = "PASSWORD_RESET_REQUEST"

	ActionUserCreated      = "USER_CREATED"
	ActionUserUpdated      = "USER_UPDATED"
	ActionUserStatusUpdate = "USER_STATUS_UPDATE"
	ActionUserDeleted      = "USER_DELETED"
	ActionUsersBulkDeleted = "USERS_BULK_DELETED"
	ActionUsersBulkStatus  = "USERS_BULK_STATUS_UPDATE"
	ActionAvatarUpdated    = "AVATAR_UPDATED"
	ActionAvatarRemoved    = "AVATAR_REMOVED"

	ActionMovementCreated          = "MOVEMENT_CREATED"
	ActionMovementAcknowledged     = "MOVEMENT_ACKNOWLEDGED"
	ActionMovementsBulkAcknowledge = "MOVEMENTS_BULK_ACKNOWLEDGED"
	ActionMovementAssigned         = "MOVEMENT_ASSIGNED"
	ActionMovementClaimed          = "MOVEMENT_CLAIMED"
	ActionMovementApproved         = "MOVEMENT_APPROVED"
	ActionMovementRejected         = "MOVEMENT_REJECTED"
	ActionMovementUpdated          = "MOVEMENT_UPDATED"
	ActionMovementDeleted          = "MOVEMENT_DELETED"
	ActionMovementsBulkDeleted     = "MOVEMENTS_BULK_DELETED"
)

// Entry is one append-only audit record. ActorID is nil for
// system-attributed actions (acknowledge, assign).
type Entry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"user_id,omitempty"`
	Action    string              `bson:"action" json:"action"`
	Details   string              `bson:"details" json:"details"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}

// Store manages the audit_logs collection.
type Store struct {
	c *mongo.Collection
}

// New creates an audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_logs")}
}

// EnsureIndexes creates the indexes the read paths depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{
			{Key: "actor_id", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append records one entry. Timestamp is stamped here if unset.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Latest returns the newest entries, most recent first.
func (s *Store) Latest(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForActor returns the newest entries attributed to one user.
func (s *Store) ForActor(ctx context.Context, actorID primitive.ObjectID, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteForActor removes every entry attributed to the given user. Part of
// the user delete cascade; audit entries are otherwise never removed.
func (s *Store) DeleteForActor(ctx context.Context, actorID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"actor_id": actorID})
	return err
}
