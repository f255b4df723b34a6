// internal/app/store/counters/store.go
package counters

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Named counter sequences.
const (
	MovementSeq = "movement_seq"
	UserIDSeq   = "user_id_seq"
)

// Store hands out monotonically increasing sequence numbers backed by the
// counters collection. Next is atomic; concurrent callers never see the
// same value.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// Next increments the named counter and returns the new value. The first
// call on a fresh counter returns 1.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts)

	var doc counterDoc
	if err := res.Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// Peek returns the value Next would hand out, without consuming it. Only a
// hint: a concurrent Next can claim the value before the caller uses it.
func (s *Store) Peek(ctx context.Context, name string) (int64, error) {
	var doc counterDoc
	err := s.c.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Value + 1, nil
}
