// internal/app/store/kb/store.go
package kb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldops/movelog/internal/domain/models"
)

// Store manages the knowledge_base collection. Entries are immutable:
// a revision is a new entry with a new version string.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("knowledge_base")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// List returns every entry, newest first.
func (s *Store) List(ctx context.Context) ([]models.KnowledgeBaseEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.KnowledgeBaseEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new entry, stamping ID and created_at.
func (s *Store) Create(ctx context.Context, e models.KnowledgeBaseEntry) (models.KnowledgeBaseEntry, error) {
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.KnowledgeBaseEntry{}, err
	}
	return e, nil
}

// DeleteByCreator removes every entry authored by one user. Part of
// the user delete cascade; entries are otherwise immutable.
func (s *Store) DeleteByCreator(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"created_by": userID})
	return err
}
