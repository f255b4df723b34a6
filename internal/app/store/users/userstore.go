package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/domain/models"
)

var (
	// ErrDuplicate is returned when a username or staff ID number collides
	// with an existing user.
	ErrDuplicate = errors.New("a user with this username or ID number already exists")
	// ErrNotFound is returned when no user matches the given ID.
	ErrNotFound = errors.New("user not found")

	errBadRole   = errors.New("invalid role")
	errBadStatus = errors.New(`status must be "active" or "inactive"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique keys that back duplicate detection.
// id_number is sparse so legacy users without one do not collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "supervisor_id", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns every user, newest first. Password hashes never serialize
// to JSON, so callers can hand the slice straight to the encoder.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user after validating role and status. PasswordHash
// must already be a bcrypt hash; this layer never sees plaintext.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = strings.TrimSpace(u.Username)

	if !roles.Valid(u.Role) {
		return models.User{}, errBadRole
	}
	if u.Status == "" {
		u.Status = models.UserActive
	}
	if u.Status != models.UserActive && u.Status != models.UserInactive {
		return models.User{}, errBadStatus
	}
	if u.District == nil {
		u.District = []string{}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the profile fields an admin edit can change.
// Identity (username, id_number) and credentials are updated elsewhere.
type ProfileUpdate struct {
	FullName        string
	Position        string
	Division        string
	District        []string
	BaseOffice      string
	Role            string
	SupervisorID    *primitive.ObjectID
	Email           string
	PhoneNumber     string
	Location        string
	DateOfBirth     string
	Language        string
	Locale          string
	FirstDayOfWeek  string
	Website         string
	XHandle         string
	FediverseHandle string
	Organisation    string
	ProfileRole     string
	Headline        string
	About           string
}

// UpdateProfile overwrites the editable profile fields of one user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	if !roles.Valid(upd.Role) {
		return errBadRole
	}
	if upd.District == nil {
		upd.District = []string{}
	}
	set := bson.M{
		"full_name":         upd.FullName,
		"position":          upd.Position,
		"division":          upd.Division,
		"district":          upd.District,
		"base_office":       upd.BaseOffice,
		"role":              upd.Role,
		"supervisor_id":     upd.SupervisorID,
		"email":             upd.Email,
		"phone_number":      upd.PhoneNumber,
		"location":          upd.Location,
		"date_of_birth":     upd.DateOfBirth,
		"language":          upd.Language,
		"locale":            upd.Locale,
		"first_day_of_week": upd.FirstDayOfWeek,
		"website":           upd.Website,
		"x_handle":          upd.XHandle,
		"fediverse_handle":  upd.FediverseHandle,
		"organisation":      upd.Organisation,
		"profile_role":      upd.ProfileRole,
		"headline":          upd.Headline,
		"about":             upd.About,
		"updated_at":        time.Now().UTC(),
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

// UpdatePassword replaces a user's bcrypt hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the account status (active/inactive) of one user.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.UserActive && status != models.UserInactive {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePresence sets the self-service online status and status message.
func (s *Store) UpdatePresence(ctx context.Context, id primitive.ObjectID, onlineStatus, statusMessage string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"online_status":  onlineStatus,
		"status_message": statusMessage,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvatar stores the public URL of an uploaded avatar and returns the
// previous URL so the caller can remove the old file.
func (s *Store) SetAvatar(ctx context.Context, id primitive.ObjectID, url string) (string, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"avatar_url": url, "updated_at": time.Now().UTC()}},
		opts)

	var prev models.User
	if err := res.Decode(&prev); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}
	return prev.AvatarURL, nil
}

// ClearAvatar removes the avatar URL and returns the one that was set.
func (s *Store) ClearAvatar(ctx context.Context, id primitive.ObjectID) (string, error) {
	return s.SetAvatar(ctx, id, "")
}

// Delete removes one user document. The full cascade lives in userpurge.
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

// IDsBySupervisor returns the IDs of everyone reporting to the given user.
func (s *Store) IDsBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"supervisor_id": supervisorID})
}

// IDsByRole returns the IDs of every user holding one of the given roles.
func (s *Store) IDsByRole(ctx context.Context, roleNames ...string) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"role": bson.M{"$in": roleNames}})
}

func (s *Store) ids(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out, nil
}

// NameInfo is the slice of a user the movement list decorates rows with.
type NameInfo struct {
	FullName string
	Position string
	District []string
}

// NamesByIDs loads display info for a set of users in one query.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]NameInfo, error) {
	out := make(map[primitive.ObjectID]NameInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{
		"full_name": 1, "position": 1, "district": 1,
	})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID       primitive.ObjectID `bson:"_id"`
		FullName string             `bson:"full_name"`
		Position string             `bson:"position"`
		District []string           `bson:"district"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = NameInfo{FullName: d.FullName, Position: d.Position, District: d.District}
	}
	return out, nil
}

// ClearSupervisor detaches every direct report of a deleted supervisor.
func (s *Store) ClearSupervisor(ctx context.Context, supervisorID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"supervisor_id": supervisorID},
		bson.M{"$set": bson.M{"supervisor_id": nil, "updated_at": time.Now().UTC()}})
	return err
}

// UpdateIdentity changes the unique identity fields (username, staff ID
// number). Empty values are skipped, never written: the id_number index
// is unique+sparse, and sparse only excludes missing fields, so storing
// "" would make every second no-id-number user collide. Returns
// ErrDuplicate when either field collides.
func (s *Store) UpdateIdentity(ctx context.Context, id primitive.ObjectID, username, idNumber string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u := strings.TrimSpace(username); u != "" {
		set["username"] = u
	}
	if idNumber != "" {
		set["id_number"] = idNumber
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
