package testutil

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/movelog/internal/app/store/counters"
	"github.com/fieldops/movelog/internal/app/store/movements"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/domain/models"
)

// TestPassword is the plaintext behind every fixture user's hash.
const TestPassword = "password123"

// Fixtures creates domain objects for tests with sensible defaults.
type Fixtures struct {
	t        *testing.T
	users    *userstore.Store
	moves    *movements.Store
	counters *counters.Store
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{
		t:        t,
		users:    userstore.New(db),
		moves:    movements.New(db),
		counters: counters.New(db),
	}
}

// CreateUser inserts a user with the given role. Username doubles as
// the full name seed.
func (f *Fixtures) CreateUser(ctx context.Context, username, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("bcrypt: %v", err)
	}
	u, err := f.users.Create(ctx, models.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "Test " + username,
		Role:         role,
		Status:       models.UserActive,
		District:     []string{},
	})
	if err != nil {
		f.t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateAdmin inserts a System Administrator.
func (f *Fixtures) CreateAdmin(ctx context.Context, username string) models.User {
	return f.CreateUser(ctx, username, roles.SystemAdministrator)
}

// CreateSupervisor inserts a Senior Field Engineer covering the given
// districts.
func (f *Fixtures) CreateSupervisor(ctx context.Context, username string, districts ...string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, username, roles.SeniorFieldEngineer)
	if len(districts) > 0 {
		err := f.users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
			FullName: u.FullName,
			Role:     u.Role,
			District: districts,
		})
		if err != nil {
			f.t.Fatalf("set districts for %s: %v", username, err)
		}
		u.District = districts
	}
	return u
}

// CreateEngineer inserts a Field Engineer, optionally reporting to a
// supervisor.
func (f *Fixtures) CreateEngineer(ctx context.Context, username string, supervisorID *primitive.ObjectID) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, username, roles.FieldEngineer)
	if supervisorID != nil {
		err := f.users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
			FullName:     u.FullName,
			Role:         u.Role,
			District:     []string{},
			SupervisorID: supervisorID,
		})
		if err != nil {
			f.t.Fatalf("set supervisor for %s: %v", username, err)
		}
		u.SupervisorID = supervisorID
	}
	return u
}

// CreateMovement inserts a pending movement for the staff member with a
// fresh sequence number.
func (f *Fixtures) CreateMovement(ctx context.Context, staffID primitive.ObjectID, date, district string) models.Movement {
	f.t.Helper()

	seq, err := f.counters.Next(ctx, counters.MovementSeq)
	if err != nil {
		f.t.Fatalf("next seq: %v", err)
	}
	m, err := f.moves.Create(ctx, models.Movement{
		Seq:      seq,
		StaffID:  staffID,
		Date:     date,
		District: district,
		Division: "Network Operations",
		Purpose:  "Site visit",
	})
	if err != nil {
		f.t.Fatalf("create movement: %v", err)
	}
	return m
}
