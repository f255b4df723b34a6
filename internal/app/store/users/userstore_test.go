package userstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/domain/models"
	"github.com/fieldops/movelog/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{
		Username:     "jdoe",
		PasswordHash: "hash",
		FullName:     "Jane Doe",
		Role:         roles.FieldEngineer,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("expected ID to be stamped")
	}
	if u.Status != models.UserActive {
		t.Errorf("expected active default, got %s", u.Status)
	}
	if u.District == nil {
		t.Error("district should default to an empty slice")
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("timestamps should be stamped")
	}
}

func TestStore_Create_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		Username:     "jdoe",
		PasswordHash: "hash",
		FullName:     "Jane Doe",
		Role:         "Warehouse Clerk",
	})
	if err == nil {
		t.Fatal("expected error for an unknown role")
	}
}

func TestStore_Create_DuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	u := models.User{
		Username:     "jdoe",
		PasswordHash: "hash",
		FullName:     "Jane Doe",
		Role:         roles.FieldEngineer,
	}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, u); err != userstore.ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_UpdateIdentity_SkipsEmptyFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	// Neither user has an id number. Renaming both must not write
	// id_number: "" into either document; the sparse unique index only
	// skips missing fields, so a stored "" would collide on the second
	// rename.
	var ids []primitive.ObjectID
	for _, name := range []string{"alpha", "beta"} {
		u, err := store.Create(ctx, models.User{
			Username:     name,
			PasswordHash: "hash",
			FullName:     "Test " + name,
			Role:         roles.FieldEngineer,
		})
		if err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
		ids = append(ids, u.ID)
	}

	renames := []string{"alpha-renamed", "beta-renamed"}
	for i, id := range ids {
		if err := store.UpdateIdentity(ctx, id, renames[i], ""); err != nil {
			t.Fatalf("UpdateIdentity %d failed: %v", i, err)
		}
	}

	got, err := store.GetByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "alpha-renamed" {
		t.Errorf("Username = %q, want alpha-renamed", got.Username)
	}
	if got.IDNumber != "" {
		t.Errorf("IDNumber = %q, want empty", got.IDNumber)
	}

	// The reverse direction: setting an id number alone keeps the username.
	if err := store.UpdateIdentity(ctx, ids[0], "", "EMP-001"); err != nil {
		t.Fatalf("UpdateIdentity id-number only failed: %v", err)
	}
	got, err = store.GetByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "alpha-renamed" || got.IDNumber != "EMP-001" {
		t.Errorf("after id-number update got %q/%q, want alpha-renamed/EMP-001", got.Username, got.IDNumber)
	}
}

func TestStore_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := f.CreateUser(ctx, "jdoe", roles.FieldEngineer)
	got, err := store.GetByUsername(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("wrong user returned")
	}

	if _, err := store.GetByUsername(ctx, "nobody"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateProfile_DistrictRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "sup", roles.SeniorFieldEngineer)
	err := store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		FullName: u.FullName,
		Role:     u.Role,
		District: []string{"North", "Central"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.District) != 2 || got.District[0] != "North" || got.District[1] != "Central" {
		t.Errorf("district not stored as a list, got %v", got.District)
	}
}

func TestStore_UpdateProfile_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{
		FullName: "Ghost",
		Role:     roles.FieldEngineer,
	})
	if err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "jdoe", roles.FieldEngineer)
	if err := store.UpdateStatus(ctx, u.ID, models.UserInactive); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserInactive {
		t.Errorf("expected inactive, got %s", got.Status)
	}

	if err := store.UpdateStatus(ctx, u.ID, "suspended"); err == nil {
		t.Error("expected error for an unknown status")
	}
}

func TestStore_SetAvatar_ReturnsPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "jdoe", roles.FieldEngineer)

	prev, err := store.SetAvatar(ctx, u.ID, "/uploads/a1.png")
	if err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	if prev != "" {
		t.Errorf("first avatar should have no predecessor, got %q", prev)
	}

	prev, err = store.SetAvatar(ctx, u.ID, "/uploads/a2.png")
	if err != nil {
		t.Fatalf("SetAvatar failed: %v", err)
	}
	if prev != "/uploads/a1.png" {
		t.Errorf("expected previous URL, got %q", prev)
	}

	prev, err = store.ClearAvatar(ctx, u.ID)
	if err != nil {
		t.Fatalf("ClearAvatar failed: %v", err)
	}
	if prev != "/uploads/a2.png" {
		t.Errorf("expected cleared URL, got %q", prev)
	}
}

func TestStore_IDsBySupervisor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sup := f.CreateSupervisor(ctx, "sup")
	f.CreateEngineer(ctx, "eng1", &sup.ID)
	f.CreateEngineer(ctx, "eng2", &sup.ID)
	f.CreateEngineer(ctx, "eng3", nil)

	ids, err := store.IDsBySupervisor(ctx, sup.ID)
	if err != nil {
		t.Fatalf("IDsBySupervisor failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 direct reports, got %d", len(ids))
	}
}

func TestStore_ClearSupervisor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sup := f.CreateSupervisor(ctx, "sup")
	eng := f.CreateEngineer(ctx, "eng1", &sup.ID)

	if err := store.ClearSupervisor(ctx, sup.ID); err != nil {
		t.Fatalf("ClearSupervisor failed: %v", err)
	}
	got, err := store.GetByID(ctx, eng.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SupervisorID != nil {
		t.Error("supervisor reference should be cleared")
	}
}

func TestStore_NamesByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	f := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1 := f.CreateUser(ctx, "one", roles.FieldEngineer)
	u2 := f.CreateUser(ctx, "two", roles.FieldEngineer)

	names, err := store.NamesByIDs(ctx, []primitive.ObjectID{u1.ID, u2.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("NamesByIDs failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 entries, got %d", len(names))
	}
	if names[u1.ID].FullName != "Test one" {
		t.Errorf("wrong name for u1: %q", names[u1.ID].FullName)
	}
}

func TestStore_NamesByIDs_EmptyInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := store.NamesByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("NamesByIDs failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected empty map, got %d entries", len(names))
	}
}
