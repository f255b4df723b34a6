package users_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/features/users"
	"github.com/fieldops/movelog/internal/app/store/audit"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auditlog"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/app/system/uploads"
	"github.com/fieldops/movelog/internal/domain/models"
	"github.com/fieldops/movelog/internal/testutil"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	rec := auditlog.New(audit.New(db), logger, auditlog.ModeDB)
	up, err := uploads.New(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("uploads.New failed: %v", err)
	}
	return users.NewHandler(db.Client(), db, rec, up, logger), testutil.NewFixtures(t, db), db
}

func asUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       u.ID.Hex(),
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	})
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleCreate(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	body := `{"username":"jdoe","password":"secret123","full_name":"Jane Doe","role":"Field Engineer","district":["North","Central"]}`
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, asUser(jsonReq("POST", "/api/users", body), admin))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	created, err := h.Users.GetByUsername(ctx, "jdoe")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if created.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
	if !strings.HasPrefix(created.PasswordHash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", created.PasswordHash)
	}
	if len(created.District) != 2 {
		t.Errorf("district list not stored, got %v", created.District)
	}
}

func TestHandleCreate_MissingFields(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, asUser(jsonReq("POST", "/api/users", `{"username":"jdoe"}`), admin))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCreate_DuplicateUsername(t *testing.T) {
	h, f, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := userstore.New(db).EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	admin := f.CreateAdmin(ctx, "admin")
	f.CreateUser(ctx, "jdoe", roles.FieldEngineer)

	body := `{"username":"jdoe","password":"secret123","full_name":"Jane Doe","role":"Field Engineer"}`
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, asUser(jsonReq("POST", "/api/users", body), admin))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate username, got %d", rec.Code)
	}
}

func TestServeList_DecoratesSupervisorName(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sup := f.CreateSupervisor(ctx, "sup1")
	f.CreateEngineer(ctx, "eng1", &sup.ID)

	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest("GET", "/api/users", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []struct {
		Username       string `json:"username"`
		SupervisorName string `json:"supervisor_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 users, got %d", len(items))
	}
	var found bool
	for _, it := range items {
		if it.Username == "eng1" {
			found = true
			if it.SupervisorName != "Test sup1" {
				t.Errorf("supervisor name missing, got %q", it.SupervisorName)
			}
		}
	}
	if !found {
		t.Fatal("eng1 missing from list")
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash leaked into the response")
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	target := f.CreateEngineer(ctx, "eng1", nil)

	req := asUser(jsonReq("PUT", "/api/users/x/status", `{"status":"inactive"}`), admin)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserInactive {
		t.Errorf("expected inactive, got %s", got.Status)
	}
}

func TestHandleUpdateStatus_InvalidStatus(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	req := asUser(jsonReq("PUT", "/api/users/x/status", `{"status":"suspended"}`), admin)
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdateStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpdatePresence_SelfOnly(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := f.CreateEngineer(ctx, "me", nil)
	other := f.CreateEngineer(ctx, "other", nil)

	// Setting someone else's presence as a non-admin is forbidden.
	req := asUser(jsonReq("PUT", "/api/users/x/presence", `{"online_status":"online"}`), me)
	req = testutil.WithChiURLParam(req, "id", other.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdatePresence(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	// Own presence is fine.
	req = asUser(jsonReq("PUT", "/api/users/x/presence", `{"online_status":"online","status_message":"on site"}`), me)
	req = testutil.WithChiURLParam(req, "id", me.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleUpdatePresence(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := h.Users.GetByID(ctx, me.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OnlineStatus != "online" || got.StatusMessage != "on site" {
		t.Errorf("presence not stored: %q %q", got.OnlineStatus, got.StatusMessage)
	}
}

func TestHandleUpdate_ChangesProfileAndPassword(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	target := f.CreateEngineer(ctx, "eng1", nil)

	body := `{"username":"eng1","full_name":"Renamed Engineer","role":"Field Engineer","password":"newpass456"}`
	req := asUser(jsonReq("PUT", "/api/users/x", body), admin)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName != "Renamed Engineer" {
		t.Errorf("full name not updated: %q", got.FullName)
	}
	if got.PasswordHash == target.PasswordHash {
		t.Error("password hash should have changed")
	}
}

func TestHandleUpdate_SecondUserWithoutIDNumber(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := h.Users.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	admin := f.CreateAdmin(ctx, "admin")
	first := f.CreateEngineer(ctx, "eng1", nil)
	second := f.CreateEngineer(ctx, "eng2", nil)

	// Renaming users that have no id number must not store an empty
	// id_number; the sparse unique index would reject the second one.
	for i, target := range []primitive.ObjectID{first.ID, second.ID} {
		body := fmt.Sprintf(`{"username":"renamed%d","full_name":"Renamed %d","role":"Field Engineer"}`, i, i)
		req := asUser(jsonReq("PUT", "/api/users/x", body), admin)
		req = testutil.WithChiURLParam(req, "id", target.Hex())
		rec := httptest.NewRecorder()
		h.HandleUpdate(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	got, err := h.Users.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Username != "renamed1" {
		t.Errorf("second rename did not apply: %q", got.Username)
	}
	if got.IDNumber != "" {
		t.Errorf("IDNumber = %q, want empty", got.IDNumber)
	}
}

func TestHandleDelete_CascadesAndAudits(t *testing.T) {
	h, f, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	target := f.CreateEngineer(ctx, "victim", nil)
	f.CreateMovement(ctx, target.ID, "2024-03-01", "North")

	req := asUser(httptest.NewRequest("DELETE", "/api/users/x", nil), admin)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := h.Users.GetByID(ctx, target.ID); err != userstore.ErrNotFound {
		t.Errorf("user should be gone, got %v", err)
	}

	entries, err := audit.New(db).Latest(ctx, 10)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	var found bool
	for _, e := range entries {
		if e.Action == audit.ActionUserDeleted && strings.Contains(e.Details, "victim") {
			found = true
		}
	}
	if !found {
		t.Error("expected a USER_DELETED audit entry naming the victim")
	}
}

func TestHandleDelete_NotFound(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	req := asUser(httptest.NewRequest("DELETE", "/api/users/x", nil), admin)
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleBulkStatus_MissingUserAbortsBatch(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	u1 := f.CreateEngineer(ctx, "eng1", nil)

	// Missing id first: the batch must fail before u1 is touched even
	// when the server cannot run a real transaction.
	body := `{"ids":["` + primitive.NewObjectID().Hex() + `","` + u1.ID.Hex() + `"],"status":"inactive"}`
	rec := httptest.NewRecorder()
	h.HandleBulkStatus(rec, asUser(jsonReq("PUT", "/api/users/bulk/status", body), admin))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := h.Users.GetByID(ctx, u1.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.UserActive {
		t.Errorf("failed batch should leave u1 untouched, but it is %s", got.Status)
	}
}

func TestHandleBulkStatus_InvalidStatus(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	u1 := f.CreateEngineer(ctx, "eng1", nil)

	body := `{"ids":["` + u1.ID.Hex() + `"],"status":"suspended"}`
	rec := httptest.NewRecorder()
	h.HandleBulkStatus(rec, asUser(jsonReq("PUT", "/api/users/bulk/status", body), admin))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleBulkDelete(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	u1 := f.CreateEngineer(ctx, "eng1", nil)
	u2 := f.CreateEngineer(ctx, "eng2", nil)

	body := `{"ids":["` + u1.ID.Hex() + `","` + u2.ID.Hex() + `"]}`
	rec := httptest.NewRecorder()
	h.HandleBulkDelete(rec, asUser(jsonReq("DELETE", "/api/users/bulk", body), admin))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, id := range []primitive.ObjectID{u1.ID, u2.ID} {
		if _, err := h.Users.GetByID(ctx, id); err != userstore.ErrNotFound {
			t.Errorf("user %s should be gone, got %v", id.Hex(), err)
		}
	}
}

func TestHandleBulkDelete_EmptyIDs(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	rec := httptest.NewRecorder()
	h.HandleBulkDelete(rec, asUser(jsonReq("DELETE", "/api/users/bulk", `{"ids":[]}`), admin))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServeActivity(t *testing.T) {
	h, f, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")
	target := f.CreateEngineer(ctx, "eng1", nil)
	store := audit.New(db)
	if err := store.Append(ctx, audit.Entry{ActorID: &target.ID, Action: audit.ActionLogin, Details: "User eng1 logged in"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	req := asUser(httptest.NewRequest("GET", "/api/users/x/activity", nil), admin)
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeActivity(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []audit.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestServeActivity_EmptyIsArray(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := f.CreateAdmin(ctx, "admin")

	req := asUser(httptest.NewRequest("GET", "/api/users/x/activity", nil), admin)
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.ServeActivity(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}
