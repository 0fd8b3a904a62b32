package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

func seedUser(t *testing.T, users *fakeUserStore, username, email string, admin bool) repository.User {
	t.Helper()
	u := users.add(repository.User{Username: username, Email: email, IsAdmin: admin})
	return u
}

func TestUserCreateHidesPasswordHash(t *testing.T) {
	h := NewUserHandler(testConfig(), newFakeUserStore())

	c, rec := newCtx(http.MethodPost, "/users",
		`{"username":"alice","email":"A@B.C","password":"pw"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// Email is normalized to lower case before storage.
	if body["email"] != "a@b.c" {
		t.Errorf("email = %v, want a@b.c", body["email"])
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "alice", "a@b.c", false)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodPost, "/users",
		`{"username":"alice","email":"other@b.c","password":"pw"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUserGetNotFound(t *testing.T) {
	h := NewUserHandler(testConfig(), newFakeUserStore())
	c, rec := newCtx(http.MethodGet, "/users/5", "", "id", "5")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUserGetBadID(t *testing.T) {
	h := NewUserHandler(testConfig(), newFakeUserStore())
	c, rec := newCtx(http.MethodGet, "/users/abc", "", "id", "abc")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserUpdate(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "old", "old@b.c", false)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodPut, "/users/1",
		`{"username":"new","email":"new@b.c","password":"pw2"}`, "id", "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	u, err := users.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Username != "new" || u.Email != "new@b.c" {
		t.Errorf("update not persisted: %+v", u)
	}
}

func TestUserDeleteRequiresCaller(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "alice", "a@b.c", false)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodDelete, "/users/1", "", "id", "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUserDeleteSelf(t *testing.T) {
	users := newFakeUserStore()
	alice := seedUser(t, users, "alice", "a@b.c", false)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodDelete, "/users/1", "", "id", "1")
	asCaller(c, alice)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := users.GetByID(context.Background(), 1); err == nil {
		t.Error("user still present after delete")
	}
}

func TestUserDeleteForeignForbidden(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "alice", "a@b.c", false)
	bob := seedUser(t, users, "bob", "b@b.c", false)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodDelete, "/users/1", "", "id", "1")
	asCaller(c, bob)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestUserDeleteAdmin(t *testing.T) {
	users := newFakeUserStore()
	seedUser(t, users, "alice", "a@b.c", false)
	admin := seedUser(t, users, "root", "r@b.c", true)
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodDelete, "/users/1", "", "id", "1")
	asCaller(c, admin)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestUserDeleteMissingIs404NotForbidden(t *testing.T) {
	users := newFakeUserStore()
	bob := seedUser(t, users, "bob", "b@b.c", false)
	h := NewUserHandler(testConfig(), users)

	// Account 99 does not exist; even a non-admin caller sees 404, never 403.
	c, rec := newCtx(http.MethodDelete, "/users/99", "", "id", "99")
	asCaller(c, bob)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
