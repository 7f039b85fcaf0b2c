package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/auth"
	"github.com/erazemk/rigasset/internal/db"
	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
	"github.com/erazemk/rigasset/internal/workflow"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	db     *sqlx.DB
	issuer *auth.Issuer
	tokens map[string]string // role -> token
}

// setupTestServer starts a server with one user per role and an admin that
// can log in with "password".
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	issuer := auth.NewIssuer(testJWTSecret, time.Hour)
	engine := workflow.NewEngine(workflow.NewSQLStore(database))

	server := httptest.NewServer(LoggingMiddleware(NewRouter(database, engine, issuer)))
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := auth.HashPassword("password")
	env := &testEnv{server: server, db: database, issuer: issuer, tokens: map[string]string{}}

	for _, role := range model.Roles {
		u, err := store.CreateUser(ctx, database, usernameFor(role), role+" User", hash, role)
		if err != nil {
			t.Fatalf("CreateUser(%s): %v", role, err)
		}
		token, _, err := issuer.Issue(u.ID, u.Username, u.FullName, u.Role)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		env.tokens[role] = token
	}
	return env
}

func usernameFor(role string) string {
	switch role {
	case model.RoleAdmin:
		return "admin"
	case model.RoleAssetManager:
		return "assets"
	case model.RoleOperationsManager:
		return "ops"
	case model.RoleEditor:
		return "editor"
	default:
		return "viewer"
	}
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends a request as the given role and decodes the JSON response into out
// when out is non-nil.
func (e *testEnv) do(t *testing.T, role, method, path string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, e.server.URL+path, e.tokens[role], body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) seedAsset(t *testing.T, code, location string) *model.Asset {
	t.Helper()
	var asset model.Asset
	status := e.do(t, model.RoleAssetManager, "POST", "/api/assets", map[string]any{
		"asset_id": code, "name": "Mud pump", "location": location, "value_usd": "125000.00",
	}, &asset)
	if status != http.StatusCreated {
		t.Fatalf("creating asset: %d", status)
	}
	return &asset
}

func (e *testEnv) submit(t *testing.T, transferID, assetCode, destination string) *model.Transfer {
	t.Helper()
	var tr model.Transfer
	status := e.do(t, model.RoleEditor, "POST", "/api/transfers", map[string]any{
		"transfer_id": transferID,
		"asset_id":    assetCode,
		"destination": destination,
		"priority":    model.PriorityHigh,
		"reason":      "rig move",
	}, &tr)
	if status != http.StatusCreated {
		t.Fatalf("creating transfer: %d", status)
	}
	return &tr
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for valid login, got %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	var login loginResponse
	json.NewDecoder(resp.Body).Decode(&login)
	if login.Token == "" || login.User == nil || login.User.Role != model.RoleAdmin {
		t.Fatalf("unexpected login response: %+v", login)
	}
	if login.ExpiresAt.Before(time.Now()) {
		t.Errorf("expected future expiry, got %v", login.ExpiresAt)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)

	if status := env.do(t, model.RoleEditor, "GET", "/api/transfers", nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", status)
	}
	if status := env.do(t, model.RoleEditor, "POST", "/api/auth/logout", nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", status)
	}
	if status := env.do(t, model.RoleEditor, "GET", "/api/transfers", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestChangePassword(t *testing.T) {
	env := setupTestServer(t)

	status := env.do(t, model.RoleViewer, "PUT", "/api/auth/password", map[string]string{
		"current_password": "wrong", "new_password": "new-password",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", status)
	}

	status = env.do(t, model.RoleViewer, "PUT", "/api/auth/password", map[string]string{
		"current_password": "password", "new_password": "short",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for weak password, got %d", status)
	}

	status = env.do(t, model.RoleViewer, "PUT", "/api/auth/password", map[string]string{
		"current_password": "password", "new_password": "new-password",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	user, _ := store.GetUserByUsername(context.Background(), env.db, "viewer")
	if !auth.CheckPassword(user.PasswordHash, "new-password") {
		t.Error("expected new password to be stored")
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t)

	for _, path := range []string{"/api/transfers", "/api/assets", "/api/notifications"} {
		resp, _ := http.Get(env.server.URL + path)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, _ := http.Get(env.server.URL + "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for health, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t)

	status := env.do(t, model.RoleViewer, "POST", "/api/assets", map[string]string{
		"asset_id": "A-9", "name": "Test",
	}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for viewer creating asset, got %d", status)
	}

	var body map[string]any
	status = env.do(t, model.RoleEditor, "GET", "/api/users", nil, &body)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for editor listing users, got %d", status)
	}
	if body["required_roles"] == nil {
		t.Error("expected required_roles in forbidden response")
	}

	var users []model.User
	if status := env.do(t, model.RoleAdmin, "GET", "/api/users", nil, &users); status != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
	if len(users) != len(model.Roles) {
		t.Errorf("expected %d users, got %d", len(model.Roles), len(users))
	}
}

func TestUsersAPI(t *testing.T) {
	env := setupTestServer(t)

	var created model.User
	status := env.do(t, model.RoleAdmin, "POST", "/api/users", map[string]string{
		"username": "newhand", "full_name": "New Hand", "password": "long-enough", "role": model.RoleEditor,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	status = env.do(t, model.RoleAdmin, "POST", "/api/users", map[string]string{
		"username": "newhand", "password": "long-enough", "role": model.RoleEditor,
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", status)
	}

	status = env.do(t, model.RoleAdmin, "POST", "/api/users", map[string]string{
		"username": "other", "password": "long-enough", "role": "Superuser",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", status)
	}

	var updated model.User
	path := "/api/users/" + jsonID(created.ID)
	status = env.do(t, model.RoleAdmin, "PUT", path, map[string]string{"role": model.RoleAssetManager}, &updated)
	if status != http.StatusOK || updated.Role != model.RoleAssetManager {
		t.Errorf("expected role update, got %d %q", status, updated.Role)
	}

	if status := env.do(t, model.RoleAdmin, "DELETE", path, nil, nil); status != http.StatusOK {
		t.Errorf("expected 200 for delete, got %d", status)
	}
	if status := env.do(t, model.RoleAdmin, "GET", path, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

// Full happy path: create, ops approve, manager approve.
func TestTransferCompletedFlow(t *testing.T) {
	env := setupTestServer(t)
	asset := env.seedAsset(t, "A-1", "Rig 7")
	env.submit(t, "T-100", asset.AssetCode, "Rig 12")

	var tr model.Transfer
	status := env.do(t, model.RoleOperationsManager, "POST", "/api/transfers/T-100/approve-ops",
		decisionRequest{Action: model.ActionApprove, Comment: "ok"}, &tr)
	if status != http.StatusOK || tr.Status != model.TransferStatusOpsApproved {
		t.Fatalf("ops approve: %d %q", status, tr.Status)
	}

	status = env.do(t, model.RoleAssetManager, "POST", "/api/transfers/T-100/approve-mgr",
		decisionRequest{Action: model.ActionApprove, Comment: "confirmed"}, &tr)
	if status != http.StatusOK || tr.Status != model.TransferStatusCompleted {
		t.Fatalf("manager approve: %d %q", status, tr.Status)
	}
	if tr.MgrComment != "confirmed" || tr.OpsComment != "ok" {
		t.Errorf("unexpected comments: %q %q", tr.OpsComment, tr.MgrComment)
	}

	var got model.Asset
	env.do(t, model.RoleViewer, "GET", "/api/assets/A-1", nil, &got)
	if got.Location != "Rig 12" {
		t.Errorf("expected asset at Rig 12, got %q", got.Location)
	}

	var history []model.HistoryEntry
	env.do(t, model.RoleViewer, "GET", "/api/assets/A-1/history", nil, &history)
	completed := 0
	for _, h := range history {
		if h.Action == model.HistoryActionTransferCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("expected one Transfer Completed entry, got %d", completed)
	}

	// The broadcast reaches every user, including ones outside the workflow.
	var inbox notificationListResponse
	env.do(t, model.RoleViewer, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 1 || inbox.UnreadCount != 1 {
		t.Fatalf("expected one unread broadcast for viewer, got %+v", inbox)
	}
	if n := inbox.Notifications[0]; n.Title != "Transfer Completed" || n.Type != model.NotificationSuccess {
		t.Errorf("unexpected broadcast: %+v", n)
	}

	// Ops managers were told about the new request.
	env.do(t, model.RoleOperationsManager, "GET", "/api/notifications?unread=true", nil, &inbox)
	titles := map[string]bool{}
	for _, n := range inbox.Notifications {
		titles[n.Title] = true
	}
	if !titles["New Transfer Request"] || !titles["Transfer Completed"] {
		t.Errorf("unexpected ops manager inbox: %+v", inbox)
	}
}

func TestNotificationsAPI(t *testing.T) {
	env := setupTestServer(t)
	env.seedAsset(t, "A-1", "Rig 7")
	env.submit(t, "T-1", "A-1", "Rig 1")

	var inbox notificationListResponse
	env.do(t, model.RoleOperationsManager, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 1 || inbox.Notifications[0].Icon != "exchange-alt" || inbox.UnreadCount != 1 {
		t.Fatalf("expected one unread submission notice, got %+v", inbox)
	}
	notice := inbox.Notifications[0].ID

	path := "/api/notifications/" + jsonID(notice) + "/read"
	if status := env.do(t, model.RoleOperationsManager, "PUT", path, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	env.do(t, model.RoleOperationsManager, "GET", "/api/notifications?unread=true", nil, &inbox)
	if len(inbox.Notifications) != 0 || inbox.UnreadCount != 0 {
		t.Errorf("expected empty unread inbox, got %+v", inbox)
	}

	// Another user cannot delete a notice addressed to someone else.
	path = "/api/notifications/" + jsonID(notice)
	env.do(t, model.RoleViewer, "DELETE", path, nil, nil)
	env.do(t, model.RoleOperationsManager, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 1 {
		t.Fatalf("expected notice to survive another user's delete, got %+v", inbox)
	}
	if status := env.do(t, model.RoleOperationsManager, "DELETE", path, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", status)
	}
	env.do(t, model.RoleOperationsManager, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 0 {
		t.Errorf("expected empty inbox after delete, got %+v", inbox)
	}

	env.do(t, model.RoleOperationsManager, "POST", "/api/transfers/T-1/approve-ops",
		decisionRequest{Action: model.ActionApprove, Comment: "ok"}, nil)

	var cleared map[string]int64
	env.do(t, model.RoleAdmin, "DELETE", "/api/notifications", nil, &cleared)
	if cleared["deleted"] != 0 {
		t.Errorf("expected unread notices to be kept, got %v", cleared)
	}

	var updated map[string]int64
	env.do(t, model.RoleAdmin, "PUT", "/api/notifications/read-all", nil, &updated)
	if updated["updated"] != 1 {
		t.Errorf("expected admin to mark one notification, got %v", updated)
	}

	env.do(t, model.RoleAdmin, "DELETE", "/api/notifications", nil, &cleared)
	if cleared["deleted"] != 1 {
		t.Errorf("expected one read notice cleared, got %v", cleared)
	}
	env.do(t, model.RoleAdmin, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 0 || inbox.UnreadCount != 0 {
		t.Errorf("expected empty admin inbox, got %+v", inbox)
	}

	// The asset manager's copy is untouched.
	env.do(t, model.RoleAssetManager, "GET", "/api/notifications", nil, &inbox)
	if len(inbox.Notifications) != 1 || inbox.UnreadCount != 1 {
		t.Errorf("expected asset manager notice intact, got %+v", inbox)
	}
}

func TestAssetUnknownRig(t *testing.T) {
	env := setupTestServer(t)

	status := env.do(t, model.RoleAssetManager, "POST", "/api/assets", map[string]any{
		"asset_id": "A-3", "name": "Pump", "rig_id": 9999,
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown rig, got %d", status)
	}

	var body map[string]any
	env.seedAsset(t, "A-4", "Yard")
	status = env.do(t, model.RoleEditor, "POST", "/api/transfers", map[string]any{
		"transfer_id": "T-5", "asset_id": "A-4", "destination": "Rig 99",
		"dest_rig_id": 9999, "priority": "Low", "reason": "x",
	}, &body)
	if status != http.StatusBadRequest || body["field"] != "dest_rig_id" {
		t.Errorf("expected 400 on dest_rig_id, got %d %v", status, body)
	}
}
