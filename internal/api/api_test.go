package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/labstock/internal/blob"
	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)

	svc := ledger.New(database)
	blobs, err := blob.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	svc.Blobs = blobs

	server := httptest.NewServer(NewRouter(svc, Config{JWTSecret: testJWTSecret}))
	t.Cleanup(server.Close)

	// Create admin user.
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), database, "Admin", "admin@example.com", string(hash), model.RoleAdmin, nil); err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	return server, login(t, server, "admin@example.com", "password")
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader = bytes.NewReader(nil)
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated JSON request, checks the status and decodes the
// response into out when it is non-nil.
func do(t *testing.T, server *httptest.Server, token, method, path string, body any, want int, out any) {
	t.Helper()
	req, err := authRequest(method, server.URL+path, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
}

func createLab(t *testing.T, server *httptest.Server, token, name string) model.Lab {
	t.Helper()
	var lab model.Lab
	do(t, server, token, "POST", "/api/labs", map[string]string{"name": name}, http.StatusCreated, &lab)
	return lab
}

func createItem(t *testing.T, server *httptest.Server, token string, labID int64, name string, working int) model.Item {
	t.Helper()
	var item model.Item
	do(t, server, token, "POST", "/api/items", ledger.ItemInput{
		Name:         name,
		Category:     "Optics",
		TotalCount:   working,
		WorkingCount: working,
		LabID:        labID,
	}, http.StatusCreated, &item)
	return item
}

// createLabUser creates a lab-role user and returns its token.
func createLabUser(t *testing.T, server *httptest.Server, token string, labID int64, email string) string {
	t.Helper()
	do(t, server, token, "POST", "/api/users", map[string]any{
		"name":     "Lab User",
		"email":    email,
		"password": "labpassword",
		"role":     model.RoleLab,
		"lab_id":   labID,
	}, http.StatusCreated, nil)
	return login(t, server, email, "labpassword")
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Email is case-insensitive.
	login(t, server, "ADMIN@example.com", "password")
}

func TestMissingToken(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	do(t, server, token, "GET", "/api/auth/me", nil, http.StatusOK, nil)
	do(t, server, token, "POST", "/api/auth/logout", nil, http.StatusOK, nil)
	do(t, server, token, "GET", "/api/auth/me", nil, http.StatusUnauthorized, nil)
}

func TestDeletedUserLosesAccess(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Physics")
	labToken := createLabUser(t, server, token, lab.ID, "physics@example.com")

	var users []model.User
	do(t, server, token, "GET", "/api/users", nil, http.StatusOK, &users)
	var labUserID int64
	for _, u := range users {
		if u.Email == "physics@example.com" {
			labUserID = u.ID
		}
	}
	if labUserID == 0 {
		t.Fatal("lab user not listed")
	}

	do(t, server, labToken, "GET", "/api/items", nil, http.StatusOK, nil)
	do(t, server, token, "DELETE", fmt.Sprintf("/api/users/%d", labUserID), nil, http.StatusOK, nil)
	do(t, server, labToken, "GET", "/api/items", nil, http.StatusUnauthorized, nil)
}

func TestErrorStatusMapping(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Chemistry")
	other := createLab(t, server, token, "Biology")
	item := createItem(t, server, token, lab.ID, "Microscope", 4)
	labToken := createLabUser(t, server, token, other.ID, "bio@example.com")

	// Validation: counts do not add up.
	do(t, server, token, "POST", "/api/items", ledger.ItemInput{
		Name: "Scale", Category: "Tools", TotalCount: 5, WorkingCount: 2, LabID: lab.ID,
	}, http.StatusBadRequest, nil)

	// Not found.
	do(t, server, token, "GET", "/api/items/9999", nil, http.StatusNotFound, nil)

	// Forbidden: item in another lab.
	do(t, server, labToken, "GET", fmt.Sprintf("/api/items/%d", item.ID), nil, http.StatusForbidden, nil)

	// Forbidden: admin-only route.
	do(t, server, labToken, "GET", "/api/users", nil, http.StatusForbidden, nil)

	// Conflict: stale version.
	do(t, server, token, "PUT", fmt.Sprintf("/api/items/%d/status", item.ID), ledger.StatusInput{
		WorkingCount: 3, DamagedCount: 1, ExpectedVersion: item.Version + 5,
	}, http.StatusConflict, nil)

	// Conflict: duplicate lab name.
	do(t, server, token, "POST", "/api/labs", map[string]string{"name": "Chemistry"}, http.StatusConflict, nil)
}

func TestLabDeleteInUse(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Optics")
	createItem(t, server, token, lab.ID, "Laser", 1)

	do(t, server, token, "DELETE", fmt.Sprintf("/api/labs/%d", lab.ID), nil, http.StatusConflict, nil)

	empty := createLab(t, server, token, "Empty")
	do(t, server, token, "DELETE", fmt.Sprintf("/api/labs/%d", empty.ID), nil, http.StatusOK, nil)
}

func TestTransferFlow(t *testing.T) {
	server, token := setupTestServer(t)
	from := createLab(t, server, token, "Main")
	to := createLab(t, server, token, "Annex")
	item := createItem(t, server, token, from.ID, "Oscilloscope", 10)

	var res ledger.TransferResult
	do(t, server, token, "POST", "/api/transfers", ledger.TransferInput{
		ItemID: item.ID, FromLabID: from.ID, ToLabID: to.ID, Quantity: 3,
	}, http.StatusCreated, &res)

	if !res.Created {
		t.Error("expected destination item to be created")
	}
	if res.From.WorkingCount != 7 || res.From.TotalCount != 7 {
		t.Errorf("source counts: working=%d total=%d", res.From.WorkingCount, res.From.TotalCount)
	}
	if res.To.WorkingCount != 3 || res.To.LabID != to.ID {
		t.Errorf("destination: working=%d lab=%d", res.To.WorkingCount, res.To.LabID)
	}

	// More than is available.
	do(t, server, token, "POST", "/api/transfers", ledger.TransferInput{
		ItemID: item.ID, FromLabID: from.ID, ToLabID: to.ID, Quantity: 100,
	}, http.StatusBadRequest, nil)

	var history []model.Transfer
	do(t, server, token, "GET", fmt.Sprintf("/api/items/%d/history", item.ID), nil, http.StatusOK, &history)
	if len(history) != 1 {
		t.Errorf("expected 1 transfer in history, got %d", len(history))
	}
}

func TestStockRequestFlow(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Robotics")
	item := createItem(t, server, token, lab.ID, "Servo", 2)
	labToken := createLabUser(t, server, token, lab.ID, "robotics@example.com")

	var req model.StockRequest
	do(t, server, labToken, "POST", "/api/requests", map[string]any{
		"item_id": item.ID, "requested_qty": 5,
	}, http.StatusCreated, &req)

	// Lab users cannot decide.
	do(t, server, labToken, "POST", fmt.Sprintf("/api/requests/%d/approve", req.ID), nil, http.StatusForbidden, nil)

	var decided model.StockRequest
	do(t, server, token, "POST", fmt.Sprintf("/api/requests/%d/approve", req.ID), nil, http.StatusOK, &decided)
	if decided.Status != model.RequestApproved {
		t.Errorf("expected approved, got %q", decided.Status)
	}

	// Already decided.
	do(t, server, token, "POST", fmt.Sprintf("/api/requests/%d/reject", req.ID), nil, http.StatusConflict, nil)
}

func TestItemsExportImport(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Electronics")
	createItem(t, server, token, lab.ID, "Multimeter", 6)

	req, _ := authRequest("GET", server.URL+"/api/items/export", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	exported, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), ".csv") {
		t.Errorf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	if !strings.HasPrefix(string(exported), "name,category,totalCount") {
		t.Errorf("unexpected export header: %q", exported)
	}

	csv := "name,category,totalCount,workingCount,damagedCount,lostCount,labName\n" +
		"Multimeter,Optics,8,8,0,0,Electronics\n" +
		"Soldering Iron,Tools,2,1,1,0,Electronics\n" +
		"Bad,Tools,2,5,0,0,Electronics\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "items.csv")
	fw.Write([]byte(csv))
	mw.Close()

	req, _ = http.NewRequest("POST", server.URL+"/api/items/import", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result ledger.ImportResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Created != 1 || result.Updated != 1 || result.Failed != 1 {
		t.Errorf("unexpected import result: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 4 {
		t.Errorf("unexpected import errors: %+v", result.Errors)
	}
}

func TestMaintenanceFlow(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Workshop")
	item := createItem(t, server, token, lab.ID, "Lathe", 1)

	do(t, server, token, "POST", "/api/maintenance", map[string]any{
		"item_id": item.ID, "date": "2026-03-04", "cost": "120.50", "type": "repair",
	}, http.StatusCreated, nil)
	do(t, server, token, "POST", "/api/maintenance", map[string]any{
		"item_id": item.ID, "date": "not-a-date", "cost": "1",
	}, http.StatusBadRequest, nil)

	var records []model.MaintenanceRecord
	do(t, server, token, "GET", "/api/maintenance?start=2026-03-01&end=2026-03-31", nil, http.StatusOK, &records)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	var sum ledger.Summary
	do(t, server, token, "GET", "/api/maintenance/summary", nil, http.StatusOK, &sum)
	if len(sum.TopItems) != 1 || sum.TopItems[0].Total.String() != "120.5" {
		t.Errorf("unexpected summary: %+v", sum.TopItems)
	}

	do(t, server, token, "GET", "/api/maintenance/summary?limit=0", nil, http.StatusBadRequest, nil)

	req, _ := authRequest("GET", server.URL+"/api/maintenance/template", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	tmpl, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(string(tmpl), "date,itemId,cost,type,vendor,notes") {
		t.Errorf("unexpected template: %q", tmpl)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := range 20 {
		img.Set(x, 5, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestComplaintAttachments(t *testing.T) {
	server, token := setupTestServer(t)
	lab := createLab(t, server, token, "Materials")
	labToken := createLabUser(t, server, token, lab.ID, "materials@example.com")

	var c model.Complaint
	do(t, server, labToken, "POST", "/api/complaints", map[string]any{
		"title": "Broken fume hood", "severity": model.SeverityMedium,
	}, http.StatusCreated, &c)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.png", "b.png"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write(pngBytes(t))
	}
	mw.Close()

	req, _ := http.NewRequest("POST", fmt.Sprintf("%s/api/complaints/%d/attachments", server.URL, c.ID), &buf)
	req.Header.Set("Authorization", "Bearer "+labToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var updated model.Complaint
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(updated.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(updated.Attachments))
	}

	req, _ = authRequest("GET", server.URL+updated.Attachments[0].URL, labToken, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("attachment is not a JPEG")
	}

	// Only admins change status.
	do(t, server, labToken, "PUT", fmt.Sprintf("/api/complaints/%d/status", c.ID),
		map[string]string{"status": model.ComplaintResolved}, http.StatusForbidden, nil)
	do(t, server, token, "PUT", fmt.Sprintf("/api/complaints/%d/status", c.ID),
		map[string]string{"status": model.ComplaintResolved, "admin_comment": "Replaced filter"}, http.StatusOK, nil)
}
