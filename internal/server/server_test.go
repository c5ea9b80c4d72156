package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot-dev/adspot/internal/auth"
	"github.com/adspot-dev/adspot/internal/config"
	"github.com/adspot-dev/adspot/internal/database/dbtest"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/models"
)

type fakeEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeEnqueuer) EnqueueForward(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

type fakeGenerator struct {
	text string
}

func (f fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.text, nil
}

type fakeImageStore struct {
	keys []string
}

func (f *fakeImageStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := &config.Config{
		HTTP:  config.HTTPConfig{Port: "0", AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:  config.AuthConfig{TokenTTL: time.Hour},
		Relay: config.RelayConfig{MaxAttempts: 3},
	}
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	all := append([]Option{WithDB(dbtest.Open(t)), WithBus(bus)}, opts...)
	s, err := New(cfg, zerolog.Nop(), "test", all...)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// setupAdmin runs first-run setup and returns the admin's token and ID
func setupAdmin(t *testing.T, s *Server) (string, string) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/setup", "", obj{
		"email":    "Admin@Example.com",
		"password": "password123",
		"name":     "Admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[LoginResponse](t, w)
	return resp.Token, resp.User.ID
}

// createMember adds a user without the admin role and returns its token and ID
func createMember(t *testing.T, s *Server, email string) (string, string) {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: hash, Name: "Member"}
	require.NoError(t, s.db.Create(user).Error)
	token, err := s.tokens.Generate(user.ID, user.Email, user.SessionVersion)
	require.NoError(t, err)
	return token, user.ID
}

type obj = map[string]any

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[obj](t, w)
	assert.Equal(t, "adspot-api", body["service"])
	assert.Equal(t, "test", body["version"])
}

func TestSetup_OnlyOnce(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/setup", "", obj{
		"email": "admin@example.com", "password": "password123", "name": "Admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[LoginResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.IsAdmin)

	var config models.Config
	require.NoError(t, s.db.First(&config).Error)
	assert.Len(t, config.JWTSecret, 64)
	assert.NotEmpty(t, config.ForwardSchedule)

	w = doJSON(t, s, http.MethodPost, "/api/setup", "", obj{
		"email": "second@example.com", "password": "password123", "name": "Second",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSetup_Validation(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/setup", "", obj{
		"email": "not-an-email", "password": "123", "name": "",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[obj](t, w)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["details"], 3)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	setupAdmin(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/auth/login", "", obj{
		"email": "admin@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", obj{
		"email": "ADMIN@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[LoginResponse](t, w)
	assert.True(t, resp.User.IsAdmin)

	w = doJSON(t, s, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[UserDetail](t, w)
	assert.Equal(t, "admin@example.com", me.Email)
	assert.True(t, me.IsAdmin)
}

func TestAdminAccess(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := setupAdmin(t, s)
	memberToken, memberID := createMember(t, s, "member@example.com")

	t.Run("no token", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/admin/billboards", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode[obj](t, w)
		assert.Equal(t, "/login", body["redirect"])
		assert.Nil(t, body["notice"])
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/admin/billboards", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not an admin", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/admin/billboards", memberToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		body := decode[obj](t, w)
		assert.Equal(t, "/", body["redirect"])
		notice, ok := body["notice"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Access Denied", notice["title"])
		assert.Contains(t, notice["detail"], memberID)
	})

	t.Run("admin", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/api/admin/billboards", adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLogout_RevokesTokens(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/admin/billboards", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillboards(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/admin/billboards", token, obj{
		"name":              "Sunset Strip",
		"location":          "8500 Sunset Blvd, Los Angeles",
		"lat":               34.09,
		"lng":               -118.38,
		"size":              "20' x 60'",
		"weeklyImpressions": 150000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[obj](t, w)
	id := created["id"].(string)
	assert.Equal(t, "20' x 60'", created["displaySize"])

	w = doJSON(t, s, http.MethodGet, "/api/billboards", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]obj](t, w), 1)

	w = doJSON(t, s, http.MethodPost, "/api/admin/billboards/"+id+"/pause", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[obj](t, w)["isPaused"])

	w = doJSON(t, s, http.MethodGet, "/api/billboards", "", nil)
	assert.Empty(t, decode[[]obj](t, w))
	w = doJSON(t, s, http.MethodGet, "/api/billboards/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, s, http.MethodGet, "/api/admin/billboards/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/admin/billboards", token, obj{
		"name":              "X",
		"location":          "here",
		"size":              "20 x 60",
		"weeklyImpressions": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/admin/billboards/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, s, http.MethodDelete, "/api/admin/billboards/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadBillboardImage(t *testing.T) {
	images := &fakeImageStore{}
	s := newTestServer(t, WithImageStore(images))
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/admin/billboards", token, obj{
		"name":              "Harbor Freeway",
		"location":          "110 Freeway, Los Angeles",
		"size":              "14 x 48",
		"weeklyImpressions": 90000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[obj](t, w)["id"].(string)

	upload := func(contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="face.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/billboards/"+id+"/images", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	w = upload("image/png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[obj](t, w)
	require.Len(t, images.keys, 1)
	url := "https://cdn.example.com/" + images.keys[0]
	assert.Equal(t, url, view["imageId"])
	assert.Equal(t, []any{url}, view["images"])
	assert.True(t, strings.HasPrefix(images.keys[0], "billboards/"+id+"/"))

	w = upload("application/pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadBillboardImage_NotConfigured(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)
	w := doJSON(t, s, http.MethodPost, "/api/admin/billboards/missing/images", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInquiries(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := newTestServer(t, WithEnqueuer(enq))
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/inquiries", "", obj{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"company": "Acme",
		"message": "We'd like the Sunset Strip board for June.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[obj](t, w)["id"].(string)
	assert.Equal(t, []string{id}, enq.ids)

	w = doJSON(t, s, http.MethodPost, "/api/inquiries", "", obj{
		"name":  "Jane Doe",
		"email": "jane",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/admin/inquiries", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]obj](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Jane Doe", list[0]["name"])
	assert.Contains(t, list[0]["submitted"], " at ")
}

func TestAbout(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/about", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[obj](t, w)["companyName"])

	w = doJSON(t, s, http.MethodPut, "/api/admin/about", token, obj{"name": "Only a name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/admin/about", token, obj{
		"name":        "Maria Santos",
		"companyName": "AdSpot Media",
		"address":     "1 Main St, Springfield",
		"phone":       "+1 555 0100",
		"email":       "hello@adspot.example",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/api/about", "", nil)
	assert.Equal(t, "AdSpot Media", decode[obj](t, w)["companyName"])
}

func TestSuggestions(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t)
		w := doJSON(t, s, http.MethodPost, "/api/suggestions", "", obj{
			"targetDemographic": "Young professionals in the city",
			"campaignGoals":     "Launch awareness for a coffee brand",
		})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("configured", func(t *testing.T) {
		s := newTestServer(t, WithGenerator(fakeGenerator{text: "1. Downtown transit hub"}))

		w := doJSON(t, s, http.MethodPost, "/api/suggestions", "", obj{
			"targetDemographic": "short",
			"campaignGoals":     "Launch awareness for a coffee brand",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, s, http.MethodPost, "/api/suggestions", "", obj{
			"targetDemographic": "Young professionals in the city",
			"campaignGoals":     "Launch awareness for a coffee brand",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "1. Downtown transit hub", decode[obj](t, w)["suggestedLocations"])
	})
}

func TestRoles(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := setupAdmin(t, s)
	memberToken, memberID := createMember(t, s, "member@example.com")

	w := doJSON(t, s, http.MethodDelete, "/api/admin/roles/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/admin/roles/missing-user", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/admin/roles/"+memberID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The grant applies to the member's existing token on its next request
	w = doJSON(t, s, http.MethodGet, "/api/admin/roles", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]RoleResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, adminID, list[0].UserID)
	assert.Equal(t, memberID, list[1].UserID)
	assert.Equal(t, adminID, list[1].GrantedByID)

	w = doJSON(t, s, http.MethodDelete, "/api/admin/roles/"+adminID, memberToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/admin/roles", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfig(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/admin/config", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*/15 * * * *", decode[ConfigResponse](t, w).ForwardSchedule)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", token, obj{"forwardSchedule": "every tuesday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", token, obj{"forwardSchedule": "0 * * * *"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ConfigResponse](t, w)
	assert.Equal(t, "0 * * * *", resp.ForwardSchedule)
	require.NotNil(t, resp.NextForwardAt)
	assert.Equal(t, 0, resp.NextForwardAt.Minute())

	w = doJSON(t, s, http.MethodPatch, "/api/admin/config", token, obj{"forwardSchedule": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[ConfigResponse](t, w).NextForwardAt)
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses server-sent events from r until it closes
func readEvents(r io.Reader, out chan<- sseEvent) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	var ev sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			out <- ev
			ev = sseEvent{}
		}
	}
}

func openStream(t *testing.T, ts *httptest.Server, token string) <-chan sseEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/admin/stream?token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", mediaType)

	events := make(chan sseEvent, 16)
	go readEvents(resp.Body, events)
	return events
}

// nextEvent returns the next non-keepalive event
func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed")
			if ev.name == "ping" {
				continue
			}
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for stream event")
		}
	}
}

func requireClosed(t *testing.T, events <-chan sseEvent) {
	t.Helper()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream should end after redirect")
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close")
	}
}

func TestAdminStream_Unauthenticated(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	events := openStream(t, ts, "")
	assert.Equal(t, sseEvent{name: "render", data: "loading"}, nextEvent(t, events))
	assert.Equal(t, sseEvent{name: "redirect", data: `{"to":"/login"}`}, nextEvent(t, events))
	requireClosed(t, events)
}

func TestAdminStream_NotAdmin(t *testing.T) {
	s := newTestServer(t)
	setupAdmin(t, s)
	token, memberID := createMember(t, s, "member@example.com")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	events := openStream(t, ts, token)
	assert.Equal(t, "render", nextEvent(t, events).name)

	notice := nextEvent(t, events)
	assert.Equal(t, "notice", notice.name)
	assert.Contains(t, notice.data, "Access Denied")
	assert.Contains(t, notice.data, memberID)

	assert.Equal(t, sseEvent{name: "redirect", data: `{"to":"/"}`}, nextEvent(t, events))
	requireClosed(t, events)
}

func TestAdminStream_GrantedThenSignedOut(t *testing.T) {
	s := newTestServer(t)
	token, _ := setupAdmin(t, s)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	events := openStream(t, ts, token)
	assert.Equal(t, sseEvent{name: "render", data: "loading"}, nextEvent(t, events))
	assert.Equal(t, sseEvent{name: "render", data: "content"}, nextEvent(t, events))

	w := doJSON(t, s, http.MethodPost, "/api/admin/billboards", token, obj{
		"name":              "Sunset Strip",
		"location":          "8500 Sunset Blvd, Los Angeles",
		"size":              "20 x 60",
		"weeklyImpressions": 150000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[obj](t, w)["id"].(string)

	change := nextEvent(t, events)
	assert.Equal(t, "billboard", change.name)
	assert.Contains(t, change.data, id)
	assert.Contains(t, change.data, `"action":"created"`)

	w = doJSON(t, s, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, sseEvent{name: "render", data: "loading"}, nextEvent(t, events))
	assert.Equal(t, sseEvent{name: "redirect", data: `{"to":"/login"}`}, nextEvent(t, events))
	requireClosed(t, events)
}

func TestAdminStream_RoleRevokedWhileGranted(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := setupAdmin(t, s)
	token, memberID := createMember(t, s, "member@example.com")
	w := doJSON(t, s, http.MethodPut, "/api/admin/roles/"+memberID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	events := openStream(t, ts, token)
	assert.Equal(t, sseEvent{name: "render", data: "loading"}, nextEvent(t, events))
	assert.Equal(t, sseEvent{name: "render", data: "content"}, nextEvent(t, events))

	w = doJSON(t, s, http.MethodDelete, "/api/admin/roles/"+memberID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	assert.Equal(t, sseEvent{name: "render", data: "loading"}, nextEvent(t, events))
	notice := nextEvent(t, events)
	assert.Equal(t, "notice", notice.name)
	assert.Contains(t, notice.data, "Access Denied")
	assert.Contains(t, notice.data, memberID)
	assert.Equal(t, sseEvent{name: "redirect", data: `{"to":"/"}`}, nextEvent(t, events))
	requireClosed(t, events)

	w = doJSON(t, s, http.MethodGet, "/api/admin/billboards", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
