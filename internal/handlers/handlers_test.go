package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resource-locator/internal/apperror"
	"resource-locator/internal/config"
	"resource-locator/internal/geocode"
	"resource-locator/internal/models"
	"resource-locator/internal/notify"
	"resource-locator/internal/routes"
	"resource-locator/internal/search"
	"resource-locator/internal/store"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGeocoder struct {
	results map[string]*geocode.Result
	err     error
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: address is required", apperror.ErrInvalidInput)
	}
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[address]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("no results for %q: %w", address, apperror.ErrNotFound)
}

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testServer struct {
	router    http.Handler
	geocoder  *stubGeocoder
	events    *recordingPublisher
	notifier  *notify.Notifier
	resources *store.ResourceStore
}

func newTestServer(t *testing.T, auth config.AuthConfig) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:            "test",
		Database:       config.DatabaseConfig{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "api.db")},
		Search:         config.SearchConfig{NearbyLimit: 3, Diagnoses: []string{"ADHD", "Anxiety"}},
		Submissions:    config.SubmissionsConfig{PageSize: 10},
		Auth:           auth,
		CORS:           config.CORSConfig{AllowOrigins: []string{"*"}},
		Map:            config.MapConfig{DefaultLat: 34.0522, DefaultLng: -118.2437},
		RequestTimeout: 5 * time.Second,
	}

	db, err := config.ConnectDB(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDB(db) })
	require.NoError(t, config.Migrate(db))

	gc := &stubGeocoder{results: map[string]*geocode.Result{
		"New York": {Latitude: 40.7128, Longitude: -74.0060, Provider: "stub", Raw: json.RawMessage(`{"status":"OK","results":[{"formatted_address":"New York"}]}`)},
	}}
	events := &recordingPublisher{}
	notifier := notify.NewNotifier(events, zap.NewNop())
	t.Cleanup(func() { _ = notifier.Close() })
	resources := store.NewResourceStore(db)

	router := routes.NewRouter(testContext(t), routes.Deps{
		Config:      cfg,
		Logger:      zap.NewNop(),
		Resources:   resources,
		Submissions: store.NewSubmissionStore(db),
		Search:      search.NewService(resources, gc, cfg.Search.NearbyLimit),
		Notifier:    notifier,
	})
	return &testServer{router: router, geocoder: gc, events: events, notifier: notifier, resources: resources}
}

// delivered stops the notifier once every queued event has been published
// and returns what the publisher received.
func (s *testServer) delivered(t *testing.T) []notify.Event {
	t.Helper()
	require.NoError(t, s.notifier.Close())
	return s.events.events
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createResource(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/resources", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[map[string]string](t, w)
	assert.Equal(t, "Resource created successfully", created["message"])
	require.NotEmpty(t, created["id"])
	return created["id"]
}

func TestPing(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	w := s.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[utils.Response](t, w).Success)
}

func TestCreateAndGetResource(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})

	contact := map[string]interface{}{
		"phone": "555-0100",
		"hours": map[string]interface{}{"mon": "9-5", "sun": nil},
		"tags":  []interface{}{"walk-in", float64(24)},
	}
	id := s.createResource(t, map[string]interface{}{
		"name":         "Harbor Clinic",
		"description":  "Counselling",
		"latitude":     40.7128,
		"longitude":    -74.0060,
		"diagnoses":    []string{"Anxiety"},
		"address":      "1 Harbor St",
		"contact_info": contact,
	})
	events := s.delivered(t)
	require.Len(t, events, 1)
	assert.Equal(t, notify.ResourceCreated, events[0].Type)

	w := s.do(t, http.MethodGet, "/api/resources/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string]interface{}](t, w)
	assert.Equal(t, id, got["id"])
	assert.Equal(t, contact, got["contact_info"])
	assert.Equal(t, []interface{}{"Anxiety"}, got["diagnoses"])
	assert.Equal(t, 40.7128, got["latitude"])
}

func TestCreateResourceValidation(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})

	w := s.do(t, http.MethodPost, "/api/resources", map[string]interface{}{"description": "no name"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode[utils.Response](t, w).Success)

	w = s.do(t, http.MethodPost, "/api/resources", map[string]interface{}{"name": "x", "description": "y", "latitude": 95.0, "longitude": 0.0}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.delivered(t))
}

func TestGetResourceNotFound(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	w := s.do(t, http.MethodGet, "/api/resources/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", decode[utils.Response](t, w).Message)
}

func TestUpdateResourceReplacesEveryField(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	id := s.createResource(t, map[string]interface{}{
		"name": "Old", "description": "old", "latitude": 1.0, "longitude": 2.0,
		"diagnoses": []string{"ADHD"}, "address": "somewhere", "contact_info": map[string]interface{}{"a": "b"},
	})

	w := s.do(t, http.MethodPut, "/api/resources/"+id, map[string]interface{}{"name": "New", "description": "new"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[map[string]interface{}](t, w)
	assert.Equal(t, "New", got["name"])
	assert.Nil(t, got["latitude"])
	assert.Nil(t, got["longitude"])
	assert.Equal(t, []interface{}{}, got["diagnoses"])
	assert.Equal(t, map[string]interface{}{}, got["contact_info"])
	assert.Equal(t, "", got["address"])

	w = s.do(t, http.MethodPut, "/api/resources/missing", map[string]interface{}{"name": "New", "description": "new"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNearbyResources(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	for i := 0; i < 5; i++ {
		s.createResource(t, map[string]interface{}{
			"name": fmt.Sprintf("r%d", i), "description": "d",
			"latitude": 40.0 + float64(i)*0.01, "longitude": -74.0,
		})
	}
	s.createResource(t, map[string]interface{}{"name": "unlocated", "description": "d"})

	w := s.do(t, http.MethodGet, "/api/resources/nearby?latitude=40&longitude=-74", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]models.NearbyResource](t, w)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"r0", "r1", "r2"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.InDelta(t, 0, got[0].Distance, 1e-6)
	assert.Less(t, got[1].Distance, got[2].Distance)

	for _, q := range []string{"", "?latitude=40", "?latitude=abc&longitude=1", "?latitude=91&longitude=0"} {
		w := s.do(t, http.MethodGet, "/api/resources/nearby"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestSearchResources(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	s.createResource(t, map[string]interface{}{
		"name": "Anxiety Center", "description": "d", "latitude": 40.7128, "longitude": -74.0060,
		"diagnoses": []string{"Anxiety", "Depression"},
	})
	s.createResource(t, map[string]interface{}{
		"name": "ADHD Center", "description": "d", "latitude": 40.7138, "longitude": -74.0060,
		"diagnoses": []string{"ADHD"},
	})
	s.createResource(t, map[string]interface{}{
		"name": "Far Center", "description": "d", "latitude": 41.5, "longitude": -74.0060,
		"diagnoses": []string{"Anxiety"},
	})

	w := s.do(t, http.MethodGet, "/api/resources/search?address=New+York&radius=5000&q=Anxiety", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[[]models.NearbyResource](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "Anxiety Center", got[0].Name)
	assert.InDelta(t, 0, got[0].Distance, 1e-6)

	w = s.do(t, http.MethodGet, "/api/resources/search?lat=40.7128&lon=-74.0060&radius=5000&q=ADHD,Anxiety", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[[]models.NearbyResource](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, "Anxiety Center", got[0].Name)
	assert.Equal(t, "ADHD Center", got[1].Name)

	w = s.do(t, http.MethodGet, "/api/resources/search?lat=40.7128&lon=-74.0060&radius=5000&q=Autism", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSearchResourcesErrors(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})

	w := s.do(t, http.MethodGet, "/api/resources/search?lat=1&lon=1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing radius")

	w = s.do(t, http.MethodGet, "/api/resources/search?radius=100", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing origin")

	w = s.do(t, http.MethodGet, "/api/resources/search?address=Atlantis&radius=100", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.geocoder.err = fmt.Errorf("%w: timeout", apperror.ErrUpstream)
	w = s.do(t, http.MethodGet, "/api/resources/search?address=New+York&radius=100", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Geocoding service unavailable, please try again", decode[utils.Response](t, w).Message)
}

func TestGeocodePassthrough(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})

	w := s.do(t, http.MethodGet, "/api/geocode?address=New+York", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","results":[{"formatted_address":"New York"}]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/geocode", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/geocode?address=Atlantis", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No results found for this address", decode[utils.Response](t, w).Message)
}

type listResponse struct {
	Data       []models.Submission `json:"data"`
	Pagination models.Pagination   `json:"pagination"`
}

func TestSubmissionsFlow(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})

	for i := 0; i < 12; i++ {
		w := s.do(t, http.MethodPost, "/api/submit-data", map[string]string{
			"name": fmt.Sprintf("Person %d", i), "email": fmt.Sprintf("p%d@example.org", i), "message": "hello",
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"message":"Success"}`, w.Body.String())
	}
	assert.Len(t, s.delivered(t), 12)

	w := s.do(t, http.MethodGet, "/api/submissions?page=2&limit=5&sortBy=id&sortOrder=asc", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[listResponse](t, w)
	assert.Equal(t, models.Pagination{Total: 12, Page: 2, Limit: 5, TotalPages: 3}, page.Pagination)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "Person 5", page.Data[0].Name)

	w = s.do(t, http.MethodGet, "/api/submissions?search=person+1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[listResponse](t, w)
	assert.Equal(t, int64(3), page.Pagination.Total) // 1, 10, 11
	assert.Equal(t, 10, page.Pagination.Limit)

	id := page.Data[0].ID
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/submissions/%d", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Submission deleted"}`, w.Body.String())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/submissions/%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/api/submissions/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionsRejectBadQueries(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	for _, q := range []string{
		"sortBy=name%3BDROP+TABLE+form_submissions",
		"sortOrder=up",
		"dateFilter=decade",
		"page=0",
		"limit=-1",
		"limit=1000",
	} {
		w := s.do(t, http.MethodGet, "/api/submissions?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w := s.do(t, http.MethodPost, "/api/submit-data", map[string]string{"name": "A", "email": "a@example.org"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)
	s := newTestServer(t, config.AuthConfig{
		JWTSecret:         "s3cret",
		AdminEmail:        "ops@example.org",
		AdminPasswordHash: hash,
		TokenTTL:          time.Hour,
	})

	w := s.do(t, http.MethodGet, "/api/submissions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/api/resources", map[string]string{"name": "x", "description": "y"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@example.org", "password": "wrong horse"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "OPS@example.org", "password": "correct horse"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}](t, w)
	require.NotEmpty(t, login.Data.Token)

	w = s.do(t, http.MethodGet, "/api/submissions", nil, login.Data.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/resources/nearby?latitude=1&longitude=1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, "public routes stay open")
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	s.createResource(t, map[string]interface{}{"name": "a", "description": "d", "latitude": 1.0, "longitude": 1.0})
	s.createResource(t, map[string]interface{}{"name": "b", "description": "d"})
	s.do(t, http.MethodPost, "/api/submit-data", map[string]string{"name": "n", "email": "e", "message": "m"}, "")

	w := s.do(t, http.MethodGet, "/api/admin/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Data models.Stats `json:"data"`
	}](t, w)
	assert.Equal(t, models.Stats{Resources: 2, ResourcesUnlocated: 1, Submissions: 1, SubmissionsLastWeek: 1}, got.Data)
}

func TestClientConfig(t *testing.T) {
	s := newTestServer(t, config.AuthConfig{})
	w := s.do(t, http.MethodGet, "/api/config", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "Client configuration",
		"data": {
			"defaultCenter": {"latitude": 34.0522, "longitude": -118.2437},
			"diagnoses": ["ADHD", "Anxiety"],
			"pageSize": 10,
			"nearbyLimit": 3
		}
	}`, w.Body.String())
}

// testContext returns a context that is cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
