package raffle_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-raffle/internal/logger"
	"ms-raffle/internal/models"
	"ms-raffle/internal/raffle/raffle_api"
	raffle "ms-raffle/internal/raffle/service"
)

// mockEntryService simulates the entry service over an in-memory map.
type mockEntryService struct {
	counts      map[int64]int
	failWith    error
	enterCalls  int
	statusCalls int
}

func newMockEntryService() *mockEntryService {
	return &mockEntryService{counts: make(map[int64]int)}
}

func (m *mockEntryService) Status(_ context.Context, userID int64) (int, error) {
	m.statusCalls++
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.counts[userID], nil
}

func (m *mockEntryService) Enter(_ context.Context, userID int64) (int, error) {
	m.enterCalls++
	if m.failWith != nil {
		return 0, m.failWith
	}
	m.counts[userID]++
	return m.counts[userID], nil
}

func setupRouter(service *mockEntryService) http.Handler {
	h := raffle_api.NewHandler(service, logger.NewLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postEntry(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/raffle-entry", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getStatus(t *testing.T, router http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/raffle-status?userId="+userID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEntryThenStatus(t *testing.T) {
	service := newMockEntryService()
	router := setupRouter(service)

	// Fresh store: first entry for user 123 grants ticket number one
	rec := postEntry(t, router, `{"userId":123}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var entryResp models.RaffleEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entryResp))
	assert.True(t, entryResp.Success)
	assert.Equal(t, 1, entryResp.Tickets)

	// Status reflects the grant
	rec = getStatus(t, router, "123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var statusResp models.RaffleStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	assert.Equal(t, 1, statusResp.Tickets)
}

func TestStatusUnseenUser(t *testing.T) {
	service := newMockEntryService()
	router := setupRouter(service)

	rec := getStatus(t, router, "777")
	require.Equal(t, http.StatusOK, rec.Code)

	var statusResp models.RaffleStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	assert.Equal(t, 0, statusResp.Tickets)
}

func TestMalformedUserID(t *testing.T) {
	service := newMockEntryService()
	router := setupRouter(service)

	// Malformed identifiers are rejected, never coerced to account 0
	for _, userID := range []string{"abc", "", "12.5", "-1"} {
		rec := getStatus(t, router, userID)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "userId=%q", userID)
		assert.Contains(t, rec.Body.String(), "error")
	}

	for _, body := range []string{
		`{"userId":"abc"}`,
		`{"userId":-1}`,
		`{"userId":12.5}`,
		`{"userId":true}`,
		`{"userId":null}`,
		`{}`,
		`not json`,
	} {
		rec := postEntry(t, router, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}

	// The store was never touched
	assert.Equal(t, 0, service.enterCalls)
	assert.Equal(t, 0, service.statusCalls)
}

func TestEntryAcceptsQuotedNumericUserID(t *testing.T) {
	service := newMockEntryService()
	router := setupRouter(service)

	rec := postEntry(t, router, `{"userId":"123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var entryResp models.RaffleEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entryResp))
	assert.Equal(t, 1, entryResp.Tickets)
}

func TestStorageUnavailableMapsTo503(t *testing.T) {
	service := newMockEntryService()
	service.failWith = raffle.ErrStorageUnavailable
	router := setupRouter(service)

	rec := getStatus(t, router, "123")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = postEntry(t, router, `{"userId":123}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	// The failure is surfaced, not masked with a fabricated success
	assert.NotContains(t, rec.Body.String(), `"success":true`)
}

func TestRepeatedEntriesCount(t *testing.T) {
	service := newMockEntryService()
	router := setupRouter(service)

	// The entry command is not idempotent: every accepted call counts
	for want := 1; want <= 5; want++ {
		rec := postEntry(t, router, `{"userId":9}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var entryResp models.RaffleEntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entryResp))
		assert.Equal(t, want, entryResp.Tickets)
	}
	assert.Equal(t, 5, service.enterCalls)
}
