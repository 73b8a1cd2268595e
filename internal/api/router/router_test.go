package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locdecoder/internal/core/model"
	"locdecoder/internal/core/repository"
	"locdecoder/internal/core/service"
)

const samplePacketHex = "787826221a010a07061dc503139e33084eadd10014e301940b0000429733010e000000000001252a060d0a"

func newTestRouter() http.Handler {
	svc := service.NewPositionService(repository.NewInMemoryPositionRepository(), nil, nil, zap.NewNop())
	return NewRouter(svc, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRawDataRoundTrip(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/api/positions/raw",
		`{"deviceId":"868120300000001","rawData":"`+samplePacketHex+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "gt06", created.Protocol)
	assert.Equal(t, 227.0, created.Course)

	rec = do(t, h, http.MethodGet, "/api/positions/latest?deviceId=868120300000001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest model.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, created.ID, latest.ID)

	rec = do(t, h, http.MethodGet, "/api/positions/list?deviceId=868120300000001&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestRawDataErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantReason string
	}{
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing device", body: `{"rawData":"` + samplePacketHex + `"}`, wantStatus: http.StatusBadRequest},
		{name: "bad hex", body: `{"deviceId":"d","rawData":"xyz"}`, wantStatus: http.StatusBadRequest, wantReason: "invalid_hex"},
		{name: "truncated", body: `{"deviceId":"d","rawData":"7878"}`, wantStatus: http.StatusUnprocessableEntity, wantReason: "truncated"},
		{name: "framing", body: `{"deviceId":"d","rawData":"7e0200007e"}`, wantStatus: http.StatusUnprocessableEntity, wantReason: "invalid_framing"},
		{name: "heartbeat", body: `{"deviceId":"d","rawData":"78780513000100000d0a"}`, wantStatus: http.StatusUnprocessableEntity, wantReason: "unsupported_type"},
	}

	h := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/positions/raw", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Equal(t, tt.wantReason, resp["reason"])
		})
	}
}

func TestQueryEndpoints(t *testing.T) {
	h := newTestRouter()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/positions/latest?deviceId=none", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/positions/latest", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/positions/list?deviceId=a&limit=-1", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/positions/raw", "").Code)

	rec := do(t, h, http.MethodGet, "/api/positions/list?deviceId=none", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gt06_packets_decoded_total")
}

func TestCORSPreflight(t *testing.T) {
	rec := do(t, newTestRouter(), http.MethodOptions, "/api/positions/raw", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListTimeRange(t *testing.T) {
	h := newTestRouter()
	rec := do(t, h, http.MethodPost, "/api/positions/raw",
		`{"deviceId":"dev","rawData":"`+samplePacketHex+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "window covers fix", query: "&from=2026-01-10T07:00:00Z&to=2026-01-10T07:06:29Z", wantStatus: http.StatusOK, wantCount: 1},
		{name: "window after fix", query: "&from=2026-01-10T08:00:00Z", wantStatus: http.StatusOK, wantCount: 0},
		{name: "window before fix", query: "&to=2026-01-10T07:06:28%2B00:00", wantStatus: http.StatusOK, wantCount: 0},
		{name: "bad from", query: "&from=yesterday", wantStatus: http.StatusBadRequest},
		{name: "bad to", query: "&to=2026-01-10", wantStatus: http.StatusBadRequest},
		{name: "reversed", query: "&from=2026-01-11T00:00:00Z&to=2026-01-10T00:00:00Z", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/positions/list?deviceId=dev"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var list []model.Position
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
			assert.Len(t, list, tt.wantCount)
		})
	}
}

func TestLatestOfAllDevices(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodGet, "/api/positions/latest/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, id := range []string{"dev-b", "dev-a", "dev-a"} {
		rec := do(t, h, http.MethodPost, "/api/positions/raw", `{"deviceId":"`+id+`","rawData":"`+samplePacketHex+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/positions/latest/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "dev-a", list[0].DeviceID)
	assert.Equal(t, "dev-b", list[1].DeviceID)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/positions/latest/all", "").Code)
}
