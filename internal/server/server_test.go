package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/sendparcel/internal/server"
	"github.com/tournevent/sendparcel/internal/telemetry"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
	"github.com/tournevent/sendparcel/pkg/sendparcel/sendparceltest"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type fixture struct {
	api     *sendparceltest.Server
	handler http.Handler
}

func newTestServer(t *testing.T) *fixture {
	t.Helper()

	api := sendparceltest.NewServer()
	api.APIKey = "gateway-key"
	t.Cleanup(api.Close)

	reg := prometheus.NewRegistry()
	logger := otelzap.New(zap.NewNop())
	client, err := sendparcel.New(sendparcel.Config{APIKey: api.APIKey, Sandbox: true}, logger, nil,
		sendparcel.WithHTTPClient(api.HTTPClient()),
		sendparcel.WithMetrics(telemetry.NewMetrics(reg)),
	)
	require.NoError(t, err)

	srv := server.New(server.Config{Port: 8080}, client, logger, reg)
	return &fixture{api: api, handler: srv.Handler()}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(server.RequestIDHeader))
}

func TestServer_RequestIDIsPreserved(t *testing.T) {
	f := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(server.RequestIDHeader))
}

func TestServer_Operations(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodGet, "/v1/operations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sandbox    bool `json:"sandbox"`
		Operations []struct {
			Operation string `json:"operation"`
			Method    string `json:"method"`
			URL       string `json:"url"`
		} `json:"operations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.True(t, resp.Sandbox)
	assert.Len(t, resp.Operations, len(sendparcel.Endpoints()))
	assert.Equal(t, "me", resp.Operations[0].Operation)
	assert.Equal(t, sendparcel.SandboxBaseURL+"me", resp.Operations[0].URL)
}

func TestServer_Call_PostcodeDetails(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodPost, "/v1/get_postcode_details", `{"postcode":"08000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env sendparcel.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Status)
	assert.Equal(t, "success", env.Message)

	var data sendparceltest.PostcodeDetails
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, "Sungai Petani", data.City)

	last, ok := f.api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "08000", last.Form.Get("postcode"))
	assert.Equal(t, f.api.APIKey, last.Form.Get("api_key"))
	assert.Equal(t, rec.Header().Get(server.RequestIDHeader), last.Header.Get(server.RequestIDHeader))
}

func TestServer_Call_RejectedEnvelopeIsVerbatim(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodPost, "/v1/get_postcode_details", `{"postcode":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Missing [postcode] parameter/value"}`, rec.Body.String())
}

func TestServer_Call_EmptyBody(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodPost, "/v1/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	last, ok := f.api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "api_key="+f.api.APIKey, last.Body)
}

func TestServer_Call_UnknownOperation(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodPost, "/v1/launch_rocket", `{}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "launch_rocket")
	assert.Empty(t, f.api.Requests())
}

func TestServer_Call_InvalidJSON(t *testing.T) {
	f := newTestServer(t)

	for _, body := range []string{`{not json`, `[1,2]`, `null`} {
		rec := f.do(http.MethodPost, "/v1/me", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, f.api.Requests())
}

func TestServer_Call_UpstreamError(t *testing.T) {
	f := newTestServer(t)
	f.api.SimulateErrors = true

	rec := f.do(http.MethodPost, "/v1/me", `{}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "HTTP 503")
	assert.NotEmpty(t, resp["request_id"])
}

func TestServer_Call_MethodNotAllowed(t *testing.T) {
	f := newTestServer(t)

	rec := f.do(http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	f := newTestServer(t)

	f.do(http.MethodPost, "/v1/get_postcode_details", `{"postcode":"08000"}`)
	f.do(http.MethodPost, "/v1/get_postcode_details", `{"postcode":"0"}`)

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `sendparcel_requests_total{method="POST",operation="get_postcode_details",status="ok"} 1`)
	assert.Contains(t, body, `sendparcel_requests_total{method="POST",operation="get_postcode_details",status="rejected"} 1`)
	assert.Contains(t, body, "sendparcel_request_duration_seconds")
}
