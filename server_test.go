package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/fetch"
	"github.com/akl7777777/ippure-panel/internal/lookup"
	"github.com/akl7777777/ippure-panel/internal/model"
)

type stubUpstream struct {
	api     *model.APIInfo
	apiErr  error
	page    string
	pageErr error
	asked   string
}

func (s *stubUpstream) FetchAPI(_ context.Context, _, ip string) (*model.APIInfo, error) {
	s.asked = ip
	if s.apiErr != nil {
		return nil, s.apiErr
	}
	out := *s.api
	return &out, nil
}

func (s *stubUpstream) FetchPage(_ context.Context, _, _ string) (string, error) {
	return s.page, s.pageErr
}

func score(v float64) *float64 { return &v }

func newTestServer(up *stubUpstream, authKey string) *Server {
	svc := lookup.New(lookup.Options{Upstream: up})
	s := NewServer(svc, authKey, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, model.AggregateResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var body model.AggregateResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestLookupMergesBothSources(t *testing.T) {
	up := &stubUpstream{
		api: &model.APIInfo{IP: "203.0.113.9", FraudScore: score(25), Country: "Japan", CountryCode: "JP", ASN: 2516},
		page: `<div>Bot流量比：12%</div><div>IP属性：机房IP</div>`,
	}
	s := newTestServer(up, "")

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/ippure?ip=203.0.113.9", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, body.Success)
	assert.Equal(t, "203.0.113.9", body.IP)
	assert.Equal(t, "2026-01-02T03:04:05Z", body.Timestamp)
	require.NotNil(t, body.Data)
	assert.Equal(t, 25.0, *body.Data.Score)
	assert.Equal(t, 12.0, *body.Data.BotRatio)
	assert.Equal(t, model.AttrDatacenter, body.Data.IPAttr)
	assert.Equal(t, &model.SourceFlags{API: true, Web: true}, body.Source)
	assert.Equal(t, "203.0.113.9", up.asked)
}

func TestRootPathServesLookup(t *testing.T) {
	up := &stubUpstream{api: &model.APIInfo{FraudScore: score(5)}, pageErr: errors.New("HTTP 503")}
	s := newTestServer(up, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	rec, body := do(t, s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "198.51.100.7", body.IP)
	assert.Equal(t, "198.51.100.7", body.Data.IP)
	assert.True(t, body.Data.Degraded)
	assert.Equal(t, &model.SourceFlags{API: true}, body.Source)
}

func TestTargetIPPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ippure", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.3")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	req.Header.Set("CF-Connecting-IP", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", targetIP(req))

	req = httptest.NewRequest(http.MethodGet, "/api/ippure?ip=192.0.2.44", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.1")
	assert.Equal(t, "192.0.2.44", targetIP(req))

	assert.Empty(t, targetIP(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(&stubUpstream{}, "")

	tests := []struct {
		url  string
		want string
	}{
		{"/api/ippure", "No IP provided. Use ?ip=x.x.x.x"},
		{"/api/ippure?ip=999.1.1.1", "Invalid IP format: 999.1.1.1"},
		{"/api/ippure?ip=not-an-ip", "Invalid IP format: not-an-ip"},
		{"/api/ippure?ip=192.168.1.1", "Private or reserved IP: 192.168.1.1"},
	}
	for _, tt := range tests {
		rec, body := do(t, s, httptest.NewRequest(http.MethodGet, tt.url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.url)
		assert.False(t, body.Success)
		assert.Equal(t, tt.want, body.Error)
	}
}

func TestBothSourcesFailed(t *testing.T) {
	up := &stubUpstream{
		apiErr:  &fetch.StatusError{Code: http.StatusBadGateway},
		pageErr: errors.New("connection reset"),
	}
	s := newTestServer(up, "")

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/ippure?ip=203.0.113.9", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Both API and Web requests failed", body.Error)
	assert.Equal(t, "203.0.113.9", body.IP)
	require.NotNil(t, body.Details)
	assert.Equal(t, "HTTP 502", body.Details.API)
	assert.Equal(t, "connection reset", body.Details.Web)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubUpstream{}, "secret")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","time":"2026-01-02T03:04:05Z"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	up := &stubUpstream{api: &model.APIInfo{FraudScore: score(5)}, page: ""}
	s := newTestServer(up, "secret")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ippure?ip=203.0.113.9", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, header := range []string{"Bearer secret", "secret"} {
		req := httptest.NewRequest(http.MethodGet, "/api/ippure?ip=203.0.113.9", nil)
		req.Header.Set("Authorization", header)
		rec = httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, header)
	}
}

func TestOptionsAndNotFound(t *testing.T) {
	s := newTestServer(&stubUpstream{}, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/ippure", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStats(t *testing.T) {
	s := newTestServer(&stubUpstream{}, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var stats model.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "none", stats.CacheBackend)
	assert.Len(t, stats.Sources, 2)
	assert.Equal(t, len(lookup.HostingASNs), stats.KnownHostingASNs)
}

func TestIsPrivateIP(t *testing.T) {
	for _, ip := range []string{"10.1.2.3", "172.20.0.1", "127.0.0.1", "100.64.1.1", "::1", "fd00::1"} {
		assert.True(t, isPrivateIP(ip), ip)
	}
	for _, ip := range []string{"8.8.8.8", "2001:4860:4860::8888", "garbage"} {
		assert.False(t, isPrivateIP(ip), ip)
	}
}
