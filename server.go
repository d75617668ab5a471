package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/lookup"
	"github.com/akl7777777/ippure-panel/internal/merge"
	"github.com/akl7777777/ippure-panel/internal/metrics"
	"github.com/akl7777777/ippure-panel/internal/model"
)

const healthPath = "/api/health"

// Server is the aggregator HTTP server.
type Server struct {
	service *lookup.Service
	authKey string
	log     *zap.Logger
	mux     *http.ServeMux
	now     func() time.Time
}

// NewServer creates a new HTTP server.
func NewServer(svc *lookup.Service, authKey string, log *zap.Logger) *Server {
	s := &Server{
		service: svc,
		authKey: authKey,
		log:     log,
		mux:     http.NewServeMux(),
		now:     time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/ippure", s.handleIPPure)
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc(healthPath, s.handleHealth)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.Handle("/api/metrics", metrics.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

	// CORS
	rec.Header().Set("Access-Control-Allow-Origin", "*")
	rec.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	rec.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	defer func() {
		metrics.HTTPRequestsTotal.WithLabelValues(pathLabel(r.URL.Path), strconv.Itoa(rec.code)).Inc()
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("code", rec.code),
			zap.Duration("took", time.Since(start)),
		)
	}()

	if r.Method == http.MethodOptions {
		rec.WriteHeader(http.StatusOK)
		return
	}

	// Auth check (skip for health endpoint)
	if s.authKey != "" && r.URL.Path != healthPath {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token == auth {
			// No Bearer prefix, try raw value
			token = auth
		}
		if token != s.authKey {
			writeError(rec, http.StatusUnauthorized, "unauthorized")
			s.log.Warn("unauthorized request", zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
			return
		}
	}

	s.mux.ServeHTTP(rec, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
		return
	}
	s.handleIPPure(w, r)
}

func (s *Server) handleIPPure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ip := targetIP(r)
	if ip == "" {
		writeJSON(w, http.StatusBadRequest, &model.AggregateResponse{Error: "No IP provided. Use ?ip=x.x.x.x"})
		return
	}
	if net.ParseIP(ip) == nil {
		writeJSON(w, http.StatusBadRequest, &model.AggregateResponse{Error: "Invalid IP format: " + ip})
		return
	}
	// Private and reserved ranges have no public reputation.
	if isPrivateIP(ip) {
		writeJSON(w, http.StatusBadRequest, &model.AggregateResponse{IP: ip, Error: "Private or reserved IP: " + ip})
		return
	}

	s.log.Info("querying ip", zap.String("ip", ip))
	rep, err := s.service.Lookup(r.Context(), lookup.Query{IP: ip, Precedence: merge.PreferWeb})
	if err != nil {
		resp := &model.AggregateResponse{IP: ip, Error: err.Error()}
		var fe *lookup.FailedError
		if errors.As(err, &fe) {
			resp.Details = fe.Details()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	src := rep.Sources
	writeJSON(w, http.StatusOK, &model.AggregateResponse{
		Success:   true,
		IP:        ip,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Data:      rep,
		Source:    &src,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.HealthResponse{
		Status: "ok",
		Time:   s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Stats(r.Context()))
}

// targetIP picks the ip query parameter, falling back to the client address
// headers set by the fronting proxy.
func targetIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.URL.Query().Get("ip")); ip != "" {
		return ip
	}
	for _, h := range []string{"Cf-Connecting-Ip", "X-Real-Ip"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return ""
}

func pathLabel(p string) string {
	switch p {
	case "/", "/api/ippure", healthPath, "/api/stats", "/api/metrics":
		return p
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &model.ErrorResponse{
		Error: msg,
		Code:  status,
	})
}

var privateRanges = mustCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"100.64.0.0/10",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustCIDRs(list ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(list))
	for _, s := range list {
		_, cidr, err := net.ParseCIDR(s)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}

func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, cidr := range privateRanges {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
