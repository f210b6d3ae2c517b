package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Server is the HTTP gateway in front of the SendParcel API.
type Server struct {
	port     int
	shutdown time.Duration
	client   *sendparcel.Client
	logger   *otelzap.Logger
	gatherer prometheus.Gatherer
	router   *mux.Router
}

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
}

// New creates a new server instance. A nil gatherer serves the default
// Prometheus registry on /metrics.
func New(cfg Config, client *sendparcel.Client, logger *otelzap.Logger, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		port:     cfg.Port,
		shutdown: cfg.ShutdownTimeout,
		client:   client,
		logger:   logger,
		gatherer: gatherer,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/operations", s.handleOperations).Methods(http.MethodGet)
	v1.HandleFunc("/{operation}", s.handleCall).Methods(http.MethodPost)

	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type operationInfo struct {
	Operation string `json:"operation"`
	Method    string `json:"method"`
	URL       string `json:"url"`
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	endpoints := sendparcel.Endpoints()
	ops := make([]operationInfo, 0, len(endpoints))
	for _, e := range endpoints {
		ops = append(ops, operationInfo{
			Operation: e.Path,
			Method:    e.Method,
			URL:       s.client.BaseURL() + e.Path,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sandbox":    s.client.Sandbox(),
		"operations": ops,
	})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op := mux.Vars(r)["operation"]
	requestID := w.Header().Get(RequestIDHeader)

	endpoint, err := sendparcel.LookupEndpoint(op)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	payload, err := decodePayload(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error(), RequestID: requestID})
		return
	}

	env, err := s.client.Caller(endpoint).Call(ctx, payload, sendparcel.WithHeader(RequestIDHeader, requestID))
	if err != nil {
		s.logger.Ctx(ctx).Warn("Gateway call failed",
			zap.String("operation", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(env.Raw)
}

// decodePayload reads an optional JSON object. An empty body is an
// empty payload.
func decodePayload(body io.Reader) (sendparcel.Params, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return sendparcel.Params{}, nil
	}

	var payload sendparcel.Params
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return payload, nil
}

func statusFor(err error) int {
	var apiErr *sendparcel.APIError
	switch {
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sendparcel.ErrUnsupportedMethod):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
