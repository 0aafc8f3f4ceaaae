package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"gopower/app"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/config"
	"gopower/internal/errors"
	"gopower/internal/metrics"
	"gopower/internal/parallel"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Server exposes power estimation over HTTP
type Server struct {
	router     *chi.Mux
	power      *app.PowerService
	curves     *app.CurveService
	simulation config.SimulationConfig
	metrics    *metrics.Metrics
	validate   *validator.Validate
	logger     *internal.Logger
}

// NewServer wires routes. metrics may be nil, which disables /metrics.
func NewServer(powerService *app.PowerService, curveService *app.CurveService, cfg *config.Config, m *metrics.Metrics, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	s := &Server{
		router:     chi.NewRouter(),
		power:      powerService,
		curves:     curveService,
		simulation: cfg.Simulation,
		metrics:    m,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Metrics)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.observe)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes(mc config.MetricsConfig) {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/power", s.handlePower)
		r.Post("/curve", s.handleCurve)
	})
	if s.metrics != nil && mc.Enabled {
		s.router.Handle(mc.Path, s.metrics.Handler())
	}
}

// observe logs each request and records its latency
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveAPIEndpointDuration(route, r.Method, strconv.Itoa(ww.Status()), elapsed.Seconds())
		}
		s.logger.Debug("%s %s -> %d in %s (request %s)", r.Method, route, ww.Status(), elapsed, middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	var body PowerRequest
	if !s.decode(w, r, &body) {
		return
	}
	req, err := body.Request()
	if err != nil {
		s.writeError(w, err)
		return
	}

	est, err := s.power.EstimatePower(r.Context(), body.Parameters(), s.simulation.ApplyDefaults(req))
	if err != nil && !(est != nil && stderrors.Is(err, parallel.ErrPartial)) {
		s.writeError(w, err)
		return
	}
	if !body.IncludeOutcomes {
		trimmed := *est
		trimmed.Outcomes = nil
		est = &trimmed
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	var body CurveRequest
	if !s.decode(w, r, &body) {
		return
	}
	req, err := body.Request()
	if err != nil {
		s.writeError(w, err)
		return
	}

	base := body.Parameters()
	curve, err := s.curves.EstimateCurve(r.Context(), base, body.Variations(base), s.simulation.ApplyDefaults(req))
	if err != nil && !(curve != nil && stderrors.Is(err, parallel.ErrPartial)) {
		s.writeError(w, err)
		return
	}
	if !body.IncludeOutcomes {
		trimOutcomes(curve)
	}
	writeJSON(w, http.StatusOK, curve)
}

func trimOutcomes(curve *power.Curve) {
	for i := range curve.Points {
		if curve.Points[i].Estimate == nil {
			continue
		}
		trimmed := *curve.Points[i].Estimate
		trimmed.Outcomes = nil
		curve.Points[i].Estimate = &trimmed
	}
}

// decode reads and validates a JSON body, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, errors.InvalidInput("malformed JSON body: "+err.Error()))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, errors.WithCode(errors.CodeValidationError, err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Code: errors.GetCode(err), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
