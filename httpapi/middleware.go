package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benjamonnguyen/studyplan"
)

const userIDKey = "user_id"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyplan",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studyplan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"method", "route"})
)

// observe logs and measures every request. Errors are rendered here so the
// recorded status is the one sent to the client.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		duration := time.Since(start)

		req := c.Request()
		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(req.Method, route).Observe(duration.Seconds())

		s.l.Info("http request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", status,
			"duration", duration,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

// authenticate resolves the bearer token to a user id for downstream handlers.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return studyplan.Errorf(studyplan.ErrAuth, "No token provided.")
		}
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return studyplan.Errorf(studyplan.ErrAuth, "Invalid authorization header.")
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			s.l.Debug("rejected token", "error", err)
			return err
		}

		c.Set(userIDKey, claims.Subject)
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
