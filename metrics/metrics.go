// Package metrics records Prometheus metrics for tool calls and HTTP requests.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paularlott/toon-mcp/mcp"
)

const namespace = "toon"

// Tool call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Number of MCP tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of MCP tool calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"tool"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ToolMiddleware counts and times every call of the wrapped tool.
func (m *Metrics) ToolMiddleware() mcp.ToolMiddleware {
	return func(name string, next mcp.ToolHandler) mcp.ToolHandler {
		return func(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.toolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			m.toolCalls.WithLabelValues(name, outcome(err)).Inc()
			return resp, err
		}
	}
}

func outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var toolErr *mcp.ToolError
	if errors.As(err, &toolErr) && toolErr.Code == mcp.ErrorCodeInvalidParams {
		return "invalid_params"
	}
	return OutcomeError
}

// HTTPMiddleware counts requests by matched chi route pattern.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
