package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Swipes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchdeck_swipes_total",
			Help: "Total number of swipe decisions applied to decks",
		},
		[]string{"decision"},
	)

	Matches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchdeck_matches_total",
			Help: "Total number of right swipes recorded as matches",
		},
		[]string{"kind"},
	)

	Rewinds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchdeck_rewinds_total",
			Help: "Total number of rewinds that moved a deck cursor",
		},
	)

	ChatsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchdeck_chats_created_total",
			Help: "Total number of chats created",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchdeck_messages_sent_total",
			Help: "Total number of messages inserted",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchdeck_ws_connections",
			Help: "Number of open WebSocket connections",
		},
	)

	FeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchdeck_feed_events_total",
			Help: "Message insert notifications received from the database",
		},
		[]string{"result"},
	)

	FeedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchdeck_feed_reconnects_total",
			Help: "Number of times the insert feed lost its listen connection",
		},
	)

	PushSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchdeck_push_notifications_total",
			Help: "APNs notifications by outcome",
		},
		[]string{"status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchdeck_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled with the chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
