package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts created posts by kind ("original" or "repost").
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"kind"})

	// CommentsCreated counts created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minifeed_comments_created_total",
		Help: "Total number of comments created",
	})

	// EngagementEvents counts likes and reposts applied to posts.
	EngagementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_engagement_events_total",
		Help: "Total engagement events by type",
	}, []string{"type"})

	// AuthAttempts counts login and signup attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_auth_attempts_total",
		Help: "Authentication attempts by action and result",
	}, []string{"action", "result"})

	// SessionOps counts session store operations and failures.
	SessionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_session_operations_total",
		Help: "Session store operations by backend, operation and result",
	}, []string{"backend", "operation", "result"})

	// RedisErrors counts Redis command errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minifeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MediaUploads counts stored media objects by backend and result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_media_uploads_total",
		Help: "Media uploads by backend and result",
	}, []string{"backend", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Result labels an operation outcome for counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
