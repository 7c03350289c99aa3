// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ltl-studio/backend/internal/core"
)

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	bookings        Counter
	users           Counter
	chatSubscribers func() int
	chatTopics      func() int
	dbStats         func() sql.DBStats
	redisStats      func() *redis.PoolStats
	redisPing       func(ctx context.Context) error
	dbPing          func(ctx context.Context) error
	logger          *slog.Logger
}

type HandlerConfig struct {
	Bookings        Counter
	Users           Counter
	ChatSubscribers func() int
	ChatTopics      func() int
	DBStats         func() sql.DBStats
	RedisStats      func() *redis.PoolStats
	RedisPing       func(ctx context.Context) error
	DBPing          func(ctx context.Context) error
	Logger          *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bookings:        cfg.Bookings,
		users:           cfg.Users,
		chatSubscribers: cfg.ChatSubscribers,
		chatTopics:      cfg.ChatTopics,
		dbStats:         cfg.DBStats,
		redisStats:      cfg.RedisStats,
		redisPing:       cfg.RedisPing,
		dbPing:          cfg.DBPing,
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := h.dbPing != nil && h.dbPing(ctx) == nil
	redisHealthy := h.redisPing != nil && h.redisPing(ctx) == nil

	var subscribers, topics int
	if h.chatSubscribers != nil {
		subscribers = h.chatSubscribers()
	}
	if h.chatTopics != nil {
		topics = h.chatTopics()
	}

	core.OK(w, SystemStatsResponse{
		Studio: StudioStats{
			Bookings:        h.count(ctx, "bookings", h.bookings),
			Users:           h.count(ctx, "users", h.users),
			ChatSubscribers: subscribers,
			ChatTopics:      topics,
		},
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Status:  connectionLabel(dbHealthy),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

// count reports -1 when the store could not answer so the dashboard can
// tell "none" from "unknown".
func (h *Handler) count(ctx context.Context, name string, c Counter) int {
	if c == nil {
		return -1
	}
	n, err := c.Count(ctx)
	if err != nil {
		h.logger.Warn("stats count failed", "counter", name, "error", err)
		return -1
	}
	return n
}

func connectionLabel(healthy bool) string {
	if healthy {
		return "Connected"
	}
	return "Not connected"
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Studio   StudioStats    `json:"studio"`
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type StudioStats struct {
	Bookings        int `json:"bookings"`
	Users           int `json:"users"`
	ChatSubscribers int `json:"chat_subscribers"`
	ChatTopics      int `json:"chat_topics"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Status  string       `json:"status"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
