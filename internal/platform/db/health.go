package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool snapshot reported by /health/db.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Pinger is the part of a pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler pings the database. When persistence is disabled pool is nil
// and the check reports "disabled" with 200.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	if pool == nil {
		return pingHandler(nil, nil)
	}
	return pingHandler(pool, func() any { return GetPoolStats(pool) })
}

func pingHandler(p Pinger, stats func() any) echo.HandlerFunc {
	return func(c echo.Context) error {
		if p == nil {
			return c.JSON(http.StatusOK, map[string]any{"status": "disabled"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		body := map[string]any{"status": "healthy"}
		if stats != nil {
			body["pool"] = stats()
		}
		if err := p.Ping(ctx); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
