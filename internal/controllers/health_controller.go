package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/journal"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type healthController struct{ rdb *redis.Client }

func NewHealthController(rdb *redis.Client) *healthController {
	return &healthController{rdb}
}

// Handle always answers 200; a Redis outage only degrades caching.
func (h *healthController) Handle(c *gin.Context) {
	out := gin.H{"status": "ok", "cache": "disabled"}
	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			out["cache"] = "down"
			out["status"] = "degraded"
		} else {
			out["cache"] = "up"
		}
	}
	c.JSON(http.StatusOK, out)
}

type RunLister interface {
	List(ctx context.Context, limit int) ([]journal.Run, error)
}

type runsController struct{ runs RunLister }

func NewRunsController(runs RunLister) *runsController {
	return &runsController{runs}
}

type runView struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Target     string    `json:"target"`
	Status     string    `json:"status"`
	Excluded   int       `json:"excluded"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
}

func (h *runsController) Handle(c *gin.Context) {
	limit := 20
	if n, err := parsePositive(c.Query("limit")); err == nil {
		limit = n
	}
	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]runView, 0, len(runs))
	for _, r := range runs {
		out = append(out, runView{
			ID: r.ID, Kind: r.Kind, Target: r.Target, Status: r.Status, Excluded: r.Excluded,
			Error: r.Error, StartedAt: r.StartedAt, DurationMS: r.Duration().Milliseconds(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}
