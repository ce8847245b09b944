package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devsignals/pipeline/app/aggregator"
	"github.com/devsignals/pipeline/app/database"
	"github.com/devsignals/pipeline/app/sources"
)

type Handler struct {
	db       *database.DB
	itemRepo *database.ItemRepository
	runRepo  *database.RunRepository
	registry *sources.Registry
	agg      *aggregator.Aggregator
}

func NewHandler(db *database.DB, itemRepo *database.ItemRepository,
	runRepo *database.RunRepository, registry *sources.Registry,
	agg *aggregator.Aggregator) *Handler {
	return &Handler{
		db:       db,
		itemRepo: itemRepo,
		runRepo:  runRepo,
		registry: registry,
		agg:      agg,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"status":    "ok",
	}

	if err := h.db.Ping(); err != nil {
		health["status"] = "degraded"
		health["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["sources"] = len(h.registry.All())
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.runRepo.GetStats(h.itemRepo)
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	runs, err := h.runRepo.GetRecentRuns(10)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_items":       stats.TotalItems,
		"processed_items":   stats.ProcessedItems,
		"total_runs":        stats.TotalRuns,
		"last_completed_at": stats.LastCompletedAt,
		"recent_runs":       toRunViews(runs),
	})
}

func (h *Handler) ListSources(c *gin.Context) {
	all := h.registry.All()
	views := make([]sourceView, 0, len(all))
	for _, src := range all {
		cfg := h.registry.ConfigFor(src)
		views = append(views, sourceView{
			Name:            cfg.Name,
			Tier:            string(cfg.Tier),
			Reliability:     cfg.Reliability,
			Enabled:         cfg.Enabled,
			FetchMethod:     cfg.FetchMethod,
			RefreshInterval: cfg.RefreshInterval.String(),
			StackConditions: cfg.StackConditions,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sources": views, "count": len(views)})
}

func (h *Handler) ListItems(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		limit = parsed
	}

	items, err := h.itemRepo.GetRecentItems(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": toItemViews(items), "count": len(items)})
}

// TriggerAggregation runs the pipeline synchronously and returns its result.
// Query parameters: source (repeatable), tier, dry_run.
func (h *Handler) TriggerAggregation(c *gin.Context) {
	opts := aggregator.DefaultOptions()
	opts.SourceNames = c.QueryArray("source")
	opts.Tier = sources.Tier(c.Query("tier"))
	opts.DryRun = c.Query("dry_run") == "true"

	result, err := h.agg.Run(c.Request.Context(), opts)
	if err != nil {
		slog.Error("Aggregation run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
