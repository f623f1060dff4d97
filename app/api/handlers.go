package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/pipeline"
	"github.com/citybeat/citybeat/app/tasks"
	"github.com/gin-gonic/gin"
)

const maxListLimit = 100

func NewHandler(eventRepo database.EventRepository, p *pipeline.Pipeline,
	scheduler tasks.TaskSchedulerInterface, defaultCity string) *Handler {
	return &Handler{
		eventRepo:   eventRepo,
		pipeline:    p,
		scheduler:   scheduler,
		defaultCity: defaultCity,
	}
}

func (h *Handler) ListEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, total, err := h.eventRepo.List(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	meta := gin.H{}
	if filter.City != "" {
		lastScrapedAt, err := h.eventRepo.GetCityLastScrapedAt(filter.City)
		if err == nil && lastScrapedAt != nil {
			meta["cityLastScrapedAt"] = lastScrapedAt.UTC().Format(time.RFC3339)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
		"meta":   meta,
	})
}

func parseEventFilter(c *gin.Context) (database.EventFilter, error) {
	filter := database.EventFilter{
		City:  c.Query("city"),
		Query: c.Query("q"),
		Page:  1,
		Limit: 25,
	}

	if status := c.Query("status"); status != "" {
		if !database.ValidStatusTag(status) {
			return filter, fmt.Errorf("unknown status: %s", status)
		}
		filter.Status = database.StatusTag(status)
	}

	if raw := c.Query("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid includeInactive value")
		}
		filter.IncludeInactive = includeInactive
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from date, expected RFC 3339")
		}
		filter.From = &from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to date, expected RFC 3339")
		}
		filter.To = &to
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, fmt.Errorf("invalid page value")
		}
		filter.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, fmt.Errorf("invalid limit value")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}

	return filter, nil
}

type scrapeRequest struct {
	Sources []string `json:"sources"`
	City    string   `json:"city"`
	Async   bool     `json:"async"`
}

func (h *Handler) APIScrape(c *gin.Context) {
	var req scrapeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	city := req.City
	if city == "" {
		city = h.defaultCity
	}

	if req.Async {
		task := tasks.NewScrapeRunTask(h.pipeline, city)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing scrape task", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue scrape task", "details": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"task": gin.H{
				"id":   task.ID,
				"type": task.Type,
			},
		})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), req.Sources, city)
	if err != nil {
		slog.Error("Scrape run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scrape run failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type importRequest struct {
	ImportedBy string `json:"importedBy"`
	Notes      string `json:"notes"`
}

func (h *Handler) APIImportEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing event id parameter"})
		return
	}

	var req importRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	event, err := h.eventRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_event", "event_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	now := time.Now().UTC()
	event.Imported = true
	event.ImportedAt = &now
	event.ImportedBy = req.ImportedBy
	event.ImportNotes = req.Notes
	event.StatusTags = event.StatusTags.With(database.StatusImported)

	if err := h.eventRepo.Update(event); err != nil {
		slog.Error("Database error", "operation", "import_event", "event_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   event,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["events"] = eventCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.eventRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
