// Package admin is the operator surface: direct slot-table edits and
// scenario controls that bypass every client-facing distortion layer.
package admin

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

const (
	defaultCenter = "DXB"
	defaultType   = "Tourist"
)

// dropReopenFraction is the share of a dropped day's grid that comes
// back open when simulateDrop flips it from na to available.
const dropReopenFraction = 0.6

type Handler struct {
	store *availability.Store
	rng   *simrand.Rand
	log   zerolog.Logger
}

func NewHandler(store *availability.Store, rng *simrand.Rand, log zerolog.Logger) *Handler {
	return &Handler{store: store, rng: rng, log: log}
}

type dateStatusRequest struct {
	Date   string `json:"date" binding:"required"`
	Center string `json:"center"`
	Type   string `json:"type"`
	Status string `json:"status" binding:"required"`
}

// UpdateDateStatus sets one day's status, seeding a default slot grid
// for dates never seen before.
func (h *Handler) UpdateDateStatus(c *gin.Context) {
	var req dateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and status are required"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	status := availability.DayStatus(req.Status)
	if !availability.ValidDayStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	rec, err := h.store.SetDayStatus(req.Date, orDefault(req.Center, defaultCenter), orDefault(req.Type, defaultType), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot table update failed"})
		return
	}

	h.log.Info().Str("date", req.Date).Str("status", req.Status).Msg("date status updated")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"date":    req.Date,
		"status":  string(rec.Status),
	})
}

type slotStatusRequest struct {
	Date   string `json:"date" binding:"required"`
	Center string `json:"center"`
	Type   string `json:"type"`
	Slot   string `json:"slot" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// UpdateSlotStatus sets one time slot on one day.
func (h *Handler) UpdateSlotStatus(c *gin.Context) {
	var req slotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date, slot and status are required"})
		return
	}
	status := availability.SlotStatus(req.Status)
	if !availability.ValidSlotStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	err := h.store.SetSlotStatus(req.Date, orDefault(req.Center, defaultCenter), orDefault(req.Type, defaultType), req.Slot, status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"date":    req.Date,
		"slot":    req.Slot,
		"status":  req.Status,
	})
}

type dropRequest struct {
	Month  string `json:"month"`
	Center string `json:"center"`
	Type   string `json:"type"`
}

// SimulateDrop imitates a batch of cancellations landing: one day that
// currently shows na flips to available with roughly 60% of its grid
// open again. Operators use it to hand pollers a sudden opening.
func (h *Handler) SimulateDrop(c *gin.Context) {
	var req dropRequest
	_ = c.ShouldBindJSON(&req)
	center := orDefault(req.Center, defaultCenter)
	typ := orDefault(req.Type, defaultType)

	months := []string{req.Month}
	if req.Month == "" {
		months = h.store.Months()
	}

	var candidates []string
	for _, month := range months {
		for date, rec := range h.store.MonthDays(month, center, typ) {
			if rec.Status == availability.DayNA {
				candidates = append(candidates, date)
			}
		}
	}
	if len(candidates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No NA days to drop slots for"})
		return
	}
	sort.Strings(candidates)
	date := candidates[h.rng.Intn(len(candidates))]
	month := availability.MonthKey(date)

	rec, ok := h.store.Day(month, center, typ, date)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot table read failed"})
		return
	}
	if len(rec.Slots) == 0 {
		rec.Slots = availability.DefaultDaySlots()
	}

	times := rec.Times()
	opened := 0
	for _, t := range times {
		if h.rng.Float64() < dropReopenFraction {
			rec.Slots[t] = availability.SlotAvailable
			opened++
		} else {
			rec.Slots[t] = availability.SlotBooked
		}
	}
	// A drop that opens nothing would be indistinguishable from a bug.
	if opened == 0 {
		rec.Slots[times[0]] = availability.SlotAvailable
		opened = 1
	}
	rec.Status = availability.DayAvailable

	if err := h.store.ReplaceDay(month, center, typ, date, rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot table update failed"})
		return
	}

	h.log.Info().Str("date", date).Int("opened", opened).Msg("simulated drop")

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"date":        date,
		"slotsOpened": opened,
		"totalSlots":  len(times),
	})
}

type heavyLoadRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ToggleHeavyLoad switches the global heavy-load flag; the fault
// pipeline reads it per request, so the change is immediate.
func (h *Handler) ToggleHeavyLoad(c *gin.Context) {
	var req heavyLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled (boolean) is required"})
		return
	}

	if err := h.store.SetHeavyLoad(*req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings update failed"})
		return
	}

	h.log.Info().Bool("enabled", *req.Enabled).Msg("heavy load toggled")

	c.JSON(http.StatusOK, gin.H{"success": true, "heavyLoad": *req.Enabled})
}

// JSONPreview shows the ground truth of a month as stored, with no
// profile, overlay or fault shaping. Operators use it to verify what
// clients should eventually converge on.
func (h *Handler) JSONPreview(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}
	center := orDefault(c.Query("center"), defaultCenter)
	typ := orDefault(c.Query("type"), defaultType)

	days := h.store.MonthDays(month, center, typ)
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	type preview struct {
		Date           string `json:"date"`
		Status         string `json:"status"`
		TotalSlots     int    `json:"totalSlots"`
		AvailableSlots int    `json:"availableSlots"`
	}
	out := make([]preview, 0, len(dates))
	for _, date := range dates {
		rec := days[date]
		out = append(out, preview{
			Date:           date,
			Status:         string(rec.Status),
			TotalSlots:     len(rec.Slots),
			AvailableSlots: rec.AvailableSlots(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"month":     month,
		"center":    center,
		"type":      typ,
		"heavyLoad": h.store.HeavyLoad(),
		"days":      out,
	})
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
