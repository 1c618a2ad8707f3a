// Package portal is the client-facing surface of the simulated booking
// portal: login, session probes, and the profile-shaped calendar and
// slot queries automation clients are exercised against.
package portal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/educypnishi/embassydemo/internal/availability"
	"github.com/educypnishi/embassydemo/internal/faults"
	"github.com/educypnishi/embassydemo/internal/middleware"
	"github.com/educypnishi/embassydemo/internal/mutation"
	"github.com/educypnishi/embassydemo/internal/profile"
	"github.com/educypnishi/embassydemo/internal/session"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

const (
	defaultCenter = "DXB"
	defaultType   = "Tourist"
)

type Handler struct {
	sessions *session.Registry
	store    *availability.Store
	mutator  *mutation.Engine
	rng      *simrand.Rand
	log      zerolog.Logger

	overlay Overlay
	now     func() time.Time

	// Delayed-profile latency, shrunk by tests.
	delayMin, delayMax time.Duration
	tailMin, tailMax   time.Duration
	tailChance         float64
}

func NewHandler(
	sessions *session.Registry,
	store *availability.Store,
	mutator *mutation.Engine,
	rng *simrand.Rand,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		sessions:   sessions,
		store:      store,
		mutator:    mutator,
		rng:        rng,
		log:        log,
		overlay:    DefaultOverlay(),
		now:        time.Now,
		delayMin:   1 * time.Second,
		delayMax:   3 * time.Second,
		tailMin:    3 * time.Second,
		tailMax:    5 * time.Second,
		tailChance: 0.2,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login accepts any well-formed credentials; the portal being imitated
// does not validate well either. Login latency comes from the fault
// pipeline in front of this handler, not from here.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)

	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid credentials",
		})
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "session error"})
		return
	}

	h.log.Info().Str("owner", s.Owner).Msg("session created")

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"sessionToken": s.Token,
		"expiresIn":    int(session.TTL / time.Second),
	})
}

// ValidateSession reports token health. Invalid is a 200 with
// valid:false, matching the portal's behavior; only guarded data
// routes answer 401.
func (h *Handler) ValidateSession(c *gin.Context) {
	token := middleware.TokenFromRequest(c)

	remaining, ok := h.sessions.Validate(c.Request.Context(), token)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "Session expired or invalid",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":         true,
		"timeRemaining": remaining,
	})
}

// Logout destroys the token. Idempotent.
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
		h.log.Warn().Err(err).Msg("logout destroy failed")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Calendar serves the month view shaped by the target month's profile.
func (h *Handler) Calendar(c *gin.Context) {
	monthKey := c.Query("month")
	if monthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}
	center := queryOr(c, "center", defaultCenter)
	typ := queryOr(c, "type", defaultType)

	prof, err := profile.ForMonthKey(monthKey, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}

	resp := gin.H{
		"month":          monthKey,
		"center":         center,
		"type":           typ,
		"profile":        prof.String(),
		"loadTime":       h.now().Format(time.RFC3339),
		"noAvailability": false,
	}

	switch prof {
	case profile.Delayed:
		if !h.delayedTail(c) {
			return
		}

	case profile.AllUnavailable:
		resp["days"] = monthView(h.store.MonthDays(monthKey, center, typ), availability.DayNA)
		c.JSON(http.StatusOK, resp)
		return

	case profile.AllFull:
		resp["days"] = monthView(h.store.MonthDays(monthKey, center, typ), availability.DayFull)
		c.JSON(http.StatusOK, resp)
		return

	case profile.JSONOnly:
		resp["mode"] = "json"
		if h.overlay.SuppressMonth(h.rng) {
			resp["availableDates"] = []AvailableDate{}
			resp["totalAvailable"] = 0
			resp["noAvailability"] = true
			c.JSON(http.StatusOK, resp)
			return
		}
		available := condensedView(h.store.MonthDays(monthKey, center, typ))
		resp["availableDates"] = available
		resp["totalAvailable"] = len(available)
		c.JSON(http.StatusOK, resp)
		return

	case profile.Randomized:
		switch h.drawRandomized() {
		case rdForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "code": http.StatusForbidden})
			return
		case rdUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable", "code": http.StatusServiceUnavailable})
			return
		case rdInvalidate:
			_ = h.sessions.Destroy(c.Request.Context(), middleware.SessionToken(c))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired", "code": http.StatusUnauthorized})
			return
		case rdGhosts:
			days := monthView(h.store.MonthDays(monthKey, center, typ), "")
			resp["days"] = append(days, ghostDates(monthKey, h.rng)...)
			c.JSON(http.StatusOK, resp)
			return
		case rdHybrid:
			resp["days"] = monthView(h.store.MonthDays(monthKey, center, typ), "")
			resp["mode"] = "hybrid"
			c.JSON(http.StatusOK, resp)
			return
		default: // rdHints
			resp["days"] = monthView(h.store.MonthDays(monthKey, center, typ), "")
			resp["renderHints"] = renderHints(h.rng)
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// Standard (and Delayed after its extra wait): overlay applies.
	days := h.store.MonthDays(monthKey, center, typ)
	if h.overlay.SuppressMonth(h.rng) {
		resp["days"] = monthView(days, availability.DayNA)
		resp["noAvailability"] = true
		c.JSON(http.StatusOK, resp)
		return
	}

	resp["days"] = monthView(days, "")
	c.JSON(http.StatusOK, resp)
}

// TimeSlots serves one day's slot detail under the profile of the
// day's month.
func (h *Handler) TimeSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query param (YYYY-MM-DD) required"})
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query param (YYYY-MM-DD) required"})
		return
	}
	center := queryOr(c, "center", defaultCenter)
	typ := queryOr(c, "type", defaultType)
	monthKey := availability.MonthKey(date)

	prof, _ := profile.ForMonthKey(monthKey, h.now())

	switch prof {
	case profile.Delayed:
		if !h.delayedTail(c) {
			return
		}

	case profile.AllUnavailable:
		h.forcedDay(c, date, availability.DayNA, prof)
		return

	case profile.AllFull:
		h.forcedDay(c, date, availability.DayFull, prof)
		return

	case profile.Randomized:
		switch h.drawRandomized() {
		case rdForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "code": http.StatusForbidden})
			return
		case rdUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable", "code": http.StatusServiceUnavailable})
			return
		case rdInvalidate:
			_ = h.sessions.Destroy(c.Request.Context(), middleware.SessionToken(c))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired", "code": http.StatusUnauthorized})
			return
		}
		// Data-bearing draws fall through to the standard shape.
	}

	rec, ok := h.store.Day(monthKey, center, typ, date)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"date":           date,
			"slots":          []SlotView{},
			"available":      false,
			"noAvailability": false,
		})
		return
	}

	if prof == profile.JSONOnly {
		if h.overlay.SuppressDay(h.rng) {
			c.JSON(http.StatusOK, gin.H{
				"date":           date,
				"mode":           "json",
				"availableTimes": []string{},
				"count":          0,
				"noAvailability": true,
			})
			return
		}

		// Narrow read API: open times only, no per-slot records.
		var times []string
		for _, t := range rec.Times() {
			if rec.Slots[t] == availability.SlotAvailable {
				times = append(times, t)
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"date":           date,
			"mode":           "json",
			"availableTimes": times,
			"count":          len(times),
			"noAvailability": false,
		})
		return
	}

	if h.overlay.SuppressDay(h.rng) {
		c.JSON(http.StatusOK, gin.H{
			"date":           date,
			"status":         string(availability.DayNA),
			"slots":          []SlotView{},
			"totalSlots":     0,
			"availableSlots": 0,
			"noAvailability": true,
		})
		return
	}

	slots := slotViews(rec)
	c.JSON(http.StatusOK, gin.H{
		"date":           date,
		"status":         string(rec.Status),
		"slots":          slots,
		"totalSlots":     len(slots),
		"availableSlots": rec.AvailableSlots(),
		"noAvailability": false,
	})
}

// JSONCalendar always serves the condensed shape, whatever the month's
// profile; forced-closed profiles still flatten it and Randomized can
// still short-circuit.
func (h *Handler) JSONCalendar(c *gin.Context) {
	monthKey := c.Query("month")
	if monthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}
	center := queryOr(c, "center", defaultCenter)
	typ := queryOr(c, "type", defaultType)

	prof, err := profile.ForMonthKey(monthKey, h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}

	var available []AvailableDate

	switch prof {
	case profile.Delayed:
		if !h.delayedTail(c) {
			return
		}
		available = condensedView(h.store.MonthDays(monthKey, center, typ))

	case profile.AllUnavailable, profile.AllFull:
		available = []AvailableDate{}

	case profile.Randomized:
		switch h.drawRandomized() {
		case rdForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "code": http.StatusForbidden})
			return
		case rdUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable", "code": http.StatusServiceUnavailable})
			return
		case rdInvalidate:
			_ = h.sessions.Destroy(c.Request.Context(), middleware.SessionToken(c))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired", "code": http.StatusUnauthorized})
			return
		}
		available = condensedView(h.store.MonthDays(monthKey, center, typ))

	default:
		available = condensedView(h.store.MonthDays(monthKey, center, typ))
	}

	message := "Appointments found"
	if len(available) == 0 {
		message = "No appointments available"
	}

	c.JSON(http.StatusOK, gin.H{
		"month":          monthKey,
		"center":         center,
		"type":           typ,
		"mode":           "json",
		"availableDates": available,
		"totalAvailable": len(available),
		"message":        message,
	})
}

// AutoMutate triggers one mutation step on demand, sharing the
// background engine's exclusivity lock.
func (h *Handler) AutoMutate(c *gin.Context) {
	c.JSON(http.StatusOK, h.mutator.Step())
}

// LastMutation exposes the engine's most recent event so observers can
// poll for drift, no-ops included.
func (h *Handler) LastMutation(c *gin.Context) {
	ev, ok := h.mutator.LastEvent()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"event": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": ev})
}

// RawSlots is the unshaped slot-table month listing: no session, no
// profile, no overlay.
func (h *Handler) RawSlots(c *gin.Context) {
	monthKey := c.Query("month")
	if monthKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query param (YYYY-MM) required"})
		return
	}
	center := queryOr(c, "center", defaultCenter)
	typ := queryOr(c, "type", defaultType)

	days := h.store.MonthDays(monthKey, center, typ)
	type entry struct {
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	out := make([]entry, 0, len(days))
	for _, v := range monthView(days, "") {
		out = append(out, entry{Date: v.Date, Status: v.Status})
	}

	c.JSON(http.StatusOK, gin.H{
		"month":  monthKey,
		"center": center,
		"type":   typ,
		"days":   out,
	})
}

// RawDay is the unshaped day record, minting a default grid for dates
// never touched before.
func (h *Handler) RawDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query param (YYYY-MM-DD) required"})
		return
	}
	center := queryOr(c, "center", defaultCenter)
	typ := queryOr(c, "type", defaultType)

	rec, err := h.store.EnsureDay(availability.MonthKey(date), center, typ, date)
	if err != nil {
		h.log.Error().Err(err).Msg("ensure day failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "slot table unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":   date,
		"center": center,
		"type":   typ,
		"status": string(rec.Status),
		"slots":  rec.Slots,
	})
}

type randomizedDirective int

const (
	rdForbidden randomizedDirective = iota
	rdUnavailable
	rdInvalidate
	rdGhosts
	rdHybrid
	rdHints
)

// drawRandomized rolls the Randomized profile's per-call misbehavior:
// 403 10%, 503 10%, session invalidation 20%, ghost dates 20%,
// hybrid label 20%, rendering hints 20%.
func (h *Handler) drawRandomized() randomizedDirective {
	r := h.rng.Float64()
	switch {
	case r < 0.10:
		return rdForbidden
	case r < 0.20:
		return rdUnavailable
	case r < 0.40:
		return rdInvalidate
	case r < 0.60:
		return rdGhosts
	case r < 0.80:
		return rdHybrid
	default:
		return rdHints
	}
}

// delayedTail applies the Delayed profile's extra latency on top of
// the base delay already paid in the pipeline. Returns false when the
// client disconnected mid-wait.
func (h *Handler) delayedTail(c *gin.Context) bool {
	extra := h.rng.DurationBetween(h.delayMin, h.delayMax)
	if h.rng.Float64() < h.tailChance {
		extra += h.rng.DurationBetween(h.tailMin, h.tailMax)
	}
	if err := faults.Wait(c.Request.Context(), extra); err != nil {
		c.Abort()
		return false
	}
	return true
}

// forcedDay answers a day query under a profile that overrides stored
// statuses wholesale.
func (h *Handler) forcedDay(c *gin.Context, date string, status availability.DayStatus, prof profile.Profile) {
	c.JSON(http.StatusOK, gin.H{
		"date":           date,
		"status":         string(status),
		"slots":          []SlotView{},
		"totalSlots":     0,
		"availableSlots": 0,
		"noAvailability": false,
		"profile":        prof.String(),
	})
}

func queryOr(c *gin.Context, key, fallback string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return fallback
}
