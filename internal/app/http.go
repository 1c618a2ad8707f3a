package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/educypnishi/embassydemo/internal/admin"
	"github.com/educypnishi/embassydemo/internal/config"
	"github.com/educypnishi/embassydemo/internal/faults"
	"github.com/educypnishi/embassydemo/internal/middleware"
	"github.com/educypnishi/embassydemo/internal/mutation"
	"github.com/educypnishi/embassydemo/internal/portal"
	"github.com/educypnishi/embassydemo/internal/session"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

func setupHTTP(ctx context.Context, cfg config.Config, log zerolog.Logger) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	rng := simrand.New(cfg.Seed)

	registry := session.NewRegistry(infra.Sessions, rng)
	pipeline := faults.New(rng, infra.Slots.HeavyLoad)

	mutator := mutation.New(infra.Slots, rng, log)
	go mutator.Run(ctx)

	portalHandler := portal.NewHandler(registry, infra.Slots, mutator, rng, log)
	adminHandler := admin.NewHandler(infra.Slots, rng, log)

	requireSession := middleware.RequireSession(registry)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "heavyLoad": infra.Slots.HeavyLoad()})
	})

	// ----------------------------
	// Portal Routes (fault-injected)
	// ----------------------------

	embassy := router.Group("/api/embassy")

	embassy.POST("/login",
		middleware.InjectFaults(pipeline, faults.Login),
		portalHandler.Login)

	// Validation judges the token itself; no session gate in front.
	embassy.GET("/validate-session",
		middleware.InjectFaults(pipeline, faults.Generic),
		portalHandler.ValidateSession)

	embassy.POST("/logout",
		middleware.InjectFaults(pipeline, faults.Generic),
		portalHandler.Logout)

	// Parameter validation answers before the pipeline: malformed
	// requests get an instant 400, never a simulated delay or fault.
	embassy.GET("/calendar",
		middleware.RequireMonth(),
		middleware.InjectFaults(pipeline, faults.Calendar),
		requireSession,
		portalHandler.Calendar)

	embassy.GET("/time-slots",
		middleware.RequireDate(),
		middleware.InjectFaults(pipeline, faults.Detail),
		requireSession,
		portalHandler.TimeSlots)

	embassy.GET("/json-calendar",
		middleware.RequireMonth(),
		middleware.InjectFaults(pipeline, faults.Calendar),
		requireSession,
		portalHandler.JSONCalendar)

	// Mutation controls are observer tooling, not simulated surface:
	// they bypass the fault pipeline.
	embassy.POST("/auto-mutate", portalHandler.AutoMutate)
	embassy.GET("/last-mutation", portalHandler.LastMutation)

	// ----------------------------
	// Raw Slot Table (no session, still fault-injected)
	// ----------------------------

	slots := router.Group("/api/slots")

	slots.GET("",
		middleware.RequireMonth(),
		middleware.InjectFaults(pipeline, faults.Generic),
		portalHandler.RawSlots)
	slots.GET("/day",
		middleware.RequireDate(),
		middleware.InjectFaults(pipeline, faults.Generic),
		portalHandler.RawDay)

	// ----------------------------
	// Admin Routes (never fault-injected)
	// ----------------------------

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.RequireAdminKey(cfg.AdminKeyHash))

	adminGroup.POST("/updateDateStatus", adminHandler.UpdateDateStatus)
	adminGroup.POST("/updateSlotStatus", adminHandler.UpdateSlotStatus)
	adminGroup.POST("/simulateDrop", adminHandler.SimulateDrop)
	adminGroup.POST("/toggleHeavyLoad", adminHandler.ToggleHeavyLoad)
	adminGroup.GET("/jsonPreview", adminHandler.JSONPreview)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, infra.Close, nil
}
