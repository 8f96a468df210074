package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"esg-engagement/config"
	"esg-engagement/handlers"
	"esg-engagement/middleware"
	"esg-engagement/models"
	"esg-engagement/services"
	"esg-engagement/utils"
	"esg-engagement/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("failed to load catalog:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Member{},
		&models.MemberBadge{},
		&models.Event{},
		&models.Participation{},
		&models.LeaderboardSnapshot{},
		&models.ShopItem{},
		&models.Redemption{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exporter services.Exporter
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		exporter = r2
	} else {
		log.Println("⚠️  R2 not configured, leaderboard exports disabled")
	}

	badgeService := services.NewBadgeService(db, catalog)
	shopService := services.NewShopService(db)
	eventService := services.NewEventService(db)
	eventService.Grace = cfg.MissedGrace
	participationService := services.NewParticipationService(db, badgeService, catalog)
	participationService.MissedGrace = cfg.MissedGrace
	progressionService := services.NewProgressionService(db, badgeService, shopService)
	leaderboardService := services.NewLeaderboardService(db, exporter)
	memberService := services.NewMemberService(db)

	if cfg.SyncEnabled() {
		syncWorker := workers.NewMemberSyncWorker(db, utils.HTTPClient, cfg.SyncServiceURL, cfg.SyncServiceToken)
		syncWorker.Start(ctx)

		eventSync := workers.NewEventSyncClient(db, utils.HTTPClient, cfg.SyncServiceURL, cfg.SyncServiceToken)
		go workers.PollEvents(ctx, eventSync, 30*time.Second)
	} else {
		log.Println("⚠️  SYNC_SERVICE_URL or SYNC_SERVICE_TOKEN not set, sync workers disabled")
	}

	scheduler, err := services.StartScheduler(ctx, eventService, participationService, leaderboardService,
		cfg.SweepInterval, cfg.LeaderboardCron)
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Member-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	secured := app.Group("/", middleware.UserContextMiddleware(cfg.MemberTokenSecret))
	admin := secured.Group("/admin", middleware.RequireRole("organizer", "admin"))

	handlers.SetupEventRoutes(secured, eventService, participationService)
	handlers.SetupProgressionRoutes(secured, progressionService, badgeService, memberService)
	handlers.SetupLeaderboardRoutes(secured, leaderboardService)
	handlers.SetupShopRoutes(secured, shopService)
	handlers.SetupAdminRoutes(admin, eventService, participationService, leaderboardService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Catalog loaded: %d levels, %d badges", len(catalog.LevelNames), len(catalog.Badges))
	log.Printf("✅ Sweep every %s (grace %s), leaderboard snapshot cron %q", cfg.SweepInterval, cfg.MissedGrace, cfg.LeaderboardCron)
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
