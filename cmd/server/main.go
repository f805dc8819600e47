package main

import (
	"flag"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/cmd/bootstrap"
	handlers "github.com/code-100-precent/TableEcho/internal/handler"
	"github.com/code-100-precent/TableEcho/pkg/cache"
	"github.com/code-100-precent/TableEcho/pkg/config"
	"github.com/code-100-precent/TableEcho/pkg/llm"
	"github.com/code-100-precent/TableEcho/pkg/logger"
	"github.com/code-100-precent/TableEcho/pkg/middleware"
	"github.com/code-100-precent/TableEcho/pkg/recognizer"
	"github.com/code-100-precent/TableEcho/pkg/synthesizer"
	"github.com/code-100-precent/TableEcho/pkg/voice"
)

// TableEchoApp wires the conversation engine and its transport surface
type TableEchoApp struct {
	db       *gorm.DB
	handlers *handlers.Handlers
}

func NewTableEchoApp(db *gorm.DB) *TableEchoApp {
	cfg := config.GlobalConfig

	provider := llm.NewOpenAIProvider(cfg.LLMApiKey, cfg.LLMBaseURL, cfg.LLMModel)
	synth := synthesizer.NewHTTPService(synthesizer.HTTPConfig{
		BaseURL: cfg.TTSBaseURL,
		APIKey:  cfg.TTSApiKey,
		Voice:   cfg.TTSVoice,
	})

	store := voice.NewSessionStore(cache.GetGlobalCache(), cfg.SessionTTL)
	availability := voice.NewAvailability(db, cfg.OpeningHour, cfg.ClosingHour, 0)
	finalizer := voice.NewFinalizer(db, store, provider, logger.L())
	dispatcher := voice.NewDispatcher(db, availability, finalizer, cfg.MaxPartySize, logger.L())
	coordinator := voice.NewCoordinator(store, db, provider, synth, dispatcher, finalizer,
		voice.Options{
			BusinessName: cfg.BusinessName,
			OpeningHour:  cfg.OpeningHour,
			ClosingHour:  cfg.ClosingHour,
		}, logger.L())
	relay := recognizer.NewRelay(coordinator, cfg.MinFinalConfidence)

	return &TableEchoApp{
		db:       db,
		handlers: handlers.NewHandlers(db, coordinator, relay),
	}
}

func (app *TableEchoApp) RegisterRoutes(r *gin.Engine) {
	app.handlers.Register(r)
}

func main() {
	// 1. Parse Command Line Parameters
	mode := flag.String("mode", "", "running environment (development, test, production)")
	initSQL := flag.String("init-sql", "", "path to database init .sql script (optional)")
	flag.Parse()

	// 2. Set Environment Variables
	if *mode != "" {
		os.Setenv("APP_ENV", *mode)
	}

	// 3. Load Global Configuration
	if err := config.Load(); err != nil {
		panic("config load failed: " + err.Error())
	}

	// 4. Load Log Configuration
	if err := logger.Init(&config.GlobalConfig.Log, config.GlobalConfig.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 5. Load Data Source
	db, err := bootstrap.SetupDatabase(os.Stdout, &bootstrap.Options{
		InitSQLPath: *initSQL,
		AutoMigrate: true,
		SeedNonProd: os.Getenv("APP_ENV") != "production",
	})
	if err != nil {
		logger.Error("database setup failed", zap.Error(err))
		return
	}

	// 6. Load Global Cache
	if err := cache.InitGlobalCache(config.GlobalConfig.Cache); err != nil {
		logger.Error("failed to initialize cache", zap.Error(err))
		logger.Info("falling back to default local cache")
	}

	addr := config.GlobalConfig.Addr
	if addr == "" {
		addr = ":7073"
	}
	logger.Info("checked config -- addr: ", zap.String("addr", addr))
	logger.Info("checked config -- db-driver: ",
		zap.String("db-driver", config.GlobalConfig.DBDriver),
		zap.String("dsn", config.GlobalConfig.DSN))
	logger.Info("checked config -- mode: ", zap.String("mode", config.GlobalConfig.Mode))

	// 7. New App
	app := NewTableEchoApp(db)

	// 8. Initialize Gin Routing
	if config.GlobalConfig.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.LoggerMiddleware(logger.L()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": config.GlobalConfig.ServerName})
	})

	app.RegisterRoutes(r)

	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
