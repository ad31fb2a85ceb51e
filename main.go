package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	apirest "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/api/rest"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/api/sse"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/audit"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/cache"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	dbadapter "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/db"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/guild"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/identity"
	mw "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/middleware"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/notify"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/party"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	notifier := notify.NewGateway(pubsub, logger)
	guildSvc := guild.NewService(db, identity.NewDBResolver(db), notifier,
		auditSvc, cfg.Guild, logger)
	partySvc := party.NewService(db, cfg.Party, logger)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("workflow_expiry", cfg.Guild.ExpirySweepInterval, func() {
		if err := guildSvc.ExpireStaleWorkflows(context.Background()); err != nil {
			logger.Warn("workflow expiry sweep failed", zap.Error(err))
		}
	})
	sched.AddTicker("audit_retention", 24*time.Hour, func() {
		n, err := auditSvc.PurgeOlderThan(context.Background(), cfg.Audit.Retention)
		if err != nil {
			logger.Warn("audit retention purge failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("purged audit rows", zap.Int64("rows", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	guildH := apirest.NewGuildHandler(guildSvc)
	invH := apirest.NewInvitationHandler(guildSvc)
	reqH := apirest.NewJoinRequestHandler(guildSvc)
	partyH := apirest.NewPartyHandler(partySvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		guildsG := api.Group("/guilds")
		guildsG.Use(mw.Auth(cfg.Security, c))
		guildsG.POST("", guildH.Create)
		guildsG.GET("/:id", guildH.Detail)
		guildsG.DELETE("/:id", guildH.Disband)
		guildsG.POST("/:id/leave", guildH.Leave)
		guildsG.DELETE("/:id/members/:userID", guildH.Kick)

		guildsG.POST("/:id/invitations", invH.Create)
		guildsG.GET("/:id/invitations", invH.ListForGuild)
		guildsG.POST("/:id/invitations/:inviteID/accept", invH.Accept)
		guildsG.POST("/:id/invitations/:inviteID/decline", invH.Decline)

		guildsG.POST("/:id/join-requests", reqH.Create)
		guildsG.GET("/:id/join-requests", reqH.List)
		guildsG.POST("/:id/join-requests/:requestID/approve", reqH.Approve)
		guildsG.POST("/:id/join-requests/:requestID/decline", reqH.Decline)

		api.GET("/invitations", mw.Auth(cfg.Security, c), invH.ListMine)

		partiesG := api.Group("/parties")
		partiesG.Use(mw.Auth(cfg.Security, c))
		partiesG.POST("", partyH.Create)
		partiesG.GET("/:id", partyH.Detail)
		partiesG.POST("/:id/join", partyH.Join)
		partiesG.POST("/:id/leave", partyH.Leave)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
