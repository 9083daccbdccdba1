package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/tribithub/portal/backend/internal/auth"
	"github.com/tribithub/portal/backend/internal/config"
	"github.com/tribithub/portal/backend/internal/identity"
	"github.com/tribithub/portal/backend/internal/logger"
	"github.com/tribithub/portal/backend/internal/mail"
	"github.com/tribithub/portal/backend/internal/store"
	"github.com/tribithub/portal/backend/internal/ticket"
	"github.com/tribithub/portal/backend/internal/verification"
	"github.com/tribithub/portal/backend/internal/wiki"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Log.WithError(err).Warn("Could not read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("config: %v", err)
	}
	logger.Init(config.AppName, cfg.LogLevel)
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Log.Fatalf("postgres connect: %v", err)
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		logger.Log.Fatalf("postgres migrate: %v", err)
	}
	codeStore := store.NewCodeStore(pg)
	profileStore := store.NewProfileStore(pg)
	ticketStore := store.NewTicketStore(pg)
	wikiStore := store.NewWikiStore(pg)

	// ── Redis ────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
	}

	// ── Identity provider ────────────────────────────────────
	var users identity.Provider
	switch cfg.IdentityDriver {
	case "local":
		sessions := identity.NewSessionStore(rdb, cfg.SessionTTL)
		users = identity.NewLocal(store.NewUserStore(pg), sessions, cfg.JWTSecret, cfg.SessionTTL)
	default:
		users = identity.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	}

	// ── Mail ─────────────────────────────────────────────────
	var sender mail.Sender
	switch cfg.MailDriver {
	case "smtp":
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFromAddress)
	case "log":
		sender = mail.LogSender{}
	default:
		sender = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFromAddress, cfg.SendGridSandbox)
	}

	// ── MongoDB (email delivery log) ─────────────────────────
	var deliveries mail.DeliveryLog
	if cfg.MongoURI != "" {
		mongoClient, mongoDB, err := store.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Log.Fatalf("mongo connect: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		deliveries = store.NewMongoStore(mongoDB)
		sender = mail.NewRecorded(sender, deliveries)
	}

	// ── Object storage ───────────────────────────────────────
	var objects wiki.ObjectStore
	switch cfg.StorageDriver {
	case "minio":
		objects, err = store.NewMinioStore(ctx, cfg.EndpointHost(), cfg.S3AccessKeyID, cfg.S3SecretAccessKey,
			cfg.S3Bucket, cfg.PublicObjectBase(), cfg.S3UseSSL)
		if err != nil {
			logger.Log.Fatalf("minio connect: %v", err)
		}
	default:
		objects = store.NewS3Store(cfg.EndpointURL(), cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretAccessKey,
			cfg.S3Bucket, cfg.PublicObjectBase())
	}

	// ── Services ─────────────────────────────────────────────
	var limiter verification.Limiter
	if rdb != nil {
		limiter = verification.NewRedisLimiter(rdb, cfg.CodeRequestLimit, cfg.CodeRequestWindow)
	}
	codes := verification.NewService(codeStore, users, sender, verification.Options{
		Brand:   cfg.MailFromName,
		TTL:     cfg.CodeTTL,
		Limiter: limiter,
	})
	tickets := ticket.NewService(ticketStore, users, profileStore, sender, cfg.MailFromName)
	wikiSvc := wiki.NewService(wikiStore)

	// ── Scheduled jobs ───────────────────────────────────────
	scheduler := cron.New()
	if err := verification.NewCleaner(codeStore).Schedule(scheduler, cfg.CleanupSchedule); err != nil {
		logger.Log.Fatalf("cleanup schedule %q: %v", cfg.CleanupSchedule, err)
	}
	scheduler.Start()

	// ── Router ───────────────────────────────────────────────
	r := newRouter(routerDeps{
		corsOrigins: cfg.CORSOrigins,
		users:       users,
		profiles:    profileStore,
		auth:        auth.NewHandler(users, profileStore, codes),
		magicLink:   magicLinkHandler(users, sender, cfg),
		tickets:     ticket.NewHandler(tickets),
		wiki:        wiki.NewHandler(wikiSvc),
		upload:      wiki.NewUploadHandler(objects, cfg.MaxUploadBytes),
		emails:      emailHandler(deliveries),
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		logger.Log.WithField("identity", cfg.IdentityDriver).
			WithField("mail", cfg.MailDriver).
			WithField("storage", cfg.StorageDriver).
			Infof("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	<-scheduler.Stop().Done()
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Log.WithError(err).Error("graceful shutdown")
	}
}

func magicLinkHandler(users identity.Provider, sender mail.Sender, cfg *config.Config) *auth.MagicLinkHandler {
	links, ok := users.(identity.MagicLinker)
	if !ok {
		return nil
	}
	return auth.NewMagicLinkHandler(links, sender, cfg.MailFromName, cfg.SiteURL, cfg.MagicLinkTTL)
}

func emailHandler(log mail.DeliveryLog) *mail.Handler {
	if log == nil {
		return nil
	}
	return mail.NewHandler(log)
}
