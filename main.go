package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/config"
	"github.com/kevinaaaquil/stories/backend/handlers"
	"github.com/kevinaaaquil/stories/backend/service"
	"github.com/kevinaaaquil/stories/backend/store"
	"github.com/kevinaaaquil/stories/backend/story"
)

func main() {
	_ = godotenv.Load()
	if missing := config.ValidateEnv(); len(missing) > 0 {
		log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongodb indexes:", err)
	}

	var s3Service *service.S3Service
	var objects service.ObjectGetter
	var exports handlers.Exporter
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, service.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Fatal("s3:", err)
		}
		objects, exports = s3Service, s3Service
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; analytics exports are disabled")
	}

	st, err := service.LoadStory(ctx, objects, cfg.StoryS3Key, cfg.StoryPath)
	if err != nil {
		log.Fatal("story:", err)
	}
	nav := story.NewNavigator(st, story.WithPreviewLimit(cfg.PreviewLimit))
	tracker := analytics.NewTracker(store.PageViews{DB: db}, analytics.WithCheckpointInterval(cfg.CheckpointInterval))
	sessions := service.NewReaderSessions(nav, tracker)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepIdle(sweepCtx, sessions, cfg.ReaderIdle)

	r := handlers.NewRouter(handlers.Options{
		Store:         db,
		Sessions:      sessions,
		Exports:       exports,
		JWTSecret:     cfg.JWTSecret,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		CORSOrigins:   cfg.CORSOrigins,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("serving %q on :%s", st.Title, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
	stopSweep()
	sessions.CloseAll()
	if err := tracker.Wait(shutdownCtx); err != nil {
		log.Println("analytics drain:", err)
	}
}

func sweepIdle(ctx context.Context, sessions *service.ReaderSessions, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep(maxIdle)
		}
	}
}
