package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"oneradio/cache"
	"oneradio/config"
	"oneradio/core/auth"
	"oneradio/core/broadcast"
	"oneradio/core/engine"
	"oneradio/core/fetch"
	"oneradio/core/policy"
	"oneradio/core/queue"
	"oneradio/core/statusbus"
	"oneradio/db"
	"oneradio/logger"
	"oneradio/model"
	"oneradio/repository"
	"oneradio/server"
	"oneradio/storage"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oneradio",
	Short: "oneradio is a single-channel broadcast radio service.",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutputPath,
	})

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.AutoMigrateModels(&model.User{}, &model.PlayHistory{}); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}

	minioClient, err := storage.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("minio client failed: %v", err)
	}
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 10*time.Second)
	if err := minioClient.EnsureBucket(ensureCtx); err != nil {
		cancelEnsure()
		log.Fatalf("minio bucket setup failed: %v", err)
	}
	cancelEnsure()
	thumbnails := storage.NewThumbnailStore(minioClient)

	pol, err := policy.Load(cfg.AccessPolicyFile)
	if err != nil {
		log.Fatalf("access policy load failed: %v", err)
	}
	defer pol.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)

	users := repository.NewGormUserRepository(db.GormDB)
	history := repository.NewGormPlayHistoryRepository(db.GormDB)

	dispatcher := fetch.NewDispatcher(fetch.NewYouTubeFetcher(cfg), fetch.NewSoundCloudFetcher(cfg))
	metadata := fetch.NewMetadataResolver(cfg, cache.NewMetadataCache())

	statusHub := statusbus.New()
	go statusHub.Run()

	eng := engine.New(engine.Options{
		FFmpegPath:   cfg.FFmpegPath,
		AudioBitrate: cfg.AudioBitrate,
		Queue:        queue.New(),
		Fetcher:      dispatcher,
		Bus:          broadcast.New(),
		History:      history,
		Publisher:    statusHub,
	})

	handler := server.NewAPIHandler(cfg, eng, pol, tokens, users, history, thumbnails, statusHub, metadata)
	server.Start(cfg, handler)
}
