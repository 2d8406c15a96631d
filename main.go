package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"videolens/analyzer"
	"videolens/api"
	"videolens/config"
	"videolens/encoder"
	"videolens/events"
	"videolens/storage"
	"videolens/store"
	"videolens/uploads"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	snap := cfg.Snapshot()

	tempDir := os.Getenv("TEMP_DIR")
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	// AWS wiring is optional; without credentials the relay still serves
	// uploads, encoding, and validation-by-format.
	var s3c *storage.S3
	var runtime *bedrockruntime.Client
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(snap.AWSRegion))
	if err != nil {
		logger.Warn("AWS not configured, model calls and S3 staging disabled", "error", err)
	} else {
		runtime = bedrockruntime.NewFromConfig(awsCfg)
		s3c, err = storage.NewS3(context.Background(), storage.S3Config{Region: snap.AWSRegion})
		if err != nil {
			logger.Warn("S3 client init failed, staging disabled", "error", err)
			s3c = nil
		}
	}

	// Result store: Redis when REDIS_ADDR is set, in-memory otherwise.
	var st store.Store = store.NewMemory()
	if os.Getenv("REDIS_ADDR") != "" {
		redisStore, err := store.NewRedisFromEnv()
		if err != nil {
			logger.Error("redis connect failed, falling back to memory store", "error", err)
		} else {
			defer redisStore.Close()
			st = redisStore
			logger.Info("using redis result store")
		}
	}

	// Lifecycle events: Kafka when KAFKA_BROKERS is set, no-op otherwise.
	var pub events.Publisher = events.Nop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafka, err := events.NewKafka(events.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   os.Getenv("KAFKA_TOPIC"),
		}, logger)
		if err != nil {
			logger.Error("kafka connect failed, events disabled", "error", err)
		} else {
			defer kafka.Close()
			pub = kafka
			logger.Info("publishing lifecycle events to kafka")
		}
	}

	var structurer analyzer.Structurer
	if snap.StructurerProvider == "cohere" {
		structurer = analyzer.NewCohere(os.Getenv("COHERE_API_KEY"), os.Getenv("COHERE_MODEL"))
		logger.Info("using cohere structurer")
	} else if runtime != nil {
		structurer = analyzer.NewBedrockClaude(runtime, func() string {
			return cfg.Snapshot().ClaudeModelID
		})
	}

	var pegasus *analyzer.Pegasus
	if runtime != nil {
		pegasus = analyzer.NewPegasus(runtime)
	}

	runner := analyzer.NewRunner(cfg, pegasus, structurer, s3c, st, pub, logger)

	server := &api.Server{
		Cfg:      cfg,
		Registry: uploads.NewRegistry(),
		Encoder:  encoder.New(snap.EncodeTargetMB),
		Progress: encoder.NewRegistry(),
		Runner:   runner,
		Store:    st,
		Storage:  s3c,
		Logger:   logger,
		TempDir:  tempDir,
	}

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	r := api.NewRouter(server)
	logger.Info("starting relay server", "addr", addr,
		"pegasus_model", snap.PegasusModelID, "structurer", snap.StructurerProvider)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
