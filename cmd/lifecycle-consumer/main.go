package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/biznesyordam/scanner-service/internal/database"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Redis connection
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info("Connected to Redis", "addr", redisAddr)

	// Database connection
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "seller_scanner"),
	)

	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database")

	// Create consumer
	consumer := &Consumer{
		redis:  rdb,
		db:     db,
		logger: logger,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming in background
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	// Run consumer
	if err := consumer.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Consumer error: %v", err)
	}
}

// Consumer rolls SCAN_COMPLETED events up into per-partner daily aggregates.
// It is a separate process so the API never waits on aggregation.
type Consumer struct {
	redis  *redis.Client
	db     *pgxpool.Pool
	logger *slog.Logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Consumer) Run(ctx context.Context) error {
	// Check for stream override from environment
	streamKey := getEnv("REDIS_STREAM", "stream:scan_lifecycle")
	consumerGroup := "scan-lifecycle-group"
	consumerName := getEnv("CONSUMER_NAME", "consumer-1")

	// Create consumer group (ignore error if already exists)
	c.redis.XGroupCreate(ctx, streamKey, consumerGroup, "0").Err()

	c.logger.Info("Starting consumer", "stream", streamKey, "group", consumerGroup)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Read from stream
			streams, err := c.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: consumerName,
				Streams:  []string{streamKey, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue // No new messages
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("Failed to read from stream", "error", err)
				time.Sleep(1 * time.Second)
				continue
			}

			// Process messages
			for _, stream := range streams {
				for _, message := range stream.Messages {
					if err := c.processMessage(ctx, message); err != nil {
						c.logger.Error("Failed to process message", "id", message.ID, "error", err)
						continue
					}

					// Acknowledge message
					if err := c.redis.XAck(ctx, streamKey, consumerGroup, message.ID).Err(); err != nil {
						c.logger.Error("Failed to acknowledge message", "id", message.ID, "error", err)
					}
				}
			}
		}
	}
}

// scanCompleted is the subset of the event payload the aggregator needs.
type scanCompleted struct {
	ScanID          string  `json:"scan_id"`
	PartnerID       string  `json:"partner_id"`
	Category        string  `json:"category"`
	OptimalPrice    float64 `json:"optimal_price"`
	ActualMargin    float64 `json:"actual_margin"`
	ValidationScore float64 `json:"validation_score"`
	Source          string  `json:"source"`
}

// parseScanEvent unwraps the relay's stream envelope from the data field.
// A nil payload with nil error means the entry is not a SCAN_COMPLETED event.
func parseScanEvent(msg redis.XMessage) (*scanCompleted, time.Time, error) {
	eventType, ok := msg.Values["event_type"].(string)
	if !ok || eventType != "SCAN_COMPLETED" {
		return nil, time.Time{}, nil
	}

	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("missing data field in stream entry")
	}

	var envelope database.StreamEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse envelope: %w", err)
	}

	var payload scanCompleted
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse payload: %w", err)
	}
	if payload.ScanID == "" {
		return nil, time.Time{}, fmt.Errorf("missing scan_id in payload")
	}

	day := envelope.Timestamp.UTC()
	if day.IsZero() {
		day = time.Now().UTC()
	}

	return &payload, day, nil
}

func (c *Consumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	payload, day, err := parseScanEvent(msg)
	if err != nil {
		// Malformed entries are logged and dropped; retrying them would
		// pin the pending list forever.
		c.logger.Warn("Dropping malformed message", "id", msg.ID, "error", err)
		return nil
	}
	if payload == nil {
		return nil // Skip non-matching events
	}

	c.logger.Info("Processing scan",
		"message_id", msg.ID,
		"scan_id", payload.ScanID,
		"partner_id", payload.PartnerID,
		"source", payload.Source,
	)

	return c.updateDailyStats(ctx, day, *payload)
}

// updateDailyStats upserts one scan into the partner's daily aggregate row.
// Averages are stored as running sums so the upsert stays a single statement.
func (c *Consumer) updateDailyStats(ctx context.Context, day time.Time, payload scanCompleted) error {
	profitable := 0
	if payload.ActualMargin >= 15 {
		profitable = 1
	}

	query := `
		INSERT INTO scan_daily_stats (
			partner_id, day, scans_total, scans_profitable,
			margin_sum, validation_score_sum
		) VALUES ($1, $2, 1, $3, $4, $5)
		ON CONFLICT (partner_id, day) DO UPDATE SET
			scans_total = scan_daily_stats.scans_total + 1,
			scans_profitable = scan_daily_stats.scans_profitable + EXCLUDED.scans_profitable,
			margin_sum = scan_daily_stats.margin_sum + EXCLUDED.margin_sum,
			validation_score_sum = scan_daily_stats.validation_score_sum + EXCLUDED.validation_score_sum,
			updated_at = CURRENT_TIMESTAMP`

	_, err := c.db.Exec(ctx, query,
		payload.PartnerID,
		day.Format("2006-01-02"),
		profitable,
		payload.ActualMargin,
		payload.ValidationScore,
	)
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}

	c.logger.Info("Updated daily stats",
		"partner_id", payload.PartnerID,
		"day", day.Format("2006-01-02"),
	)
	return nil
}
