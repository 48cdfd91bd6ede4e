package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/biznesyordam/scanner-service/internal/database"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeScanCompleted is published after a pipeline run was recorded
	EventTypeScanCompleted EventType = "SCAN_COMPLETED"
)

// ScanCompletedPayload is the payload for SCAN_COMPLETED events.
type ScanCompletedPayload struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	Timestamp       time.Time `json:"timestamp"`
	ScanID          string    `json:"scan_id"`
	PartnerID       string    `json:"partner_id,omitempty"`
	ProductName     string    `json:"product_name"`
	Brand           string    `json:"brand,omitempty"`
	Category        string    `json:"category,omitempty"`
	SKU             string    `json:"sku"`
	IKPUCode        string    `json:"ikpu_code,omitempty"`
	OptimalPrice    float64   `json:"optimal_price"`
	ActualMargin    float64   `json:"actual_margin"`
	SEOScore        float64   `json:"seo_score"`
	ValidationScore float64   `json:"validation_score"`
	Source          string    `json:"source"` // "api" or "batch"
}

// Publisher handles event publishing using transactional outbox pattern
type Publisher struct {
	db     *database.DB
	outbox *database.OutboxRepository
	logger *slog.Logger
}

// NewPublisher creates a new event publisher with database connection
func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		outbox: database.NewOutboxRepository(db),
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishScanCompleted publishes a SCAN_COMPLETED event using the
// transactional outbox.
func (p *Publisher) PublishScanCompleted(ctx context.Context, payload *ScanCompletedPayload) error {
	// Set event metadata
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.EventType == "" {
		payload.EventType = string(EventTypeScanCompleted)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	if payload.Source == "" {
		payload.Source = "api"
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "scan",
		AggregateID:   payload.ScanID,
		EventType:     string(EventTypeScanCompleted),
		Payload:       data,
		TargetStream:  "stream:scan_lifecycle",
	}

	// Use transaction to ensure atomicity
	err = p.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := p.outbox.InsertWithTx(ctx, tx, outboxEvent); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("event published to outbox",
		"event_id", payload.EventID,
		"scan_id", payload.ScanID,
		"sku", payload.SKU)

	return nil
}
