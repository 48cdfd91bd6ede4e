package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biznesyordam/scanner-service/internal/database"
)

// relayMessage builds a stream entry the way the outbox relay publishes it:
// the envelope JSON in the data field plus the bare filter fields.
func relayMessage(t *testing.T, eventType string, payload interface{}) redis.XMessage {
	t.Helper()

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)

	id := uuid.New()
	envelope := database.StreamEnvelope{
		ID:            id.String(),
		EventType:     eventType,
		AggregateType: "scan",
		AggregateID:   "scan-001",
		Timestamp:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Payload:       payloadJSON,
		Metadata: database.StreamMetadata{
			Source:       "scanner-service",
			OutboxID:     id.String(),
			TargetStream: "stream:scan_lifecycle",
		},
	}

	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	return redis.XMessage{
		ID: "1234567890-0",
		Values: map[string]interface{}{
			"data":         string(data),
			"event_type":   eventType,
			"event_id":     id.String(),
			"aggregate_id": "scan-001",
		},
	}
}

func TestParseScanEvent(t *testing.T) {
	t.Run("parses a relay-published SCAN_COMPLETED entry", func(t *testing.T) {
		msg := relayMessage(t, "SCAN_COMPLETED", scanCompleted{
			ScanID:          "scan-001",
			PartnerID:       "partner-7",
			Category:        "electronics",
			OptimalPrice:    230000,
			ActualMargin:    18.5,
			ValidationScore: 82,
			Source:          "api",
		})

		payload, day, err := parseScanEvent(msg)
		require.NoError(t, err)
		require.NotNil(t, payload)

		assert.Equal(t, "scan-001", payload.ScanID)
		assert.Equal(t, "partner-7", payload.PartnerID)
		assert.Equal(t, 18.5, payload.ActualMargin)
		assert.Equal(t, "2026-03-14", day.Format("2006-01-02"))
	})

	t.Run("skips other event types", func(t *testing.T) {
		msg := relayMessage(t, "SCAN_STARTED", map[string]string{"scan_id": "scan-001"})

		payload, _, err := parseScanEvent(msg)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("rejects entry without data field", func(t *testing.T) {
		msg := redis.XMessage{
			ID: "1-0",
			Values: map[string]interface{}{
				"event_type": "SCAN_COMPLETED",
			},
		}

		_, _, err := parseScanEvent(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing data field")
	})

	t.Run("rejects garbage envelope", func(t *testing.T) {
		msg := redis.XMessage{
			ID: "1-0",
			Values: map[string]interface{}{
				"event_type": "SCAN_COMPLETED",
				"data":       "{not json",
			},
		}

		_, _, err := parseScanEvent(msg)
		require.Error(t, err)
	})

	t.Run("rejects payload without scan_id", func(t *testing.T) {
		msg := relayMessage(t, "SCAN_COMPLETED", map[string]string{"partner_id": "partner-7"})

		_, _, err := parseScanEvent(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing scan_id")
	})
}
