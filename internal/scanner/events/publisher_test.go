package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCompletedPayload_Marshal(t *testing.T) {
	payload := &ScanCompletedPayload{
		EventID:         "evt-001",
		EventType:       string(EventTypeScanCompleted),
		Timestamp:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ScanID:          "scan-001",
		PartnerID:       "partner-42",
		ProductName:     "Galaxy A55",
		Brand:           "Samsung",
		Category:        "electronics",
		SKU:             "SAM-ELE-ABC123",
		IKPUCode:        "847130001234",
		OptimalPrice:    230000,
		ActualMargin:    28.48,
		SEOScore:        75,
		ValidationScore: 100,
		Source:          "api",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "SCAN_COMPLETED", decoded["event_type"])
	assert.Equal(t, "scan-001", decoded["scan_id"])
	assert.Equal(t, "SAM-ELE-ABC123", decoded["sku"])
	assert.Equal(t, float64(230000), decoded["optimal_price"])
	assert.Equal(t, "api", decoded["source"])
}

func TestScanCompletedPayload_OmitsEmptyOptionalFields(t *testing.T) {
	payload := &ScanCompletedPayload{
		EventID:     "evt-002",
		EventType:   string(EventTypeScanCompleted),
		Timestamp:   time.Now(),
		ScanID:      "scan-002",
		ProductName: "Mahsulot",
		SKU:         "UNK-ELE-ABC124",
		Source:      "batch",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, hasPartner := decoded["partner_id"]
	assert.False(t, hasPartner)
	_, hasIKPU := decoded["ikpu_code"]
	assert.False(t, hasIKPU)
}
