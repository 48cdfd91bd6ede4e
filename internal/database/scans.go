package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrScanNotFound is returned when a scan id does not exist.
var ErrScanNotFound = errors.New("scan not found")

// Scan is one recorded pipeline run.
type Scan struct {
	ID              uuid.UUID `json:"id"`
	PartnerID       string    `json:"partner_id,omitempty"`
	ProductName     string    `json:"product_name"`
	Brand           string    `json:"brand"`
	Category        string    `json:"category"`
	CostPrice       float64   `json:"cost_price"`
	OptimalPrice    float64   `json:"optimal_price"`
	ActualMargin    float64   `json:"actual_margin"`
	IsProfitable    bool      `json:"is_profitable"`
	SKU             string    `json:"sku"`
	IKPUCode        string    `json:"ikpu_code,omitempty"`
	SEOScore        float64   `json:"seo_score"`
	ValidationScore float64   `json:"validation_score"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// ScanStats aggregates the recorded scan history.
type ScanStats struct {
	TotalScans             int     `json:"total_scans"`
	ProfitableScans        int     `json:"profitable_scans"`
	AverageMargin          float64 `json:"average_margin"`
	AverageValidationScore float64 `json:"average_validation_score"`
}

// ScanRepository persists scan history rows.
type ScanRepository struct {
	db *DB
}

func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Insert stores a scan. ID and CreatedAt are filled when zero.
func (r *ScanRepository) Insert(ctx context.Context, scan *Scan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}
	if scan.Source == "" {
		scan.Source = "api"
	}

	query := `
		INSERT INTO scan_history (
			id, partner_id, product_name, brand, category,
			cost_price, optimal_price, actual_margin, is_profitable,
			sku, ikpu_code, seo_score, validation_score, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := r.db.pool.Exec(ctx, query,
		scan.ID, scan.PartnerID, scan.ProductName, scan.Brand, scan.Category,
		scan.CostPrice, scan.OptimalPrice, scan.ActualMargin, scan.IsProfitable,
		scan.SKU, scan.IKPUCode, scan.SEOScore, scan.ValidationScore, scan.Source, scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	return nil
}

// GetByID retrieves one scan.
func (r *ScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*Scan, error) {
	query := `
		SELECT id, partner_id, product_name, brand, category,
		       cost_price, optimal_price, actual_margin, is_profitable,
		       sku, ikpu_code, seo_score, validation_score, source, created_at
		FROM scan_history
		WHERE id = $1`

	scan := &Scan{}
	err := r.db.pool.QueryRow(ctx, query, id).Scan(
		&scan.ID, &scan.PartnerID, &scan.ProductName, &scan.Brand, &scan.Category,
		&scan.CostPrice, &scan.OptimalPrice, &scan.ActualMargin, &scan.IsProfitable,
		&scan.SKU, &scan.IKPUCode, &scan.SEOScore, &scan.ValidationScore, &scan.Source, &scan.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return scan, nil
}

// List returns the most recent scans.
func (r *ScanRepository) List(ctx context.Context, limit int) ([]*Scan, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, partner_id, product_name, brand, category,
		       cost_price, optimal_price, actual_margin, is_profitable,
		       sku, ikpu_code, seo_score, validation_score, source, created_at
		FROM scan_history
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		scan := &Scan{}
		err := rows.Scan(
			&scan.ID, &scan.PartnerID, &scan.ProductName, &scan.Brand, &scan.Category,
			&scan.CostPrice, &scan.OptimalPrice, &scan.ActualMargin, &scan.IsProfitable,
			&scan.SKU, &scan.IKPUCode, &scan.SEOScore, &scan.ValidationScore, &scan.Source, &scan.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return scans, nil
}

// Stats aggregates all recorded scans.
func (r *ScanRepository) Stats(ctx context.Context) (*ScanStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_profitable),
			COALESCE(AVG(actual_margin), 0),
			COALESCE(AVG(validation_score), 0)
		FROM scan_history`

	stats := &ScanStats{}
	err := r.db.pool.QueryRow(ctx, query).Scan(
		&stats.TotalScans, &stats.ProfitableScans,
		&stats.AverageMargin, &stats.AverageValidationScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan stats: %w", err)
	}

	return stats, nil
}
