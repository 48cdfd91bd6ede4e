package jobs

import (
	"github.com/google/uuid"

	"github.com/biznesyordam/scanner-service/internal/database"
	"github.com/biznesyordam/scanner-service/internal/models"
	"github.com/biznesyordam/scanner-service/internal/scanner/pipeline"
)

// NewScanRecord builds the history row for one pipeline run. The request is
// normalized first so a scan submitted without brand or category carries the
// same resolved identity its SKU and IKPU code were derived from.
func NewScanRecord(req pipeline.Request, result *models.ScanResult, source string) *database.Scan {
	req.Normalize()

	name := req.ProductName
	brand := req.Brand
	if scanned := result.ScannedProduct; scanned != nil {
		if name == "" {
			name = scanned.Name
		}
		if brand == pipeline.DefaultBrand && scanned.Brand != "" && scanned.Brand != pipeline.DefaultBrand {
			brand = scanned.Brand
		}
	}
	if name == "" {
		name = "Mahsulot"
	}

	category := result.IKPU.Category
	if category == "" {
		category = req.Category
	}

	return &database.Scan{
		ID:              uuid.New(),
		PartnerID:       req.PartnerID,
		ProductName:     name,
		Brand:           brand,
		Category:        category,
		CostPrice:       result.PriceOptimization.CostPrice,
		OptimalPrice:    result.PriceOptimization.OptimalPrice,
		ActualMargin:    result.PriceOptimization.ActualMargin,
		IsProfitable:    result.PriceOptimization.IsProfitable,
		SKU:             result.SKU,
		IKPUCode:        result.IKPU.Code,
		SEOScore:        result.ProductCard.SEOScore,
		ValidationScore: result.CardValidation.OverallScore,
		Source:          source,
	}
}
