package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/biznesyordam/scanner-service/internal/models"
)

// Recognizer identifies a product from an image. Unlike CardWriter, its
// failures are not masked: the recognition endpoint surfaces them to the
// caller (fail-fast policy). Inside the full pipeline recognition is an
// optional enrichment step, so a failure there only downgrades the request
// to the caller-supplied identity fields.
type Recognizer interface {
	Recognize(ctx context.Context, imageBase64, language string) (*models.RecognizedProduct, error)
}

// Fallback identity used when neither the caller nor the recognizer supplied
// a value.
const (
	DefaultBrand    = "Unknown"
	DefaultCategory = "electronics"
)

// Request is one full pipeline run. Zero values get the documented defaults
// applied by Normalize.
type Request struct {
	PartnerID   string  `json:"partner_id"`
	CostPrice   float64 `json:"cost_price"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	WeightKg    float64 `json:"weight_kg"`
	Fulfillment string  `json:"fulfillment"`
	ImageBase64 string  `json:"image_base64"`
	ProductName string  `json:"product_name"`
	Description string  `json:"description"`
	AutoIKPU    *bool   `json:"auto_ikpu"`
	Language    string  `json:"language"`
	Marketplace string  `json:"marketplace"`
}

// Normalize fills the documented request defaults in place.
func (r *Request) Normalize() {
	if r.Quantity <= 0 {
		r.Quantity = 1
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Brand == "" {
		r.Brand = DefaultBrand
	}
	if r.WeightKg <= 0 {
		r.WeightKg = 1
	}
	if r.Fulfillment != FulfillmentFBO {
		r.Fulfillment = FulfillmentFBS
	}
	if r.Language == "" {
		r.Language = "uz"
	}
	if r.Marketplace == "" {
		r.Marketplace = "uzum"
	}
}

func (r *Request) autoIKPU() bool {
	if r.AutoIKPU == nil {
		return true
	}
	return *r.AutoIKPU
}

// Pipeline runs intake, pricing, card generation, code assignment,
// validation and assembly for one request. It holds no state between runs.
type Pipeline struct {
	recognizer Recognizer
	cards      *CardGenerator
	logger     *slog.Logger
}

// New builds a pipeline. recognizer may be nil; image enrichment is then
// skipped entirely.
func New(recognizer Recognizer, writer CardWriter, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		cards:      NewCardGenerator(writer, logger),
		logger:     logger.With("component", "pipeline"),
	}
}

// Process runs the full pipeline. The only error it returns is
// ErrInvalidCostPrice; every upstream failure after intake degrades per the
// per-stage policies instead of failing the run.
func (p *Pipeline) Process(ctx context.Context, req Request) (*models.ScanResult, error) {
	if req.CostPrice <= 0 {
		return nil, ErrInvalidCostPrice
	}
	req.Normalize()

	var scanned *models.RecognizedProduct
	if req.ImageBase64 != "" && p.recognizer != nil {
		product, err := p.recognizer.Recognize(ctx, req.ImageBase64, req.Language)
		if err != nil {
			p.logger.Warn("image recognition failed, continuing without it", "error", err)
		} else {
			scanned = product
		}
	}

	name, brand, category, description := p.resolveIdentity(&req, scanned)

	opt, breakdown, err := ComputePricing(req.CostPrice, req.Fulfillment, req.WeightKg)
	if err != nil {
		return nil, err
	}

	card := p.cards.Generate(ctx, CardRequest{
		Name:         name,
		Brand:        brand,
		Category:     category,
		Description:  description,
		OptimalPrice: opt.OptimalPrice,
		Marketplace:  req.Marketplace,
	})

	ikpu, sku := AssignCodes(category, brand, req.autoIKPU())

	return &models.ScanResult{
		PriceOptimization: opt,
		PriceBreakdown:    breakdown,
		ProductCard:       card,
		IKPU:              ikpu,
		SKU:               sku,
		SalesTips:         buildSalesTips(opt, req.Fulfillment),
		CardValidation:    ValidateCard(card),
		CompetitorAnalysis: models.CompetitorAnalysis{
			CompetitorsFound: 0,
			MinPrice:         opt.MinPrice,
			MaxPrice:         opt.MaxPrice,
			AveragePrice:     0,
			Position:         "unknown",
		},
		ScannedProduct: scanned,
	}, nil
}

// resolveIdentity prefers caller-supplied fields over recognized ones, and
// recognized ones over the request defaults.
func (p *Pipeline) resolveIdentity(req *Request, scanned *models.RecognizedProduct) (name, brand, category, description string) {
	name = req.ProductName
	brand = req.Brand
	category = req.Category
	description = req.Description

	if scanned == nil {
		if name == "" {
			name = "Mahsulot"
		}
		return name, brand, category, description
	}

	if name == "" {
		name = scanned.Name
	}
	if brand == DefaultBrand && scanned.Brand != DefaultBrand {
		brand = scanned.Brand
	}
	if category == DefaultCategory && scanned.Category != DefaultCategory {
		category = scanned.Category
	}
	if description == "" {
		description = scanned.Description
	}
	return name, brand, category, description
}

// buildSalesTips produces the deterministic seller guidance attached to
// every scan.
func buildSalesTips(opt models.PriceOptimization, fulfillment string) []string {
	tips := []string{
		"Mahsulot rasmlarini yuqori sifatda joylashtiring",
		"Sarlavhada kalit so'zlarni ishlating",
		fmt.Sprintf("Narxni %.0f so'mdan pastga tushirmang", opt.MinPrice),
	}

	if fulfillment == FulfillmentFBO {
		tips = append(tips, "FBO omborida kamida 10 kunlik zaxira saqlang")
	} else {
		tips = append(tips, "FBS buyurtmalarini 24 soat ichida jo'nating")
	}

	if opt.ActualMargin >= 25 {
		tips = append(tips, fmt.Sprintf("Marja %.1f%% - aksiya va chegirmalar uchun joy bor", opt.ActualMargin))
	}

	return tips
}
