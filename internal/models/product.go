package models

// RecognizedProduct is the normalized result of the external image
// recognition service. Every field carries a total default so downstream
// stages never see a missing value.
type RecognizedProduct struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Specifications []string `json:"specifications"`
	Confidence     float64  `json:"confidence"`
	SuggestedPrice float64  `json:"suggestedPrice"`
}

// PriceOptimization is the computed price ladder for one product.
type PriceOptimization struct {
	CostPrice     float64 `json:"cost_price"`
	MinPrice      float64 `json:"min_price"`
	OptimalPrice  float64 `json:"optimal_price"`
	MaxPrice      float64 `json:"max_price"`
	NetProfit     float64 `json:"net_profit"`
	ActualMargin  float64 `json:"actual_margin"`
	IsProfitable  bool    `json:"is_profitable"`
	IsCompetitive bool    `json:"is_competitive"`
}

// PriceBreakdown decomposes the optimal price into its cost components.
// Invariant: Revenue == TotalCosts + Profit, exactly.
type PriceBreakdown struct {
	BaseCost   float64 `json:"base_cost"`
	Delivery   float64 `json:"delivery"`
	Packaging  float64 `json:"packaging"`
	Commission float64 `json:"commission"`
	TotalCosts float64 `json:"total_costs"`
	Revenue    float64 `json:"revenue"`
	Profit     float64 `json:"profit"`
}

// ProductCard is a bilingual marketplace listing.
type ProductCard struct {
	TitleUz        string            `json:"title_uz"`
	TitleRu        string            `json:"title_ru"`
	DescriptionUz  string            `json:"description_uz"`
	DescriptionRu  string            `json:"description_ru"`
	BulletPointsUz []string          `json:"bullet_points_uz"`
	BulletPointsRu []string          `json:"bullet_points_ru"`
	Keywords       []string          `json:"keywords"`
	Specifications map[string]string `json:"specifications"`
	SEOScore       float64           `json:"seo_score"`
}

// IKPU is the Uzbekistan tax classification code assigned to a product.
// Code is empty when auto-assignment was disabled by the caller.
type IKPU struct {
	Code     string `json:"code"`
	Category string `json:"category"`
}

// CardValidation scores a card against the four structural checks.
// OverallScore is always a multiple of 25.
type CardValidation struct {
	TitleOK       bool    `json:"title_ok"`
	DescriptionOK bool    `json:"description_ok"`
	KeywordsOK    bool    `json:"keywords_ok"`
	SpecsOK       bool    `json:"specs_ok"`
	OverallScore  float64 `json:"overall_score"`
}

// CompetitorAnalysis is a stub surface kept for API compatibility: no
// competitor source is integrated yet, so the bounds mirror the computed
// price ladder.
type CompetitorAnalysis struct {
	CompetitorsFound int     `json:"competitors_found"`
	MinPrice         float64 `json:"min_price"`
	MaxPrice         float64 `json:"max_price"`
	AveragePrice     float64 `json:"average_price"`
	Position         string  `json:"position"`
}

// ScanResult is the assembled envelope for a full pipeline run.
type ScanResult struct {
	PriceOptimization  PriceOptimization  `json:"price_optimization"`
	PriceBreakdown     PriceBreakdown     `json:"price_breakdown"`
	ProductCard        ProductCard        `json:"product_card"`
	IKPU               IKPU               `json:"ikpu"`
	SKU                string             `json:"sku"`
	SalesTips          []string           `json:"sales_tips"`
	CardValidation     CardValidation     `json:"card_validation"`
	CompetitorAnalysis CompetitorAnalysis `json:"competitor_analysis"`
	ScannedProduct     *RecognizedProduct `json:"scanned_product"`
}

// CardPatch is a partial ProductCard produced by the external card
// generation service. Nil and empty fields mean "keep the template value";
// only fields the service actually returned overwrite the template.
type CardPatch struct {
	TitleUz        *string
	TitleRu        *string
	DescriptionUz  *string
	DescriptionRu  *string
	BulletPointsUz []string
	BulletPointsRu []string
	Keywords       []string
	Specifications map[string]string
	SEOScore       *float64
}
