package pipeline

import (
	"errors"
	"math"

	"github.com/biznesyordam/scanner-service/internal/models"
)

// Marketplace economics. The divisor (1 - commissionRate - minMarginRate)
// guarantees that at MinPrice the seller keeps at least minMarginRate of
// revenue after commission; changing either constant silently changes that
// guarantee.
const (
	commissionRate = 0.15
	minMarginRate  = 0.20
	packagingRate  = 0.05

	// Flat per-unit delivery cost in so'm, by fulfillment mode.
	deliveryFBO = 15000.0
	deliveryFBS = 25000.0

	// Profitability is re-checked at the optimal price against this
	// threshold. It is deliberately not the same number as minMarginRate.
	profitableMarginPct = 15.0

	optimalMarkup = 1.15
	maxMarkup     = 1.30
)

// ErrInvalidCostPrice is returned when the caller supplies a non-positive
// cost price. The message is the user-facing one.
var ErrInvalidCostPrice = errors.New("tannarx kiritilmagan")

// FulfillmentFBO and FulfillmentFBS select the delivery cost constant.
const (
	FulfillmentFBO = "fbo"
	FulfillmentFBS = "fbs"
)

// ComputePricing derives the full price ladder and cost breakdown for one
// unit. All three price points round up: undershooting the guaranteed
// margin is the failure mode this formula exists to prevent. weightKg is
// accepted for API compatibility; the flat delivery constants do not depend
// on it.
func ComputePricing(costPrice float64, fulfillment string, weightKg float64) (models.PriceOptimization, models.PriceBreakdown, error) {
	if costPrice <= 0 {
		return models.PriceOptimization{}, models.PriceBreakdown{}, ErrInvalidCostPrice
	}

	delivery := deliveryFBS
	if fulfillment == FulfillmentFBO {
		delivery = deliveryFBO
	}

	packaging := costPrice * packagingRate
	baseCost := costPrice + delivery + packaging

	minPrice := math.Ceil(baseCost / (1 - commissionRate - minMarginRate))
	optimalPrice := math.Ceil(minPrice * optimalMarkup)
	maxPrice := math.Ceil(optimalPrice * maxMarkup)

	commission := math.Ceil(optimalPrice * commissionRate)
	netProfit := optimalPrice - baseCost - commission
	actualMargin := math.Round(netProfit/optimalPrice*10000) / 100

	opt := models.PriceOptimization{
		CostPrice:    costPrice,
		MinPrice:     minPrice,
		OptimalPrice: optimalPrice,
		MaxPrice:     maxPrice,
		NetProfit:    netProfit,
		ActualMargin: actualMargin,
		IsProfitable: actualMargin >= profitableMarginPct,
		// No competitor source is integrated yet; see CompetitorAnalysis.
		IsCompetitive: true,
	}

	totalCosts := costPrice + delivery + packaging + commission
	breakdown := models.PriceBreakdown{
		BaseCost:   costPrice,
		Delivery:   delivery,
		Packaging:  packaging,
		Commission: commission,
		TotalCosts: totalCosts,
		Revenue:    optimalPrice,
		// Derived as revenue minus total costs so the accounting identity
		// revenue == total_costs + profit holds exactly after rounding.
		Profit: optimalPrice - totalCosts,
	}

	return opt, breakdown, nil
}
