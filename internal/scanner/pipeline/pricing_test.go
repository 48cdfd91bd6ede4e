package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePricing(t *testing.T) {
	t.Run("standard FBS scenario", func(t *testing.T) {
		opt, breakdown, err := ComputePricing(100000, FulfillmentFBS, 1.0)
		require.NoError(t, err)

		assert.Equal(t, 100000.0, opt.CostPrice)
		assert.Equal(t, 200000.0, opt.MinPrice)
		assert.Equal(t, 230000.0, opt.OptimalPrice)
		assert.Equal(t, 299000.0, opt.MaxPrice)
		assert.Equal(t, 65500.0, opt.NetProfit)
		assert.Equal(t, 28.48, opt.ActualMargin)
		assert.True(t, opt.IsProfitable)
		assert.True(t, opt.IsCompetitive)

		assert.Equal(t, 100000.0, breakdown.BaseCost)
		assert.Equal(t, 25000.0, breakdown.Delivery)
		assert.Equal(t, 5000.0, breakdown.Packaging)
		assert.Equal(t, 34500.0, breakdown.Commission)
		assert.Equal(t, 164500.0, breakdown.TotalCosts)
		assert.Equal(t, 230000.0, breakdown.Revenue)
		assert.Equal(t, 65500.0, breakdown.Profit)
	})

	t.Run("FBO uses cheaper delivery", func(t *testing.T) {
		opt, breakdown, err := ComputePricing(50000, FulfillmentFBO, 0.5)
		require.NoError(t, err)

		assert.Equal(t, 15000.0, breakdown.Delivery)
		assert.Equal(t, 103847.0, opt.MinPrice)
		assert.Equal(t, 119425.0, opt.OptimalPrice)
		assert.Equal(t, 155253.0, opt.MaxPrice)
	})

	t.Run("unknown fulfillment falls back to FBS delivery", func(t *testing.T) {
		_, breakdown, err := ComputePricing(100000, "warehouse", 1.0)
		require.NoError(t, err)
		assert.Equal(t, 25000.0, breakdown.Delivery)
	})

	t.Run("zero cost price rejected", func(t *testing.T) {
		_, _, err := ComputePricing(0, FulfillmentFBS, 1.0)
		assert.ErrorIs(t, err, ErrInvalidCostPrice)
	})

	t.Run("negative cost price rejected", func(t *testing.T) {
		_, _, err := ComputePricing(-500, FulfillmentFBS, 1.0)
		assert.ErrorIs(t, err, ErrInvalidCostPrice)
	})
}

// The breakdown must balance to the so'm regardless of where rounding lands.
func TestComputePricingAccountingIdentity(t *testing.T) {
	costs := []float64{1, 999, 12345, 100000, 3333333, 99999999}

	for _, cost := range costs {
		for _, fulfillment := range []string{FulfillmentFBO, FulfillmentFBS} {
			opt, breakdown, err := ComputePricing(cost, fulfillment, 1.0)
			require.NoError(t, err)

			assert.Equal(t, breakdown.Revenue, breakdown.TotalCosts+breakdown.Profit,
				"identity broken for cost=%v fulfillment=%s", cost, fulfillment)
			assert.Equal(t, opt.OptimalPrice, breakdown.Revenue)
			assert.GreaterOrEqual(t, opt.MaxPrice, opt.OptimalPrice)
			assert.GreaterOrEqual(t, opt.OptimalPrice, opt.MinPrice)
		}
	}
}
