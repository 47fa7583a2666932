package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func price(v float64) *float64 { return &v }

func TestComputePricingStats(t *testing.T) {
	products := []Product{
		{Name: "A", Price: price(10)},
		{Name: "B", Price: price(30)},
		{Name: "C", Price: price(20)},
	}

	stats := ComputePricingStats(products)

	assert.Equal(t, 3, stats.ProductCount)
	assert.InDelta(t, 20.0, stats.AvgPrice, 0.001)
	assert.Equal(t, 10.0, stats.MinPrice)
	assert.Equal(t, 30.0, stats.MaxPrice)
}

func TestComputePricingStats_SkipsUnpriced(t *testing.T) {
	products := []Product{
		{Name: "A", Price: price(15)},
		{Name: "B"}, // no price
		{Name: "C"},
	}

	stats := ComputePricingStats(products)

	assert.Equal(t, 1, stats.ProductCount)
	assert.Equal(t, 15.0, stats.AvgPrice)
	assert.Equal(t, 15.0, stats.MinPrice)
	assert.Equal(t, 15.0, stats.MaxPrice)
}

func TestComputePricingStats_Empty(t *testing.T) {
	// No priced products must yield explicit zeros, not sentinel values.
	for _, products := range [][]Product{nil, {}, {{Name: "unpriced"}}} {
		stats := ComputePricingStats(products)
		assert.Zero(t, stats.AvgPrice)
		assert.Zero(t, stats.MinPrice)
		assert.Zero(t, stats.MaxPrice)
		assert.Zero(t, stats.ProductCount)
	}
}

func TestAnalysisStatus_Terminal(t *testing.T) {
	assert.False(t, StatusAnalyzing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
