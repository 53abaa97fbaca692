package service

import (
	"testing"

	"golang-fii-analyzer/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestPredicateComposition(t *testing.T) {
	fund := entity.FII{Ticker: "HGLG11", Price: 160, DividendYield: 8, PVP: 0.95}

	cheap := MaxPVP(1.0)
	highYield := MinDividendYield(10)

	assert.True(t, cheap(fund))
	assert.False(t, highYield(fund))

	assert.False(t, And(cheap, highYield)(fund))
	assert.True(t, Or(cheap, highYield)(fund))
	assert.True(t, Not(highYield)(fund))
	assert.False(t, Not(cheap)(fund))
}

func TestPriceBetweenBoundsAreInclusive(t *testing.T) {
	inRange := PriceBetween(5, 200)

	assert.True(t, inRange(entity.FII{Price: 5}))
	assert.True(t, inRange(entity.FII{Price: 200}))
	assert.False(t, inRange(entity.FII{Price: 4.99}))
	assert.False(t, inRange(entity.FII{Price: 200.01}))
}

func TestPositivePrice(t *testing.T) {
	assert.True(t, PositivePrice()(entity.FII{Price: 0.01}))
	assert.False(t, PositivePrice()(entity.FII{Price: 0}))
	assert.False(t, PositivePrice()(entity.FII{Price: -1}))
}
