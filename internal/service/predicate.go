package service

import "golang-fii-analyzer/internal/entity"

// FundPredicate is a boolean check over a fund record. Predicates compose
// with And/Or/Not so filter criteria stay declarative.
type FundPredicate func(fii entity.FII) bool

// And is satisfied when every predicate is satisfied.
func And(predicates ...FundPredicate) FundPredicate {
	return func(fii entity.FII) bool {
		for _, p := range predicates {
			if !p(fii) {
				return false
			}
		}
		return true
	}
}

// Or is satisfied when at least one predicate is satisfied.
func Or(predicates ...FundPredicate) FundPredicate {
	return func(fii entity.FII) bool {
		for _, p := range predicates {
			if p(fii) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p FundPredicate) FundPredicate {
	return func(fii entity.FII) bool {
		return !p(fii)
	}
}

// MinDividendYield keeps funds yielding at least min percent.
func MinDividendYield(min float64) FundPredicate {
	return func(fii entity.FII) bool { return fii.DividendYield >= min }
}

// MaxPVP keeps funds priced at or below max times book value.
func MaxPVP(max float64) FundPredicate {
	return func(fii entity.FII) bool { return fii.PVP <= max }
}

// PriceBetween keeps funds whose unit price lies in [min, max].
func PriceBetween(min, max float64) FundPredicate {
	return func(fii entity.FII) bool { return fii.Price >= min && fii.Price <= max }
}

// PositivePrice keeps funds with a strictly positive unit price.
func PositivePrice() FundPredicate {
	return func(fii entity.FII) bool { return fii.Price > 0 }
}
