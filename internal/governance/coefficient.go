package governance

import (
	"github.com/shopspring/decimal"

	"assembly-service/internal/store"
)

// CoefficientResolver returns ownership shares. It reads through whatever
// TenantStore it is handed, so a vote resolves its weight inside the same
// transaction that inserts it.
type CoefficientResolver struct{}

// Resolve sums the coefficient of every property userID owns. A user without
// properties resolves to zero, which is not an error.
func (CoefficientResolver) Resolve(ts *store.TenantStore, userID uint) (decimal.Decimal, error) {
	coefficients, err := ts.OwnerCoefficients(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, coefficients...), nil
}

// Total returns the sum of every property coefficient of the tenant
func (CoefficientResolver) Total(ts *store.TenantStore) (decimal.Decimal, error) {
	coefficients, err := ts.PropertyCoefficients()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, coefficients...), nil
}

// Present returns the summed coefficient of the owners marked present
func (CoefficientResolver) Present(ts *store.TenantStore, assemblyID uint) (decimal.Decimal, error) {
	coefficients, err := ts.PresentCoefficients(assemblyID)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, coefficients...), nil
}
