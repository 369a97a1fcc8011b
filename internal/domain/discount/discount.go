package discount

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Policy computes a fractional discount rate in [0, 1) for a customer.
// Policies are stateless: the same customer id always yields the same rate.
type Policy interface {
	Rate(customerID int64) decimal.Decimal
	Description() string
}

// Apply composes policies multiplicatively:
//
//	final = cost × Π(1 − rate_i)
//
// over all policies. With no policies the cost is returned unchanged.
func Apply(cost decimal.Decimal, customerID int64, policies []Policy) decimal.Decimal {
	final := cost
	for _, p := range policies {
		final = final.Mul(decimal.NewFromInt(1).Sub(p.Rate(customerID)))
	}
	return final
}

// PrimePolicy grants a fixed discount to customers whose numeric identifier
// is a prime number.
type PrimePolicy struct {
	rate decimal.Decimal
}

// NewPrimePolicy creates a PrimePolicy with the given rate, e.g. 0.17 for
// a 17% discount.
func NewPrimePolicy(rate decimal.Decimal) *PrimePolicy {
	return &PrimePolicy{rate: rate}
}

func (p *PrimePolicy) Rate(customerID int64) decimal.Decimal {
	if customerID >= 2 && big.NewInt(customerID).ProbablyPrime(0) {
		return p.rate
	}
	return decimal.Zero
}

func (p *PrimePolicy) Description() string {
	return "customers with a prime id get " + p.rate.Mul(decimal.NewFromInt(100)).String() + "% off the receipt price"
}
