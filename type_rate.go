package statement

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ExchangeRate converts amounts from the Base currency into the Term
// currency: one unit of Base is worth Rate units of Term.
type ExchangeRate struct {
	Base, Term string
	Rate       decimal.Decimal
}

// inversePrecision is the number of significant digits kept when inverting a rate.
const inversePrecision = 10

// Inverse returns the rate converting Term into Base.
func (r ExchangeRate) Inverse() ExchangeRate {
	return ExchangeRate{Base: r.Term, Term: r.Base, Rate: invert(r.Rate)}
}

// invert returns 1/x with inversePrecision significant digits, rounded half up.
func invert(x decimal.Decimal) decimal.Decimal {
	if x.IsZero() {
		return x
	}
	q := decimal.NewFromInt(1).DivRound(x, 32)
	// adjusted is the position of the most significant digit, 0 for 0.8, -2 for 0.008.
	adjusted := int32(len(new(big.Int).Abs(q.Coefficient()).String())) + q.Exponent()
	return q.Round(inversePrecision - adjusted)
}

// Factor returns the multiplier converting an amount in from into to.
func (r ExchangeRate) Factor(from, to string) (decimal.Decimal, error) {
	switch {
	case from == to:
		return decimal.NewFromInt(1), nil
	case from == r.Base && to == r.Term:
		return r.Rate, nil
	case from == r.Term && to == r.Base:
		return invert(r.Rate), nil
	}
	return decimal.Decimal{}, fmt.Errorf("exchange rate %s cannot convert %s into %s", r, from, to)
}

// Convert converts m into currency to, rounding half to even to the hundredth.
func (r ExchangeRate) Convert(m Money, to string) (Money, error) {
	f, err := r.Factor(m.Currency(), to)
	if err != nil {
		return Money{}, err
	}
	converted := m.Decimal().Mul(f).RoundBank(2)
	if err := checkMoney(converted); err != nil {
		return Money{}, err
	}
	return Money{amount: converted.Shift(2).IntPart(), cur: to}, nil
}

func (r ExchangeRate) String() string {
	return fmt.Sprintf("%s/%s %s", r.Base, r.Term, r.Rate)
}

// Percent is an exact percentage, 12.5 meaning 12.5%.
type Percent struct {
	decimal.Decimal
}

func (p Percent) String() string { return p.Decimal.String() + "%" }

// Of returns p percent of s.
func (p Percent) Of(s Shares) Shares {
	v, _ := SharesOf(s.Decimal().Mul(p.Decimal).Div(decimal.NewFromInt(100)).Round(8))
	return v
}
