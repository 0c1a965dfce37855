package statement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SharesScale is the number of units in one share.
const SharesScale = 100_000_000

// Shares is an exact number of shares, stored in hundred-millionths so that
// fractional savings plan executions are represented exactly.
type Shares int64

// SharesOf returns the Shares for value. It fails if value has more than eight
// decimals or does not fit.
func SharesOf(value decimal.Decimal) (Shares, error) {
	scaled := value.Shift(8)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("too many decimals in %s", value)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("number of shares %s out of range", value)
	}
	return Shares(scaled.IntPart()), nil
}

func (s Shares) Decimal() decimal.Decimal { return decimal.New(int64(s), -8) }
func (s Shares) String() string           { return s.Decimal().String() }

func (s Shares) MarshalJSON() ([]byte, error) {
	return s.Decimal().MarshalJSON()
}

func (s *Shares) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := SharesOf(d)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
