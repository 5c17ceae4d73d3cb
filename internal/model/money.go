package model

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)

// ParseDecimal reads an operator-typed amount. The first comma is taken as the
// decimal separator and trailing garbage after the numeric prefix is ignored;
// anything unreadable is zero.
func ParseDecimal(raw string) decimal.Decimal {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	num := leadingNumber.FindString(s)
	if num == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Cost is a catalog price. It decodes from a JSON number, a numeric string or
// null and is never negative.
type Cost struct {
	decimal.Decimal
}

func NewCost(d decimal.Decimal) Cost {
	if d.IsNegative() {
		return Cost{Decimal: decimal.Zero}
	}
	return Cost{Decimal: d}
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*c = Cost{Decimal: decimal.Zero}
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = Cost{Decimal: decimal.Zero}
			return nil
		}
		raw = s
	}
	*c = NewCost(ParseDecimal(raw))
	return nil
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal.String()), nil
}
