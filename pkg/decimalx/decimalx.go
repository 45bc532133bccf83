package decimalx

import (
	"math"

	"github.com/shopspring/decimal"
)

// Precision 除法保留的小数位数, 舍入方式为四舍五入(远离零)
const Precision int32 = 16

var (
	Two     = decimal.NewFromInt(2)
	Hundred = decimal.NewFromInt(100)
)

// Div 安全除法, 除数为0时返回0
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, Precision)
}

// DivOr 除数为0时返回 fallback
func DivOr(a, b, fallback decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return fallback
	}
	return a.DivRound(b, Precision)
}

// Sqrt 牛顿迭代开方, 负数返回0
func Sqrt(d decimal.Decimal) decimal.Decimal {
	if d.Sign() <= 0 {
		return decimal.Zero
	}
	x := decimal.NewFromFloat(math.Sqrt(d.InexactFloat64()))
	if x.Sign() <= 0 {
		x = d
	}
	for i := 0; i < 64; i++ {
		next := x.Add(Div(d, x)).DivRound(Two, Precision)
		if next.Equal(x) {
			break
		}
		x = next
	}
	return x.Round(Precision)
}
