package decimalx

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseMap 解析配置中的 key -> 数值字符串
func ParseMap(raw map[string]string) (map[string]decimal.Decimal, error) {
	res := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s=%q: %w", k, v, err)
		}
		res[k] = d
	}
	return res, nil
}
