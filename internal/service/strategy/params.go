package strategy

import (
	"fmt"
	"slices"

	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Params 指标参数, key 形如 "macd.fast"
type Params map[string]decimal.Decimal

func (p Params) Int(key string) int {
	return int(p[key].IntPart())
}

func (p Params) Decimal(key string) decimal.Decimal {
	return p[key]
}

// ResolveParams 依次叠加规则默认值, 全局默认值和用户覆盖值.
// 全局配置中不属于该策略的参数直接忽略, 用户覆盖中未知的参数名通过 ignored 返回.
func ResolveParams(t Type, global, overrides Params) (params Params, ignored []string, err error) {
	rule, err := Lookup(t)
	if err != nil {
		return nil, nil, err
	}
	known := func(key string, _ decimal.Decimal) bool {
		_, ok := rule.Defaults[key]
		return ok
	}
	ignored = lo.Keys(lo.OmitBy(overrides, known))
	slices.Sort(ignored)
	params = lo.Assign(rule.Defaults, lo.PickBy(global, known), lo.PickBy(overrides, known))
	return params, ignored, nil
}

// ParseParams 解析字符串形式的参数
func ParseParams(raw map[string]string) (Params, error) {
	res, err := decimalx.ParseMap(raw)
	if err != nil {
		return nil, fmt.Errorf("strategy params: %w", err)
	}
	return res, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
