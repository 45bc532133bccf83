package strategy

import (
	"fmt"
	"slices"

	"github.com/KNICEX/strategy-monitor/internal/service/analyzer"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/samber/lo"
)

// Readings 按输入名索引的分析结果
type Readings map[string]analyzer.Series

// At 缺失的输入返回未定义的结论
func (r Readings) At(name string, i int) analyzer.Reading {
	return r[name].At(i)
}

type Input struct {
	Name string
	Kind analyzer.Kind
}

// Rule 一种策略的组合规则, 增加策略类型只需要增加一条规则
type Rule struct {
	Type     Type
	Defaults Params
	Inputs   []Input
	// MinTicks 计算所需的最少K线数
	MinTicks func(p Params) int
	Analyze  func(ticks []market.Tick, p Params) (Readings, error)
	Combine  func(r Readings, latest int) Positions
}

var catalogue = lo.KeyBy([]Rule{
	macdADXRule(),
	stochasticADXEMARule(),
	doubleParabolicRule(),
	rsiBollingerRule(),
	ichimokuCloudRule(),
	keltnerBreakoutSARRule(),
}, func(r Rule) Type {
	return r.Type
})

func Lookup(t Type) (Rule, error) {
	rule, ok := catalogue[t]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return rule, nil
}

func Types() []Type {
	types := lo.Keys(catalogue)
	slices.Sort(types)
	return types
}

// conjunctive 所有输入都看多时做多, 都看空时做空, 否则空仓
func conjunctive(inputs ...Input) func(r Readings, latest int) Positions {
	return func(r Readings, latest int) Positions {
		readings := lo.Map(inputs, func(in Input, _ int) analyzer.Reading {
			return r.At(in.Name, latest)
		})
		switch {
		case lo.EveryBy(readings, analyzer.Reading.Bullish):
			return NewPositions(Long)
		case lo.EveryBy(readings, analyzer.Reading.Bearish):
			return NewPositions(Short)
		default:
			return Flat
		}
	}
}
