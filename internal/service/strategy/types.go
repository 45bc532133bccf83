package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownType     = errors.New("unknown strategy type")
	ErrMissingReading  = errors.New("missing analyzer reading")
	ErrUnknownPosition = errors.New("unknown position")
)

// Type 策略类型, 取值范围固定为 catalogue 中注册的规则
type Type string

const (
	MACDADX            Type = "MACD_ADX"
	StochasticADXEMA   Type = "STOCHASTIC_ADX_EMA"
	DoubleParabolic    Type = "DOUBLE_PARABOLIC"
	RSIBollinger       Type = "RSI_BOLLINGER"
	IchimokuCloud      Type = "ICHIMOKU_CLOUD"
	KeltnerBreakoutSAR Type = "KELTNER_BREAKOUT_SAR"
)

func (t Type) Valid() bool {
	_, ok := catalogue[t]
	return ok
}

type Position uint8

const (
	Long Position = 1 << iota
	Short
)

func (p Position) String() string {
	switch p {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return fmt.Sprintf("Position(%d)", uint8(p))
	}
}

func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(s) {
	case "LONG":
		return Long, nil
	case "SHORT":
		return Short, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPosition, s)
	}
}

// Positions 持仓集合, 空集表示空仓观望. 多空可以同时存在, 分别代表独立的开仓与离场触发.
type Positions uint8

const Flat Positions = 0

func NewPositions(ps ...Position) Positions {
	var res Positions
	for _, p := range ps {
		res = res.Add(p)
	}
	return res
}

func (ps Positions) Has(p Position) bool {
	return ps&Positions(p) != 0
}

func (ps Positions) Add(p Position) Positions {
	return ps | Positions(p)
}

func (ps Positions) IsFlat() bool {
	return ps == Flat
}

func (ps Positions) Equal(other Positions) bool {
	return ps == other
}

// Changed 是否需要发出信号, 首次评估只有非空仓才视为变化
func Changed(hasResult bool, prev, cur Positions) bool {
	if !hasResult {
		return !cur.IsFlat()
	}
	return !prev.Equal(cur)
}

func (ps Positions) Slice() []Position {
	res := make([]Position, 0, 2)
	for _, p := range []Position{Long, Short} {
		if ps.Has(p) {
			res = append(res, p)
		}
	}
	return res
}

func (ps Positions) String() string {
	if ps.IsFlat() {
		return "FLAT"
	}
	names := make([]string, 0, 2)
	for _, p := range ps.Slice() {
		names = append(names, p.String())
	}
	return strings.Join(names, ",")
}

func (ps Positions) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, 2)
	for _, p := range ps.Slice() {
		names = append(names, p.String())
	}
	return json.Marshal(names)
}

func (ps *Positions) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var res Positions
	for _, name := range names {
		p, err := ParsePosition(name)
		if err != nil {
			return err
		}
		res = res.Add(p)
	}
	*ps = res
	return nil
}

// Result 一次评估的结果, Timestamp 为被评估的最新K线时间
type Result struct {
	Timestamp time.Time
	Positions Positions
}
