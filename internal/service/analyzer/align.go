package analyzer

import (
	"errors"
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
)

var ErrAlignment = errors.New("indicator results are not aligned")

type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlignment, e.Reason)
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignment
}

// Align 检查多个指标结果长度与每个位置的时间完全一致
func Align(results ...indicator.Result) error {
	if len(results) < 2 {
		return nil
	}
	base := results[0]
	for _, res := range results[1:] {
		if res.Len() != base.Len() {
			return &AlignmentError{Reason: fmt.Sprintf("%s has %d entries, %s has %d",
				base.Indicator, base.Len(), res.Indicator, res.Len())}
		}
		for i := range res.Entries {
			if !res.Entries[i].Time.Equal(base.Entries[i].Time) {
				return &AlignmentError{Reason: fmt.Sprintf("%s and %s differ in time at index %d",
					base.Indicator, res.Indicator, i)}
			}
		}
	}
	return nil
}

func requireShape(res indicator.Result, shape indicator.Shape) error {
	if res.Shape != shape {
		return &AlignmentError{Reason: fmt.Sprintf("%s has shape %s, want %s", res.Indicator, res.Shape, shape)}
	}
	return nil
}

// Closes 以收盘价构造的指标结果, 作为价格输入与其他指标比较
func Closes(ticks []market.Tick) indicator.Result {
	entries := make([]indicator.Entry, len(ticks))
	for i, t := range ticks {
		entries[i] = indicator.Entry{Time: t.OpenTime, Defined: true, Value: t.Close}
	}
	return indicator.Result{Indicator: "close", Shape: indicator.ShapeValue, Entries: entries}
}

func newSeries(name string, kind Kind, base indicator.Result) Series {
	readings := make([]Reading, base.Len())
	for i, e := range base.Entries {
		readings[i] = Reading{Time: e.Time, Kind: kind}
	}
	return Series{Analyzer: name, Kind: kind, Readings: readings}
}
