package analyzer

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
)

// BandCross 相邻两根K线之间价格对通道上中下轨的穿越, 只依赖这两根K线
func BandCross(price, band indicator.Result) (Series, error) {
	if err := requireShape(band, indicator.ShapeBand); err != nil {
		return Series{}, err
	}
	if err := Align(price, band); err != nil {
		return Series{}, err
	}
	series := newSeries(fmt.Sprintf("band_cross(%s)", band.Indicator), KindCross, band)
	for i := 1; i < band.Len(); i++ {
		pp, cp := price.Entries[i-1], price.Entries[i]
		pb, cb := band.Entries[i-1], band.Entries[i]
		if !pp.Defined || !cp.Defined || !pb.Defined || !cb.Defined {
			continue
		}
		r := &series.Readings[i]
		r.Defined = true
		r.Strength = Weak
		r.Cross = Cross{
			Upper: pp.Value.LessThanOrEqual(pb.Upper) && cp.Value.GreaterThan(cb.Upper),
			Lower: pp.Value.GreaterThanOrEqual(pb.Lower) && cp.Value.LessThan(cb.Lower),
			Middle: (pp.Value.LessThanOrEqual(pb.Value) && cp.Value.GreaterThan(cb.Value)) ||
				(pp.Value.GreaterThanOrEqual(pb.Value) && cp.Value.LessThan(cb.Value)),
		}
	}
	return series, nil
}
