package indicator

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidRequest   = errors.New("invalid indicator request")
)

// InsufficientDataError K线数量少于指标参数所需的最小数量
type InsufficientDataError struct {
	Indicator string
	Required  int
	Actual    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d ticks, got %d", e.Indicator, e.Required, e.Actual)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

type InvalidRequestError struct {
	Indicator string
	Reason    string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Indicator, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(indicator, format string, args ...any) error {
	return &InvalidRequestError{Indicator: indicator, Reason: fmt.Sprintf(format, args...)}
}

// validate 校验周期 >= 1 且K线数量满足最小要求
func validate(indicator string, ticks, required int, periods ...int) error {
	for _, p := range periods {
		if p < 1 {
			return invalid(indicator, "period must be >= 1, got %d", p)
		}
	}
	if ticks < required {
		return &InsufficientDataError{Indicator: indicator, Required: required, Actual: ticks}
	}
	return nil
}
