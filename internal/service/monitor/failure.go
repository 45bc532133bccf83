package monitor

import (
	"github.com/KNICEX/strategy-monitor/internal/entity"
)

// FailureTracker 连续失败计数, 超过 Allowed 次时停用策略
type FailureTracker struct {
	Allowed int
}

// Failure 记录一次失败, 返回本次是否导致停用
func (t FailureTracker) Failure(s *entity.MemberStrategy) bool {
	s.FailedCycles++
	if s.Active && s.FailedCycles > t.Allowed {
		s.Active = false
		return true
	}
	return false
}

func (t FailureTracker) Success(s *entity.MemberStrategy) {
	s.FailedCycles = 0
}
