package repo

import (
	"context"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"gorm.io/gorm"
)

type MemberStrategyRepo interface {
	Create(ctx context.Context, s entity.MemberStrategy) (int64, error)
	FindById(ctx context.Context, id int64) (entity.MemberStrategy, error)
	ListActive(ctx context.Context) ([]entity.MemberStrategy, error)
	// SaveState 只更新监控流程维护的字段, 只会把策略停用而不会重新启用
	SaveState(ctx context.Context, s entity.MemberStrategy) error
	// SetActive 手动启用或停用, 重新启用时清零失败次数
	SetActive(ctx context.Context, id int64, active bool) error
}

type memberStrategyRepo struct {
	db *gorm.DB
}

func NewMemberStrategyRepo(db *gorm.DB) MemberStrategyRepo {
	return &memberStrategyRepo{
		db: db,
	}
}

func (r *memberStrategyRepo) Create(ctx context.Context, s entity.MemberStrategy) (int64, error) {
	err := r.db.WithContext(ctx).Create(&s).Error
	if err != nil {
		return 0, err
	}
	return s.Id, nil
}

func (r *memberStrategyRepo) FindById(ctx context.Context, id int64) (entity.MemberStrategy, error) {
	var s entity.MemberStrategy
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		return entity.MemberStrategy{}, err
	}
	return s, nil
}

func (r *memberStrategyRepo) ListActive(ctx context.Context) ([]entity.MemberStrategy, error) {
	var res []entity.MemberStrategy
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *memberStrategyRepo) SaveState(ctx context.Context, s entity.MemberStrategy) error {
	updates := map[string]any{
		"failed_cycles":  s.FailedCycles,
		"last_positions": s.LastPositions,
		"has_result":     s.HasResult,
		"last_result_at": s.LastResultAt,
		"last_run_at":    s.LastRunAt,
		"updated_at":     time.Now(),
	}
	if !s.Active {
		updates["active"] = false
	}
	res := r.db.WithContext(ctx).Model(&entity.MemberStrategy{}).Where("id = ?", s.Id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *memberStrategyRepo) SetActive(ctx context.Context, id int64, active bool) error {
	updates := map[string]any{
		"active":     active,
		"updated_at": time.Now(),
	}
	if active {
		updates["failed_cycles"] = 0
	}
	res := r.db.WithContext(ctx).Model(&entity.MemberStrategy{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
