package repo

import (
	"context"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"gorm.io/gorm"
)

type SignalRepo interface {
	Create(ctx context.Context, signal entity.Signal) (int64, error)
	// FindByStrategy 按信号时间升序返回, limit <= 0 不限制
	FindByStrategy(ctx context.Context, strategyId int64, limit int) ([]entity.Signal, error)
}

type signalRepo struct {
	db *gorm.DB
}

func NewSignalRepo(db *gorm.DB) SignalRepo {
	return &signalRepo{
		db: db,
	}
}

func (r *signalRepo) Create(ctx context.Context, signal entity.Signal) (int64, error) {
	err := r.db.WithContext(ctx).Create(&signal).Error
	if err != nil {
		return 0, err
	}
	return signal.Id, nil
}

func (r *signalRepo) FindByStrategy(ctx context.Context, strategyId int64, limit int) ([]entity.Signal, error) {
	var signals []entity.Signal
	query := r.db.WithContext(ctx).Where("strategy_id = ?", strategyId).Order("timestamp, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}
