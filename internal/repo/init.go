package repo

import (
	"github.com/KNICEX/strategy-monitor/internal/entity"
	"gorm.io/gorm"
)

var ErrRecordNotFound = gorm.ErrRecordNotFound

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.MemberStrategy{}, &entity.Signal{})
}
