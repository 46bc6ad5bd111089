package repo

import (
	"context"

	"github.com/go-orz/orz"
	"github.com/haitaoz/parastats/internal/models"
	"gorm.io/gorm"
)

func NewStatsHistoryRepo(db *gorm.DB) *StatsHistoryRepo {
	return &StatsHistoryRepo{
		Repository: orz.NewRepository[models.StatsHistory, string](db),
	}
}

type StatsHistoryRepo struct {
	orz.Repository[models.StatsHistory, string]
}

// FindAllOrderByRecordedAt 获取所有汇总快照（按时间排序）
func (r StatsHistoryRepo) FindAllOrderByRecordedAt(ctx context.Context) ([]models.StatsHistory, error) {
	var histories []models.StatsHistory
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("recorded_at ASC").
		Find(&histories).Error
	return histories, err
}

// FindLatest 获取最近一条汇总快照
func (r StatsHistoryRepo) FindLatest(ctx context.Context) (m models.StatsHistory, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Order("recorded_at DESC").
		First(&m).Error
	return m, err
}
