//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/handler"
	"github.com/haitaoz/parastats/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewStatsHandler,
	)

	statsSet = wire.NewSet(
		provideParadexClient,
		provideStatsCache,
		service.NewSyncService,
		service.NewSnapshotService,
		service.NewReportService,
		service.NewStatsService,
		service.NewPositionService,
		service.NewStatsLoop,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		statsSet,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
