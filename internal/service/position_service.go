package service

import (
	"context"
	"math"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/pkg/paradex"
	"go.uber.org/zap"
)

// ActivePosition 有仓量的持仓
type ActivePosition struct {
	Account       string  `json:"account"`
	Market        string  `json:"market"`
	Side          string  `json:"side"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entry_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
}

// GroupPositions 账户组持仓汇总
type GroupPositions struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	UnrealizedPnl float64          `json:"unrealized_pnl"`
	Positions     []ActivePosition `json:"positions"`
}

// PositionReport 全账户持仓扫描结果
type PositionReport struct {
	Groups        []GroupPositions `json:"groups"`
	UnrealizedPnl float64          `json:"unrealized_pnl"`
	Notional      float64          `json:"notional"` // 名义价值估算 Σ|size*entry|
	HasPositions  bool             `json:"has_positions"`
}

// PositionService 持仓监控：无状态、无缓存，总是拉取最新
type PositionService struct {
	logger *zap.Logger
	conf   *config.Config
	client *paradex.Client
}

// NewPositionService 创建持仓服务
func NewPositionService(conf *config.Config, client *paradex.Client, logger *zap.Logger) *PositionService {
	return &PositionService{
		logger: logger,
		conf:   conf,
		client: client,
	}
}

// Scan 扫描全部账户的当前持仓。单账户失败只记日志并继续。
func (s *PositionService) Scan(ctx context.Context) *PositionReport {
	report := &PositionReport{}

	for _, g := range s.conf.Groups {
		gp := GroupPositions{ID: g.ID, Name: g.Name}

		for _, a := range g.Accounts {
			if a.Key == "" {
				continue
			}

			positions, err := s.client.Positions(ctx, a.Key)
			if err != nil {
				s.logger.Warn("position scan failed",
					zap.String("account", g.CacheKey(a)), zap.Error(err))
				continue
			}

			for _, p := range positions {
				if p.Size == 0 {
					continue
				}
				side := p.Side
				if side == "" {
					side = "LONG"
					if p.Size < 0 {
						side = "SHORT"
					}
				}

				gp.Positions = append(gp.Positions, ActivePosition{
					Account:       a.Name,
					Market:        p.Market,
					Side:          side,
					Size:          math.Abs(p.Size),
					EntryPrice:    p.AverageEntryPrice,
					UnrealizedPnl: p.UnrealizedPnl,
				})
				gp.UnrealizedPnl += p.UnrealizedPnl
				report.UnrealizedPnl += p.UnrealizedPnl
				report.Notional += math.Abs(p.Size * p.AverageEntryPrice)
				report.HasPositions = true
			}
		}

		report.Groups = append(report.Groups, gp)
	}

	return report
}
