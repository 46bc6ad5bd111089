package service

import (
	"context"

	"github.com/haitaoz/parastats/pkg/paradex"
	"go.uber.org/zap"
)

// PointsState 账户积分现状
type PointsState struct {
	Earned     float64 `json:"earned"`      // 累计获得
	Available  float64 `json:"available"`   // 可转移
	WeekNum    int     `json:"week_num"`    // 最近已结算周号
	WeekPoints float64 `json:"week_points"` // 该周积分增量
}

// AccountSnapshot 账户即时状态，每次调用都重新拉取，不进缓存
type AccountSnapshot struct {
	Value   float64     `json:"value"`
	Address string      `json:"address"`
	Points  PointsState `json:"points"`
}

// SnapshotService 账户即时状态查询
//
// 三类查询彼此独立且无状态，单项失败只降级为零值，从不中断调用方。
type SnapshotService struct {
	logger *zap.Logger
	client *paradex.Client
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(client *paradex.Client, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		logger: logger,
		client: client,
	}
}

// AccountValue 账户当前净值，失败返回0
func (s *SnapshotService) AccountValue(ctx context.Context, acc Account) float64 {
	value, err := s.client.AccountValue(ctx, acc.APIKey)
	if err != nil {
		s.logger.Warn("failed to fetch account value",
			zap.String("account", acc.Key), zap.Error(err))
		return 0
	}
	return value
}

// Address 账户链上地址，失败返回空串。
// 每个逻辑操作只调用一次，结果同时供展示与导出复用，避免触发限流。
func (s *SnapshotService) Address(ctx context.Context, acc Account) string {
	addr, err := s.client.AccountAddress(ctx, acc.APIKey)
	if err != nil {
		s.logger.Warn("failed to fetch account address",
			zap.String("account", acc.Key), zap.Error(err))
		return ""
	}
	return addr
}

// Points 账户积分现状：余额与历史周分各自独立容错
func (s *SnapshotService) Points(ctx context.Context, acc Account) PointsState {
	var state PointsState

	balance, err := s.client.PointsBalance(ctx, acc.APIKey)
	if err != nil {
		s.logger.Warn("failed to fetch points balance",
			zap.String("account", acc.Key), zap.Error(err))
	} else {
		state.Earned = balance.EarnedXP
		state.Available = balance.TransferableXP
	}

	history, err := s.client.PointsHistory(ctx, acc.APIKey)
	if err != nil {
		s.logger.Warn("failed to fetch points history",
			zap.String("account", acc.Key), zap.Error(err))
	} else if len(history) > 0 {
		// PointsHistory已按周号升序，最后一项即最近已结算周
		latest := history[len(history)-1]
		state.WeekNum = latest.Week
		state.WeekPoints = latest.Points
	}

	return state
}

// Snapshot 拉取完整即时状态
func (s *SnapshotService) Snapshot(ctx context.Context, acc Account) AccountSnapshot {
	return AccountSnapshot{
		Value:   s.AccountValue(ctx, acc),
		Address: s.Address(ctx, acc),
		Points:  s.Points(ctx, acc),
	}
}
