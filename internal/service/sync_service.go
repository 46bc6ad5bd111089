package service

import (
	"context"
	"sort"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/store"
	"github.com/haitaoz/parastats/pkg/paradex"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Account 一次同步操作的目标账户：缓存键+凭证+显示名
type Account struct {
	Key     string // 缓存键，例如 g0_Acc 0.1
	APIKey  string // 不透明Bearer凭证
	Name    string
	GroupID int
}

// SyncService 增量账本同步服务
//
// 出入金与成交都遵循同一套水位线纪律：只请求严格晚于水位线的记录
//（下界=水位线+1，半开），成功后原子推进缓存，任何失败都不触碰缓存、
// 返回最近一次的持久值。错误对上层永远是可恢复的：记一条日志，
// 下次调用从同一水位线重试。
type SyncService struct {
	logger *zap.Logger
	client *paradex.Client
	cache  *store.StatsCache
}

// NewSyncService 创建同步服务
func NewSyncService(client *paradex.Client, cache *store.StatsCache, logger *zap.Logger) *SyncService {
	return &SyncService{
		logger: logger,
		client: client,
		cache:  cache,
	}
}

// Cache 暴露底层统计缓存（聚合方只读）
func (s *SyncService) Cache() *store.StatsCache {
	return s.cache
}

// SyncTransfers 增量同步出入金，返回最新（或失败时最近缓存）的净充值
func (s *SyncService) SyncTransfers(ctx context.Context, acc Account) float64 {
	st := s.cache.State(acc.Key)

	transfers, err := s.client.Transfers(ctx, acc.APIKey, lowerBound(st.LastTransferTs))
	if err != nil {
		s.logger.Warn("transfer sync failed, keeping cached value",
			zap.String("account", acc.Key),
			zap.String("err", truncateString(err.Error(), 120)))
		return st.NetDeposits
	}

	net := st.NetDeposits
	watermark := st.LastTransferTs
	for _, t := range transfers {
		// 非COMPLETED的转账没有稳定的最终金额，本轮直接丢弃，也不推进水位线
		if t.Status != paradex.StatusCompleted {
			continue
		}
		switch t.Direction {
		case paradex.DirectionIn:
			net += t.Amount
		case paradex.DirectionOut:
			net -= t.Amount
		}
		if t.CreatedAt > watermark {
			watermark = t.CreatedAt
		}
	}

	s.cache.ApplyTransfers(acc.Key, net, watermark)
	return net
}

// SyncFills 增量同步成交，返回最新（或失败时最近缓存）的总成交额
func (s *SyncService) SyncFills(ctx context.Context, acc Account) float64 {
	st := s.cache.State(acc.Key)

	records, err := s.client.Fills(ctx, acc.APIKey, lowerBound(st.LastFillTs))
	if err != nil {
		s.logger.Warn("fill sync failed, keeping cached value",
			zap.String("account", acc.Key),
			zap.String("err", truncateString(err.Error(), 120)))
		return st.TotalVolume
	}
	if len(records) == 0 {
		return st.TotalVolume
	}

	// 原始成交立即折算为持久形态，价格/数量/手续费不再保留
	watermark := st.LastFillTs
	fills := make([]store.Fill, 0, len(records))
	for _, r := range records {
		fills = append(fills, store.Fill{
			Ts:  r.CreatedAt,
			Vol: r.Price * r.Size,
			Pnl: r.RealizedPnl - r.Fee,
		})
		if r.CreatedAt > watermark {
			watermark = r.CreatedAt
		}
	}

	// 页内顺序不保证单调，追加前先排好序以维持全局升序不变量
	sort.Slice(fills, func(i, j int) bool { return fills[i].Ts < fills[j].Ts })

	total := s.cache.AppendFills(acc.Key, fills, watermark)
	s.logger.Info("fills merged",
		zap.String("account", acc.Key),
		zap.Int("new_fills", len(fills)),
		zap.Float64("total_volume", total))
	return total
}

// SyncAccount 同步单个账户：两类同步操作缓存中不相交的字段，可以并行，
// 两者都结束后本账户的状态才允许落盘。
func (s *SyncService) SyncAccount(ctx context.Context, acc Account) {
	var wg conc.WaitGroup
	wg.Go(func() { s.SyncTransfers(ctx, acc) })
	wg.Go(func() { s.SyncFills(ctx, acc) })
	wg.Wait()
}

// SyncAll 按组顺序同步全部账户并落盘一次检查点。
// 单个账户失败不终止遍历，崩溃最多丢失一轮未落盘的进度。
func (s *SyncService) SyncAll(ctx context.Context, groups []config.GroupConf) {
	for _, acc := range Flatten(groups) {
		s.logger.Info("updating account", zap.String("account", acc.Key))
		s.SyncAccount(ctx, acc)
	}
	if err := s.cache.Save(); err != nil {
		s.logger.Error("failed to save stats cache", zap.Error(err))
	}
}

// Flatten 展开账户组配置，跳过未配置凭证的账户
func Flatten(groups []config.GroupConf) []Account {
	var accounts []Account
	for _, g := range groups {
		for _, a := range g.Accounts {
			if a.Key == "" {
				continue
			}
			accounts = append(accounts, Account{
				Key:     g.CacheKey(a),
				APIKey:  a.Key,
				Name:    a.Name,
				GroupID: g.ID,
			})
		}
	}
	return accounts
}

func lowerBound(watermark int64) int64 {
	if watermark <= 0 {
		return 0
	}
	// 半开下界：水位线本身的时间戳可能与已处理记录碰撞，永不重取
	return watermark + 1
}

// truncateString 截断字符串
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
