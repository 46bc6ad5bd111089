package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-orz/orz"
	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/models"
	"github.com/haitaoz/parastats/internal/repo"
	"github.com/haitaoz/parastats/internal/telegram"
	"github.com/haitaoz/parastats/pkg/nostd"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountTotals 单账户实时汇总
type AccountTotals struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	NetDeposits float64 `json:"net_deposits"`
	Pnl         float64 `json:"pnl"`
	Volume      float64 `json:"volume"`
}

// GroupTotals 账户组汇总
type GroupTotals struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Value       float64         `json:"value"`
	NetDeposits float64         `json:"net_deposits"`
	Pnl         float64         `json:"pnl"`
	Volume      float64         `json:"volume"`
	Efficiency  float64         `json:"efficiency"`
	Accounts    []AccountTotals `json:"accounts"`
}

// TotalReport 全账户实时汇总：盈亏=余额-净充值
type TotalReport struct {
	Groups      []GroupTotals `json:"groups"`
	Value       float64       `json:"value"`
	NetDeposits float64       `json:"net_deposits"`
	Pnl         float64       `json:"pnl"`
	Volume      float64       `json:"volume"`
	Efficiency  float64       `json:"efficiency"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// WeeklyRow 周报中的一行（一个账户）
type WeeklyRow struct {
	Account         string  `json:"account"`
	Address         string  `json:"address"`
	Balance         float64 `json:"balance"`
	PointsTotal     float64 `json:"points_total"`
	PointsEarned    float64 `json:"points_earned"`
	PointsAvailable float64 `json:"points_available"`
	WeekNum         int     `json:"week_num"`
	WeekPoints      float64 `json:"week_points"`
	Volume          float64 `json:"volume"`
	Pnl             float64 `json:"pnl"`
	Trades          int     `json:"trades"`
}

// WeeklyReport 最近一个已结算周的统计与积分明细
type WeeklyReport struct {
	WindowStart      time.Time     `json:"window_start"`
	WindowEnd        time.Time     `json:"window_end"`
	Rows             []WeeklyRow   `json:"rows"`
	Summary          WindowSummary `json:"summary"`
	PointsPool       float64       `json:"points_pool"`
	LatestWeek       int           `json:"latest_week"`
	LatestWeekPoints float64       `json:"latest_week_points"`
	ReportPath       string        `json:"report_path,omitempty"`
}

// GroupWindow 滚动窗口内的账户组表现
type GroupWindow struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Summary  WindowSummary   `json:"summary"`
	Accounts []AccountWindow `json:"accounts"`
}

// AccountWindow 滚动窗口内的单账户表现
type AccountWindow struct {
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	Summary WindowSummary `json:"summary"`
}

// RollingReport 自最近UTC周五00:00起的表现
type RollingReport struct {
	Start   time.Time     `json:"start"`
	Groups  []GroupWindow `json:"groups"`
	Summary WindowSummary `json:"summary"`
}

// StatsService 聚合引擎与三类统计操作的编排。
// 聚合本身只读缓存与快照，绝不触网；网络只发生在前置的同步阶段。
type StatsService struct {
	logger *zap.Logger
	conf   *config.Config

	*orz.Service
	*repo.StatsHistoryRepo

	syncService     *SyncService
	snapshotService *SnapshotService
	reportService   *ReportService
	tg              *telegram.Telegram
}

// NewStatsService 创建统计服务
func NewStatsService(
	db *gorm.DB,
	conf *config.Config,
	syncService *SyncService,
	snapshotService *SnapshotService,
	reportService *ReportService,
	tg *telegram.Telegram,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		logger:           logger,
		conf:             conf,
		Service:          orz.NewService(db),
		StatsHistoryRepo: repo.NewStatsHistoryRepo(db),
		syncService:      syncService,
		snapshotService:  snapshotService,
		reportService:    reportService,
		tg:               tg,
	}
}

// TotalStats 全量同步所有账户并计算组级与总汇总，
// 落盘缓存检查点、持久化汇总快照并推送通知。
func (s *StatsService) TotalStats(ctx context.Context) (*TotalReport, error) {
	report := &TotalReport{GeneratedAt: time.Now()}
	cache := s.syncService.Cache()

	// 同步阶段：全账户增量同步并落盘一次检查点，之后只读缓存聚合
	s.syncService.SyncAll(ctx, s.conf.Groups)

	for _, g := range s.conf.Groups {
		gt := GroupTotals{ID: g.ID, Name: g.Name}

		for _, a := range g.Accounts {
			if a.Key == "" {
				continue
			}
			acc := Account{Key: g.CacheKey(a), APIKey: a.Key, Name: a.Name, GroupID: g.ID}

			st := cache.State(acc.Key)
			value := s.snapshotService.AccountValue(ctx, acc)

			at := AccountTotals{
				Key:         acc.Key,
				Name:        acc.Name,
				Value:       value,
				NetDeposits: st.NetDeposits,
				Pnl:         value - st.NetDeposits,
				Volume:      st.TotalVolume,
			}
			gt.Accounts = append(gt.Accounts, at)
			gt.Value += at.Value
			gt.NetDeposits += at.NetDeposits
			gt.Volume += at.Volume
		}

		gt.Pnl = gt.Value - gt.NetDeposits
		gt.Efficiency = Efficiency(gt.Pnl, gt.Volume)
		s.logger.Info("group totals",
			zap.String("group", g.Name),
			zap.Float64("value", gt.Value),
			zap.Float64("pnl", gt.Pnl))

		report.Groups = append(report.Groups, gt)
		report.Value += gt.Value
		report.NetDeposits += gt.NetDeposits
		report.Volume += gt.Volume
	}

	report.Pnl = report.Value - report.NetDeposits
	report.Efficiency = Efficiency(report.Pnl, report.Volume)

	if err := s.saveHistory(ctx, report); err != nil {
		s.logger.Error("failed to save stats history", zap.Error(err))
	}

	s.notifyTotals(report)

	s.logger.Info("total stats completed",
		zap.Float64("value", report.Value),
		zap.Float64("pnl", report.Pnl),
		zap.Float64("volume", report.Volume),
		zap.Float64("efficiency", report.Efficiency))
	return report, nil
}

// WeeklyStats 刷新成交与积分后计算最近已结算周的统计，并导出xlsx报表
func (s *StatsService) WeeklyStats(ctx context.Context) (*WeeklyReport, error) {
	cache := s.syncService.Cache()
	accounts := Flatten(s.conf.Groups)

	type accState struct {
		snapshot AccountSnapshot
	}
	states := make(map[string]accState, len(accounts))

	report := &WeeklyReport{}
	for _, acc := range accounts {
		s.logger.Info("checking account", zap.String("account", acc.Key))
		s.syncService.SyncFills(ctx, acc)

		// 地址在这里取一次，展示与导出共用同一结果
		snapshot := s.snapshotService.Snapshot(ctx, acc)
		states[acc.Key] = accState{snapshot: snapshot}
		s.logger.Info("account snapshot",
			zap.String("account", acc.Key),
			zap.String("address", nostd.ShortAddress(snapshot.Address)),
			zap.Float64("value", snapshot.Value))

		report.PointsPool += snapshot.Points.Earned
		report.LatestWeekPoints += snapshot.Points.WeekPoints
		if snapshot.Points.WeekNum > report.LatestWeek {
			report.LatestWeek = snapshot.Points.WeekNum
		}
	}

	if err := cache.Save(); err != nil {
		s.logger.Error("failed to save stats cache", zap.Error(err))
	}

	start, end := SettlementWeek(time.Now())
	report.WindowStart = start
	report.WindowEnd = end
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	for _, acc := range accounts {
		state := states[acc.Key]
		sum := Summarize(cache.Fills(acc.Key), startMs, endMs)

		report.Rows = append(report.Rows, WeeklyRow{
			Account:         acc.Key,
			Address:         state.snapshot.Address,
			Balance:         state.snapshot.Value,
			PointsTotal:     state.snapshot.Points.Earned,
			PointsEarned:    state.snapshot.Points.Earned,
			PointsAvailable: state.snapshot.Points.Available,
			WeekNum:         state.snapshot.Points.WeekNum,
			WeekPoints:      state.snapshot.Points.WeekPoints,
			Volume:          sum.Volume,
			Pnl:             sum.Pnl,
			Trades:          sum.Trades,
		})
		report.Summary.Trades += sum.Trades
		report.Summary.Volume += sum.Volume
		report.Summary.Pnl += sum.Pnl
	}
	report.Summary.Efficiency = Efficiency(report.Summary.Pnl, report.Summary.Volume)

	if path, err := s.reportService.WriteWeekly(report.Rows); err != nil {
		s.logger.Error("failed to export weekly report", zap.Error(err))
	} else {
		report.ReportPath = path
		s.logger.Info("weekly report exported", zap.String("path", path))
	}

	return report, nil
}

// RollingStats 刷新成交后计算自最近UTC周五00:00以来的表现
func (s *StatsService) RollingStats(ctx context.Context) (*RollingReport, error) {
	cache := s.syncService.Cache()
	now := time.Now()
	start := RollingWeekStart(now)
	startMs, endMs := start.UnixMilli(), now.UnixMilli()+1

	report := &RollingReport{Start: start}

	for _, g := range s.conf.Groups {
		gw := GroupWindow{ID: g.ID, Name: g.Name}

		for _, a := range g.Accounts {
			if a.Key == "" {
				continue
			}
			acc := Account{Key: g.CacheKey(a), APIKey: a.Key, Name: a.Name, GroupID: g.ID}
			s.syncService.SyncFills(ctx, acc)

			sum := Summarize(cache.Fills(acc.Key), startMs, endMs)
			gw.Accounts = append(gw.Accounts, AccountWindow{
				Key:     acc.Key,
				Name:    acc.Name,
				Summary: sum,
			})
			gw.Summary.Trades += sum.Trades
			gw.Summary.Volume += sum.Volume
			gw.Summary.Pnl += sum.Pnl
		}

		gw.Summary.Efficiency = Efficiency(gw.Summary.Pnl, gw.Summary.Volume)
		report.Groups = append(report.Groups, gw)
		report.Summary.Trades += gw.Summary.Trades
		report.Summary.Volume += gw.Summary.Volume
		report.Summary.Pnl += gw.Summary.Pnl
	}
	report.Summary.Efficiency = Efficiency(report.Summary.Pnl, report.Summary.Volume)

	if err := cache.Save(); err != nil {
		s.logger.Error("failed to save stats cache", zap.Error(err))
	}

	return report, nil
}

// GetHistories 获取所有汇总快照（资金曲线）
func (s *StatsService) GetHistories(ctx context.Context) ([]models.StatsHistory, error) {
	return s.StatsHistoryRepo.FindAllOrderByRecordedAt(ctx)
}

// GetLatestHistory 获取最近一条汇总快照，尚无记录时ok为false
func (s *StatsService) GetLatestHistory(ctx context.Context) (models.StatsHistory, bool, error) {
	m, err := s.StatsHistoryRepo.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StatsHistory{}, false, nil
		}
		return models.StatsHistory{}, false, err
	}
	return m, true, nil
}

func (s *StatsService) saveHistory(ctx context.Context, report *TotalReport) error {
	accounts := 0
	for _, g := range report.Groups {
		accounts += len(g.Accounts)
	}
	history := &models.StatsHistory{
		ID:          ulid.Make().String(),
		TotalValue:  report.Value,
		NetDeposits: report.NetDeposits,
		TotalPnl:    report.Pnl,
		TotalVolume: report.Volume,
		Efficiency:  report.Efficiency,
		Accounts:    accounts,
		RecordedAt:  report.GeneratedAt,
	}
	return s.StatsHistoryRepo.Create(ctx, history)
}

func (s *StatsService) notifyTotals(report *TotalReport) {
	if s.tg == nil || !s.conf.Telegram.Enabled {
		return
	}

	msg := "🚀 [Paradex 实时总汇总]\n\n"
	for _, g := range report.Groups {
		msg += fmt.Sprintf("📦 %s\n├ 余额: $%.0f\n├ 盈亏: $%.2f\n└ 效率: $%.2f/M\n\n",
			g.Name, g.Value, g.Pnl, g.Efficiency)
	}
	msg += "━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 总余额: $%.2f\n💹 总盈亏: $%.2f\n📊 总成交: $%.0f\n⚡ 总效率: $%.2f/M",
		report.Value, report.Pnl, report.Volume, report.Efficiency)

	if err := s.tg.Notify(s.conf.Telegram.ChatID, msg); err != nil {
		s.logger.Error("failed to send telegram summary", zap.Error(err))
		return
	}
	s.logger.Info("telegram summary sent")
}
