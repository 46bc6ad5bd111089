package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StatsLoop 后台定时统计调度器：每个周期执行一次完整的总汇总流程
//（同步全部账户、落盘检查点、聚合、推送）。
type StatsLoop struct {
	config       config.SyncConf
	statsService *StatsService
	logger       *zap.Logger

	startTime time.Time
	isRunning bool
	stopChan  chan struct{}
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewStatsLoop 创建统计循环
func NewStatsLoop(conf *config.Config, statsService *StatsService, logger *zap.Logger) *StatsLoop {
	return &StatsLoop{
		config:       conf.Sync,
		statsService: statsService,
		logger:       logger,
	}
}

// Start 启动统计循环，阻塞直到Stop或context取消。
// 停止后可以再次Start，每一轮使用全新的停止通道。
func (t *StatsLoop) Start(ctx context.Context) error {
	if t.isRunning {
		return fmt.Errorf("stats loop is already running")
	}

	interval := t.config.IntervalMinutes
	if interval <= 0 {
		interval = 60
	}

	t.stopChan = make(chan struct{})
	t.isRunning = true
	t.startTime = time.Now()
	t.ctx, t.cancel = context.WithCancel(ctx)

	cronExpr := fmt.Sprintf("*/%d * * * *", interval)
	t.logger.Info("stats loop started",
		zap.Int("interval_minutes", interval),
		zap.String("cron_expression", cronExpr))

	t.cron = cron.New()
	_, err := t.cron.AddFunc(cronExpr, func() {
		if _, err := t.statsService.TotalStats(context.Background()); err != nil {
			t.logger.Error("stats cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		t.isRunning = false
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	t.cron.Start()

	// 立即执行第一次
	go func() {
		if _, err := t.statsService.TotalStats(context.Background()); err != nil {
			t.logger.Error("first stats cycle failed", zap.Error(err))
		}
	}()

	select {
	case <-t.stopChan:
		t.logger.Info("stats loop stopped by user")
		return nil
	case <-ctx.Done():
		// 外部context取消时没有人调用Stop，这里自行清理
		t.cron.Stop()
		t.isRunning = false
		t.logger.Info("stats loop stopped by context")
		return ctx.Err()
	}
}

// Stop 停止统计循环。对已停止的循环调用是空操作。
func (t *StatsLoop) Stop() {
	if !t.isRunning {
		return
	}

	t.logger.Info("stopping stats loop...")

	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done() // 等待进行中的任务完成
	}
	if t.cancel != nil {
		t.cancel()
	}

	t.isRunning = false
	close(t.stopChan)
	t.logger.Info("stats loop stopped")
}

// IsRunning 检查是否正在运行
func (t *StatsLoop) IsRunning() bool {
	return t.isRunning
}

// GetStatus 获取状态信息
func (t *StatsLoop) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"is_running":       t.isRunning,
		"start_time":       t.startTime,
		"elapsed_hours":    time.Since(t.startTime).Hours(),
		"interval_minutes": t.config.IntervalMinutes,
	}
}
