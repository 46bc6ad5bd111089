package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/service"
	"github.com/haitaoz/parastats/internal/xe"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatsHandler 统计系统HTTP处理器，对应前端的各个触发入口
type StatsHandler struct {
	conf            *config.Config
	statsService    *service.StatsService
	positionService *service.PositionService
	statsLoop       *service.StatsLoop
	logger          *zap.Logger

	running    sync.Mutex // 同一时刻只允许一个统计通过在执行
	loopCtx    context.Context
	loopCancel context.CancelFunc
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(
	conf *config.Config,
	statsService *service.StatsService,
	positionService *service.PositionService,
	statsLoop *service.StatsLoop,
	logger *zap.Logger,
) *StatsHandler {
	return &StatsHandler{
		conf:            conf,
		statsService:    statsService,
		positionService: positionService,
		statsLoop:       statsLoop,
		logger:          logger,
	}
}

type runStatsRequest struct {
	Mode string `json:"mode" validate:"required,oneof=total weekly rolling"`
}

// RunStats 执行一次统计操作
// POST /api/stats/run {"mode": "total" | "weekly" | "rolling"}
func (h *StatsHandler) RunStats(c echo.Context) error {
	if len(service.Flatten(h.conf.Groups)) == 0 {
		return xe.ErrNoAccounts
	}

	var req runStatsRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if !h.running.TryLock() {
		return xe.ErrTaskRunning
	}
	defer h.running.Unlock()

	ctx := c.Request().Context()
	switch req.Mode {
	case "total":
		report, err := h.statsService.TotalStats(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, report)
	case "weekly":
		report, err := h.statsService.WeeklyStats(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, report)
	default:
		report, err := h.statsService.RollingStats(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, report)
	}
}

// GetPositions 扫描全账户持仓
// GET /api/positions
func (h *StatsHandler) GetPositions(c echo.Context) error {
	report := h.positionService.Scan(c.Request().Context())
	return c.JSON(http.StatusOK, report)
}

// GetHistory 获取汇总快照历史（资金曲线）
// GET /api/stats/history
func (h *StatsHandler) GetHistory(c echo.Context) error {
	histories, err := h.statsService.GetHistories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(histories),
		"data":  histories,
	})
}

// GetLatest 获取最近一次完整统计的汇总快照
// GET /api/stats/latest
func (h *StatsHandler) GetLatest(c echo.Context) error {
	history, ok, err := h.statsService.GetLatestHistory(c.Request().Context())
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"exists": false,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"exists": true,
		"data":   history,
	})
}

// GetSyncStatus 获取定时同步状态
// GET /api/sync/status
func (h *StatsHandler) GetSyncStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.statsLoop.GetStatus())
}

// StartSync 启动定时同步
// POST /api/sync/start
func (h *StatsHandler) StartSync(c echo.Context) error {
	if h.statsLoop.IsRunning() {
		return xe.ErrLoopRunning
	}

	h.loopCtx, h.loopCancel = context.WithCancel(context.Background())
	go func() {
		if err := h.statsLoop.Start(h.loopCtx); err != nil {
			h.logger.Error("stats loop error", zap.Error(err))
		}
	}()

	h.logger.Info("stats loop started via API")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "stats loop started",
	})
}

// StopSync 停止定时同步
// POST /api/sync/stop
func (h *StatsHandler) StopSync(c echo.Context) error {
	if !h.statsLoop.IsRunning() {
		return xe.ErrLoopNotRunning
	}

	h.statsLoop.Stop()
	if h.loopCancel != nil {
		h.loopCancel()
	}

	h.logger.Info("stats loop stopped via API")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "stats loop stopped",
	})
}

// RegisterRoutes 注册路由
func (h *StatsHandler) RegisterRoutes(g *echo.Group) {
	stats := g.Group("/stats")
	stats.POST("/run", h.RunStats)
	stats.GET("/history", h.GetHistory)
	stats.GET("/latest", h.GetLatest)

	g.GET("/positions", h.GetPositions)

	syncGroup := g.Group("/sync")
	syncGroup.GET("/status", h.GetSyncStatus)
	syncGroup.POST("/start", h.StartSync)
	syncGroup.POST("/stop", h.StopSync)
}
