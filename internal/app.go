package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/handler"
	"github.com/haitaoz/parastats/internal/models"
	"github.com/haitaoz/parastats/internal/service"
	"github.com/haitaoz/parastats/pkg/nostd"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewParastatsApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewParastatsApp() orz.Application {
	return &ParastatsApp{}
}

var _ orz.Application = (*ParastatsApp)(nil)

type AppComponents struct {
	StatsHandler *handler.StatsHandler

	StatsLoop       *service.StatsLoop
	SyncService     *service.SyncService
	StatsService    *service.StatsService
	PositionService *service.PositionService
}

type ParastatsApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *ParastatsApp) GetComponents() *AppComponents {
	return r.components
}

func (r *ParastatsApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.StatsHistory{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		if r.components.StatsHandler != nil {
			r.components.StatsHandler.RegisterRoutes(api)
		}
	}

	return nil
}

func (r *ParastatsApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Parastats Ledger Sync Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	accounts := service.Flatten(r.conf.Groups)
	logger.Info("accounts configured",
		zap.Int("groups", len(r.conf.Groups)),
		zap.Int("accounts", len(accounts)))

	if !r.conf.Sync.Enabled {
		logger.Info("background sync disabled, waiting for API triggers")
		return nil
	}

	logger.Info("stats loop initialized, starting...")
	go func() {
		if err := components.StatsLoop.Start(context.Background()); err != nil {
			logger.Error("stats loop error", zap.Error(err))
		}
	}()
	return nil
}
