package service

import (
	"fmt"
	"os"
	"time"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/pkg/nostd"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportService 周报xlsx导出。导出的文件由外部（人或表格工具）消费，
// 这里只负责生成。
type ReportService struct {
	logger *zap.Logger
	dir    string
}

// NewReportService 创建报表服务
func NewReportService(conf *config.Config, logger *zap.Logger) *ReportService {
	dir := conf.Report.Dir
	if dir == "" {
		dir = "reports"
	}
	return &ReportService{
		logger: logger,
		dir:    dir,
	}
}

var weeklyHeader = []any{
	"Account", "Address", "Balance ($)",
	"Total XP", "Earned XP", "Available XP",
	"Latest Week", "Week XP Gained",
	"Week Volume ($)", "Week PnL ($)", "Trades Count",
}

// WriteWeekly 写出一份周报，每账户一行，地址写完整值。
// 返回生成的文件路径。
func (s *ReportService) WriteWeekly(rows []WeeklyRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to export")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	filename := fmt.Sprintf("paradex_report_%s.xlsx", time.Now().Format("20060102_150405"))
	path, err := nostd.SafePathJoin(s.dir, filename)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &weeklyHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		values := []any{
			row.Account,
			row.Address,
			row.Balance,
			row.PointsTotal,
			row.PointsEarned,
			row.PointsAvailable,
			fmt.Sprintf("Week %d", row.WeekNum),
			row.WeekPoints,
			row.Volume,
			row.Pnl,
			row.Trades,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}
