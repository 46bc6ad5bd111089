package service

import (
	"time"

	"github.com/haitaoz/parastats/internal/store"
)

// WindowSummary 半开时间窗 [Start, End) 内的成交汇总
type WindowSummary struct {
	Trades     int     `json:"trades"`
	Volume     float64 `json:"volume"`
	Pnl        float64 `json:"pnl"`
	Efficiency float64 `json:"efficiency"`
}

// Efficiency 资金效率：每一百万成交额的盈亏，成交额为零时取0
func Efficiency(pnl, volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return pnl / (volume / 1_000_000)
}

// Summarize 过滤 startMs <= ts < endMs 的成交并汇总。
// 窗口本身由调用方给定，引擎不关心时区与边界策略。
func Summarize(fills []store.Fill, startMs, endMs int64) WindowSummary {
	var sum WindowSummary
	for _, f := range fills {
		if f.Ts < startMs || f.Ts >= endMs {
			continue
		}
		sum.Trades++
		sum.Volume += f.Vol
		sum.Pnl += f.Pnl
	}
	sum.Efficiency = Efficiency(sum.Pnl, sum.Volume)
	return sum
}

// SettlementWeek 最近一个已完整结束的结算周：
// 本地时间周五08:00到下一个周五08:00的区间。
func SettlementWeek(now time.Time) (start, end time.Time) {
	diff := (int(now.Weekday()) - int(time.Friday) + 7) % 7
	friday := now.AddDate(0, 0, -diff)
	candidate := time.Date(friday.Year(), friday.Month(), friday.Day(), 8, 0, 0, 0, now.Location())

	end = candidate
	if now.Before(candidate) {
		end = candidate.AddDate(0, 0, -7)
	}
	start = end.AddDate(0, 0, -7)
	return start, end
}

// RollingWeekStart 滚动周起点：最近一个UTC周五00:00
func RollingWeekStart(now time.Time) time.Time {
	utc := now.UTC()
	diff := (int(utc.Weekday()) - int(time.Friday) + 7) % 7
	friday := utc.AddDate(0, 0, -diff)
	return time.Date(friday.Year(), friday.Month(), friday.Day(), 0, 0, 0, 0, time.UTC)
}
