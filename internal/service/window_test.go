package service

import (
	"testing"
	"time"

	"github.com/haitaoz/parastats/internal/store"
)

func TestSummarize_HalfOpenWindow(t *testing.T) {
	fills := []store.Fill{
		{Ts: 999, Vol: 1, Pnl: 1},   // 窗口前
		{Ts: 1000, Vol: 10, Pnl: 2}, // 起点包含
		{Ts: 1500, Vol: 20, Pnl: -1},
		{Ts: 2000, Vol: 99, Pnl: 99}, // 终点不包含
	}

	sum := Summarize(fills, 1000, 2000)
	if sum.Trades != 2 {
		t.Fatalf("trades = %d, want 2", sum.Trades)
	}
	if sum.Volume != 30 {
		t.Fatalf("volume = %v, want 30", sum.Volume)
	}
	if sum.Pnl != 1 {
		t.Fatalf("pnl = %v, want 1", sum.Pnl)
	}
}

func TestEfficiency(t *testing.T) {
	if got := Efficiency(500, 2_000_000); got != 250 {
		t.Fatalf("efficiency = %v, want 250", got)
	}
	if got := Efficiency(500, 0); got != 0 {
		t.Fatalf("efficiency with zero volume = %v, want 0", got)
	}
	if got := Efficiency(-100, 1_000_000); got != -100 {
		t.Fatalf("negative pnl efficiency = %v, want -100", got)
	}
}

func TestSettlementWeek_MidWeek(t *testing.T) {
	// 2026-08-26是周三，最近完整结算周为 08-14 08:00 -> 08-21 08:00
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	start, end := SettlementWeek(now)

	wantStart := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("window = [%v, %v), want [%v, %v)", start, end, wantStart, wantEnd)
	}
}

func TestSettlementWeek_FridayBeforeEight(t *testing.T) {
	// 周五结算时刻之前，本周五尚不能作为窗口终点
	now := time.Date(2026, 8, 21, 7, 59, 0, 0, time.UTC)
	start, end := SettlementWeek(now)

	wantStart := time.Date(2026, 8, 7, 8, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("window = [%v, %v), want [%v, %v)", start, end, wantStart, wantEnd)
	}
}

func TestSettlementWeek_FridayAtEight(t *testing.T) {
	now := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)
	start, end := SettlementWeek(now)

	wantStart := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("window = [%v, %v), want [%v, %v)", start, end, wantStart, wantEnd)
	}
}

func TestRollingWeekStart(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{
			// 周三，回退到上一个周五
			now:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		},
		{
			// 周五当天，起点就是当天零点
			now:  time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		},
		{
			// 非UTC时间先归一化：东八区周五早上仍是UTC周四
			now:  time.Date(2026, 8, 21, 6, 0, 0, 0, time.FixedZone("CST", 8*3600)),
			want: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		if got := RollingWeekStart(tt.now); !got.Equal(tt.want) {
			t.Fatalf("RollingWeekStart(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}
