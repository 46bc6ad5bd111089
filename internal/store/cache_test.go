package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats_cache.json")
	cache := Load(path, zap.NewNop())

	st := cache.State("g0_Acc 0.1")
	if st.NetDeposits != 0 || st.LastTransferTs != 0 || len(st.Fills) != 0 {
		t.Fatalf("expected zero state, got %+v", st)
	}
	if keys := cache.Keys(); len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestLoad_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats_cache.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := Load(path, zap.NewNop())
	if keys := cache.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty cache, got keys %v", keys)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stats_cache.json")
	cache := Load(path, zap.NewNop())

	cache.ApplyTransfers("g1_Acc 1.1", 150, 2000)
	cache.AppendFills("g1_Acc 1.1", []Fill{
		{Ts: 1000, Vol: 10, Pnl: 1},
		{Ts: 1500, Vol: 20, Pnl: -2},
	}, 1500)

	if err := cache.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := Load(path, zap.NewNop())
	got := reloaded.State("g1_Acc 1.1")
	want := SyncState{
		NetDeposits:    150,
		LastTransferTs: 2000,
		Fills:          []Fill{{Ts: 1000, Vol: 10, Pnl: 1}, {Ts: 1500, Vol: 20, Pnl: -2}},
		LastFillTs:     1500,
		TotalVolume:    30,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded state = %+v, want %+v", got, want)
	}
}

func TestAppendFills_RecomputesTotalVolume(t *testing.T) {
	cache := Load(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())

	cache.AppendFills("a", []Fill{{Ts: 1, Vol: 10}, {Ts: 2, Vol: 20}, {Ts: 3, Vol: 30}}, 3)
	total := cache.AppendFills("a", []Fill{{Ts: 4, Vol: 5}, {Ts: 5, Vol: 15}}, 5)

	if total != 80 {
		t.Fatalf("total volume = %v, want 80", total)
	}
	st := cache.State("a")
	if len(st.Fills) != 5 {
		t.Fatalf("fills = %d, want 5", len(st.Fills))
	}
	for i := 1; i < len(st.Fills); i++ {
		if st.Fills[i-1].Ts > st.Fills[i].Ts {
			t.Fatalf("fills not ascending at %d: %+v", i, st.Fills)
		}
	}
	if st.LastFillTs != 5 {
		t.Fatalf("watermark = %d, want 5", st.LastFillTs)
	}
}

func TestAppendFills_EmptyIsNoOp(t *testing.T) {
	cache := Load(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
	cache.AppendFills("a", []Fill{{Ts: 10, Vol: 7}}, 10)

	before := cache.State("a")
	total := cache.AppendFills("a", nil, 99)
	after := cache.State("a")

	if total != 7 {
		t.Fatalf("total = %v, want 7", total)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("empty append mutated state: %+v -> %+v", before, after)
	}
	if after.LastFillTs != 10 {
		t.Fatalf("watermark must not advance on empty append, got %d", after.LastFillTs)
	}
}

func TestWatermarkMonotonic(t *testing.T) {
	cache := Load(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())

	cache.ApplyTransfers("a", 100, 2000)
	cache.ApplyTransfers("a", 100, 1500) // 旧水位线不回退
	if st := cache.State("a"); st.LastTransferTs != 2000 {
		t.Fatalf("watermark regressed: %d", st.LastTransferTs)
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	cache := Load(filepath.Join(t.TempDir(), "c.json"), zap.NewNop())
	cache.AppendFills("a", []Fill{{Ts: 1, Vol: 10}}, 1)

	st := cache.State("a")
	st.Fills[0].Vol = 999
	st.NetDeposits = 999

	if got := cache.State("a"); got.Fills[0].Vol != 10 || got.NetDeposits != 0 {
		t.Fatalf("mutating a returned copy leaked into the cache: %+v", got)
	}
}
