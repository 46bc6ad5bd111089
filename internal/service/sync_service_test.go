package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/haitaoz/parastats/internal/config"
	"github.com/haitaoz/parastats/internal/store"
	"github.com/haitaoz/parastats/pkg/paradex"
	"go.uber.org/zap"
)

func newSyncService(t *testing.T, handler http.Handler) (*SyncService, *store.StatsCache, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := paradex.NewClient(server.URL, "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cache := store.Load(filepath.Join(t.TempDir(), "stats_cache.json"), zap.NewNop())
	return NewSyncService(client, cache, zap.NewNop()), cache, server
}

func TestSyncTransfers_FoldsOntoCachedValue(t *testing.T) {
	var gotStartAt string
	mux := http.NewServeMux()
	mux.HandleFunc("/transfers", func(w http.ResponseWriter, r *http.Request) {
		gotStartAt = r.URL.Query().Get("start_at")
		w.Write([]byte(`{"results": [
			{"amount": "200", "direction": "IN", "status": "COMPLETED", "created_at": 1500},
			{"amount": "150", "direction": "OUT", "status": "COMPLETED", "created_at": 2000},
			{"amount": "999", "direction": "IN", "status": "PENDING", "created_at": 2500}
		], "next": null}`))
	})

	svc, cache, _ := newSyncService(t, mux)
	cache.ApplyTransfers("a", 100, 1000)

	net := svc.SyncTransfers(context.Background(), Account{Key: "a", APIKey: "k"})

	if net != 150 {
		t.Fatalf("net deposits = %v, want 150", net)
	}
	// 下界 = 水位线+1
	if gotStartAt != "1001" {
		t.Fatalf("start_at = %q, want 1001", gotStartAt)
	}
	st := cache.State("a")
	if st.NetDeposits != 150 {
		t.Fatalf("cached net = %v, want 150", st.NetDeposits)
	}
	// PENDING转账不推进水位线
	if st.LastTransferTs != 2000 {
		t.Fatalf("watermark = %d, want 2000", st.LastTransferTs)
	}
}

func TestSyncTransfers_FailureKeepsCachedState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transfers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	svc, cache, _ := newSyncService(t, mux)
	cache.ApplyTransfers("a", 100, 2000)
	before := cache.State("a")

	net := svc.SyncTransfers(context.Background(), Account{Key: "a", APIKey: "k"})

	if net != 100 {
		t.Fatalf("net = %v, want cached 100", net)
	}
	if after := cache.State("a"); !reflect.DeepEqual(before, after) {
		t.Fatalf("failed sync mutated cache: %+v -> %+v", before, after)
	}
}

func TestSyncFills_MergesAndSorts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fills", func(w http.ResponseWriter, r *http.Request) {
		// 页内乱序，两笔成交
		w.Write([]byte(`{"results": [
			{"price": "3", "size": "5", "fee": "1", "realized_pnl": "4", "created_at": 5000},
			{"price": "1", "size": "5", "fee": "0", "realized_pnl": "2", "created_at": 4000}
		], "next": null}`))
	})

	svc, cache, _ := newSyncService(t, mux)
	cache.AppendFills("a", []store.Fill{
		{Ts: 1000, Vol: 10, Pnl: 1},
		{Ts: 2000, Vol: 20, Pnl: 2},
		{Ts: 3000, Vol: 30, Pnl: 3},
	}, 3000)

	total := svc.SyncFills(context.Background(), Account{Key: "a", APIKey: "k"})

	if total != 80 {
		t.Fatalf("total volume = %v, want 80", total)
	}
	st := cache.State("a")
	want := []store.Fill{
		{Ts: 1000, Vol: 10, Pnl: 1},
		{Ts: 2000, Vol: 20, Pnl: 2},
		{Ts: 3000, Vol: 30, Pnl: 3},
		{Ts: 4000, Vol: 5, Pnl: 2},
		{Ts: 5000, Vol: 15, Pnl: 3},
	}
	if !reflect.DeepEqual(st.Fills, want) {
		t.Fatalf("fills = %+v, want %+v", st.Fills, want)
	}
	if st.LastFillTs != 5000 {
		t.Fatalf("watermark = %d, want 5000", st.LastFillTs)
	}
}

func TestSyncFills_SecondRunIsIdempotent(t *testing.T) {
	startAts := []string{}
	mux := http.NewServeMux()
	mux.HandleFunc("/fills", func(w http.ResponseWriter, r *http.Request) {
		startAts = append(startAts, r.URL.Query().Get("start_at"))
		if len(startAts) == 1 {
			w.Write([]byte(`{"results": [
				{"price": "10", "size": "1", "fee": "0", "realized_pnl": "0", "created_at": 1000}
			], "next": null}`))
			return
		}
		// 水位线之后没有新成交
		w.Write([]byte(`{"results": [], "next": null}`))
	})

	svc, cache, _ := newSyncService(t, mux)
	acc := Account{Key: "a", APIKey: "k"}

	svc.SyncFills(context.Background(), acc)
	before := cache.State("a")
	total := svc.SyncFills(context.Background(), acc)
	after := cache.State("a")

	if total != 10 {
		t.Fatalf("total = %v, want 10", total)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("idempotent re-sync mutated state: %+v -> %+v", before, after)
	}
	if want := []string{"", "1001"}; !reflect.DeepEqual(startAts, want) {
		t.Fatalf("start_at sequence = %v, want %v", startAts, want)
	}
}

func TestSyncFills_PartialPaginationDiscardsAllPages(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/fills", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"results": [
				{"price": "10", "size": "1", "fee": "0", "realized_pnl": "0", "created_at": 1000}
			], "next": "c1"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc, cache, _ := newSyncService(t, mux)
	cache.AppendFills("a", []store.Fill{{Ts: 500, Vol: 7, Pnl: 1}}, 500)
	before := cache.State("a")

	total := svc.SyncFills(context.Background(), Account{Key: "a", APIKey: "k"})

	if calls != 2 {
		t.Fatalf("server calls = %d, want 2", calls)
	}
	if total != 7 {
		t.Fatalf("total = %v, want cached 7", total)
	}
	// 第一页已产出，但整个序列失败时一条都不入库
	if after := cache.State("a"); !reflect.DeepEqual(before, after) {
		t.Fatalf("partial failure mutated cache: %+v -> %+v", before, after)
	}
}

func TestSyncAll_SavesCheckpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transfers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"amount": "100", "direction": "IN", "status": "COMPLETED", "created_at": 1000}
		], "next": null}`))
	})
	mux.HandleFunc("/fills", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [], "next": null}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := paradex.NewClient(server.URL, "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "stats_cache.json")
	svc := NewSyncService(client, store.Load(path, zap.NewNop()), zap.NewNop())

	groups := []config.GroupConf{{
		ID:   1,
		Name: "G1",
		Accounts: []config.AccountConf{
			{Name: "Acc 1.1", Key: "k1"},
			{Name: "Acc 1.2", Key: ""}, // 未配置凭证，跳过
		},
	}}
	svc.SyncAll(context.Background(), groups)

	reloaded := store.Load(path, zap.NewNop())
	if st := reloaded.State("g1_Acc 1.1"); st.NetDeposits != 100 {
		t.Fatalf("checkpoint not persisted, state = %+v", st)
	}
	if keys := reloaded.Keys(); len(keys) != 1 {
		t.Fatalf("keys = %v, want only the credentialed account", keys)
	}
}

func TestFlatten(t *testing.T) {
	groups := []config.GroupConf{
		{ID: 0, Name: "G0", Accounts: []config.AccountConf{{Name: "Acc 0.1", Key: "k0"}}},
		{ID: 1, Name: "G1", Accounts: []config.AccountConf{
			{Name: "Acc 1.1", Key: ""},
			{Name: "Acc 1.2", Key: "k2"},
		}},
	}

	accounts := Flatten(groups)
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}
	if accounts[0].Key != "g0_Acc 0.1" || accounts[1].Key != "g1_Acc 1.2" {
		t.Fatalf("cache keys = %q, %q", accounts[0].Key, accounts[1].Key)
	}
	if accounts[1].GroupID != 1 || accounts[1].Name != "Acc 1.2" {
		t.Fatalf("account meta = %+v", accounts[1])
	}
}
