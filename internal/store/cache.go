package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Fill 单笔成交的持久化形态：只保留派生后的成交额与净盈亏，
// 原始价格/数量/手续费在入库前即被折算，之后不再需要。
type Fill struct {
	Ts  int64   `json:"ts"`
	Vol float64 `json:"vol"`
	Pnl float64 `json:"pnl"`
}

// SyncState 单个账户的同步状态
//
// 不变量：水位线单调不减；fills按时间戳升序，只追加不截断；
// total_volume始终等于fills成交额之和。
type SyncState struct {
	NetDeposits    float64 `json:"net_deposits"`
	LastTransferTs int64   `json:"last_transfer_ts"`
	Fills          []Fill  `json:"fills"`
	LastFillTs     int64   `json:"last_fill_ts"`
	TotalVolume    float64 `json:"total_volume"`
}

// StatsCache 账户同步状态的持久缓存
//
// 进程启动时整体加载，在调用方指定的检查点整体落盘。
// 进程生命周期内独占所有SyncState；聚合方只拿到副本。
type StatsCache struct {
	mu     sync.RWMutex
	path   string
	states map[string]*SyncState
	logger *zap.Logger
}

// Load 从磁盘加载缓存。文件缺失或无法解析时以空缓存启动，
// 与重新拉取全量历史相比只损失本地加速，不损失正确性。
func Load(path string, logger *zap.Logger) *StatsCache {
	c := &StatsCache{
		path:   path,
		states: make(map[string]*SyncState),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read stats cache, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return c
	}

	if err := json.Unmarshal(data, &c.states); err != nil {
		logger.Warn("failed to parse stats cache, starting empty",
			zap.String("path", path), zap.Error(err))
		c.states = make(map[string]*SyncState)
	}
	return c
}

// State 返回账户状态的副本，缺失的键视为零值状态
func (c *StatsCache) State(key string) SyncState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok := c.states[key]
	if !ok {
		return SyncState{}
	}
	out := *st
	out.Fills = append([]Fill(nil), st.Fills...)
	return out
}

// Fills 返回账户成交序列的副本
func (c *StatsCache) Fills(key string) []Fill {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok := c.states[key]
	if !ok {
		return nil
	}
	return append([]Fill(nil), st.Fills...)
}

// Keys 返回全部已缓存的账户键，升序
func (c *StatsCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.states))
	for k := range c.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyTransfers 原子提交一次出入金同步的结果：净充值与水位线同时替换。
// 与AppendFills操作不相交的字段，同一账户的两类同步可以并发提交。
func (c *StatsCache) ApplyTransfers(key string, netDeposits float64, watermark int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(key)
	st.NetDeposits = netDeposits
	if watermark > st.LastTransferTs {
		st.LastTransferTs = watermark
	}
}

// AppendFills 原子提交一次成交同步的结果：追加新成交（调用方已按时间戳
// 升序排好）、推进水位线，并全量重算total_volume。返回最新的总成交额。
func (c *StatsCache) AppendFills(key string, fills []Fill, watermark int64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state(key)
	if len(fills) > 0 {
		st.Fills = append(st.Fills, fills...)
		if watermark > st.LastFillTs {
			st.LastFillTs = watermark
		}
		var total float64
		for _, f := range st.Fills {
			total += f.Vol
		}
		st.TotalVolume = total
	}
	return st.TotalVolume
}

func (c *StatsCache) state(key string) *SyncState {
	st, ok := c.states[key]
	if !ok {
		st = &SyncState{}
		c.states[key] = st
	}
	return st
}

// Save 将整个映射原子落盘（临时文件+重命名）
func (c *StatsCache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.states, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "stats_cache.*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
