package config

import "fmt"

type Config struct {
	Paradex  ParadexConf  `json:"paradex"`
	Telegram TelegramConf `json:"telegram"`
	Cache    CacheConf    `json:"cache"`
	Report   ReportConf   `json:"report"`
	Sync     SyncConf     `json:"sync"`
	Groups   []GroupConf  `json:"groups"`
}

type ParadexConf struct {
	BaseURL  string `json:"base_url"`  // 接口地址，例如: https://api.prod.paradex.trade/v1
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:10808
	Season   string `json:"season"`    // 积分赛季，默认 season2
	PageSize int    `json:"page_size"` // 成交分页大小，默认100
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type CacheConf struct {
	Path string `json:"path"` // 统计缓存文件路径，默认 logs/stats_cache.json
}

type ReportConf struct {
	Dir string `json:"dir"` // 报表输出目录，默认 reports
}

type SyncConf struct {
	Enabled         bool `json:"enabled"`          // 是否启用后台定时同步
	IntervalMinutes int  `json:"interval_minutes"` // 同步周期（分钟），默认60
}

// GroupConf 账户组
type GroupConf struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Accounts []AccountConf `json:"accounts"`
}

// AccountConf 单个被跟踪账户，配置后不可变
type AccountConf struct {
	Name string `json:"name"`
	Key  string `json:"key"` // 不透明的Bearer凭证，为空时该账户所有请求短路为零值
}

// CacheKey 账户在统计缓存中的稳定键
func (g GroupConf) CacheKey(acc AccountConf) string {
	return fmt.Sprintf("g%d_%s", g.ID, acc.Name)
}
