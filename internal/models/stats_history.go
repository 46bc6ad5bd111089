package models

import (
	"time"

	"gorm.io/gorm"
)

// StatsHistory 每次完整统计通过后的全账户汇总快照
type StatsHistory struct {
	ID          string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TotalValue  float64        `gorm:"type:decimal(20,8);not null" json:"total_value"` // 总余额
	NetDeposits float64        `gorm:"type:decimal(20,8)" json:"net_deposits"`         // 总净充值
	TotalPnl    float64        `gorm:"type:decimal(20,8)" json:"total_pnl"`            // 总盈亏（余额-净充值）
	TotalVolume float64        `gorm:"type:decimal(20,8)" json:"total_volume"`         // 总成交额
	Efficiency  float64        `gorm:"type:decimal(10,4)" json:"efficiency"`           // 资金效率（每百万成交额盈亏）
	Accounts    int            `gorm:"type:int" json:"accounts"`                       // 参与统计的账户数
	RecordedAt  time.Time      `gorm:"not null;index" json:"recorded_at"`              // 记录时间
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (StatsHistory) TableName() string {
	return "stats_histories"
}
