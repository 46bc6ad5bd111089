package paradex

// 转账方向与状态，取值与远端接口一致
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"

	StatusCompleted = "COMPLETED"
)

// Transfer 一笔出入金记录
type Transfer struct {
	Amount    float64
	Direction string
	Status    string
	CreatedAt int64 // 毫秒时间戳
}

// FillRecord 一笔原始成交记录
type FillRecord struct {
	Price       float64
	Size        float64
	Fee         float64
	RealizedPnl float64
	CreatedAt   int64 // 毫秒时间戳
}

// Position 当前持仓
type Position struct {
	Market            string
	Side              string
	Size              float64
	AverageEntryPrice float64
	UnrealizedPnl     float64
}

// PointsBalance 赛季积分余额
type PointsBalance struct {
	EarnedXP       float64
	TransferableXP float64
}

// WeeklyPoints 单个结算周的积分明细
type WeeklyPoints struct {
	Week   int
	Points float64
}

// 服务端金额字段均为十进制字符串，解析在客户端边界完成

type transferWire struct {
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type fillWire struct {
	Price       string `json:"price"`
	Size        string `json:"size"`
	Fee         string `json:"fee"`
	RealizedPnl string `json:"realized_pnl"`
	CreatedAt   int64  `json:"created_at"`
}

type positionWire struct {
	Market            string `json:"market"`
	Side              string `json:"side"`
	Size              string `json:"size"`
	AverageEntryPrice string `json:"average_entry_price"`
	UnrealizedPnl     string `json:"unrealized_pnl"`
}

type pointsBalanceWire struct {
	EarnedXP       string `json:"earned_xp"`
	TransferableXP string `json:"transferrable_xp"`
}

type weeklyPointsWire struct {
	Week   int `json:"week"`
	Points struct {
		Total float64 `json:"total"`
	} `json:"points"`
}

type accountInfoWire struct {
	Account string `json:"account"`
}

type accountSummaryWire struct {
	AccountValue string `json:"account_value"`
}

// page 集合类接口的统一响应包装：{results: [...], next: cursor-or-null}
type page[T any] struct {
	Results []T     `json:"results"`
	Next    *string `json:"next"`
}
