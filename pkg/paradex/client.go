package paradex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	defaultSeason   = "season2"
	defaultPageSize = 100

	directTimeout  = 10 * time.Second
	proxiedTimeout = 15 * time.Second
)

// Client Paradex私有接口客户端
//
// 所有凭证都是不透明的Bearer令牌，按调用传入；客户端本身不持有账户身份。
// 任何请求先走直连，直连发生传输层错误（非HTTP错误）时通过配置的代理
// 精确重试一次；HTTP错误状态不重试，立即上抛。
type Client struct {
	baseURL  string
	season   string
	pageSize int
	logger   *zap.Logger

	direct  *http.Client
	proxied *http.Client // 未配置代理时为nil
}

// NewClient 创建客户端，proxyURL为空时禁用代理回退
func NewClient(baseURL, proxyURL string, logger *zap.Logger) (*Client, error) {
	c := &Client{
		baseURL:  baseURL,
		season:   defaultSeason,
		pageSize: defaultPageSize,
		logger:   logger,
		direct:   &http.Client{Timeout: directTimeout},
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		c.proxied = &http.Client{
			Timeout: proxiedTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(u),
			},
		}
	}

	return c, nil
}

// SetSeason 覆盖默认积分赛季
func (c *Client) SetSeason(season string) {
	if season != "" {
		c.season = season
	}
}

// SetPageSize 覆盖成交分页大小
func (c *Client) SetPageSize(size int) {
	if size > 0 {
		c.pageSize = size
	}
}

// getJSON 执行一次带凭证的GET并解码响应体
func (c *Client) getJSON(ctx context.Context, apiKey, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.attempt(ctx, apiKey, u, c.direct)
	if err != nil {
		if c.proxied == nil {
			return &TransportError{Err: err}
		}
		c.logger.Debug("direct request failed, retrying via proxy",
			zap.String("path", path), zap.Error(err))
		resp, err = c.attempt(ctx, apiKey, u, c.proxied)
		if err != nil {
			return &TransportError{Err: err}
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, apiKey, rawURL string, client *http.Client) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	return client.Do(req)
}

// collectPages 通用游标跟随：反复携带同一查询条件请求，直到服务端不再返回
// 游标或返回空页。每一页都重复携带相同的下界过滤参数，避免断线续传时收到
// 比断点更旧的数据。序列不可重入：中途出错时已产出的页由调用方整体丢弃。
func collectPages[T any](ctx context.Context, c *Client, apiKey, path string, base url.Values) ([]T, error) {
	var (
		all    []T
		cursor string
		pages  int
	)
	for {
		query := url.Values{}
		for k, vs := range base {
			query[k] = vs
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var p page[T]
		if err := c.getJSON(ctx, apiKey, path, query, &p); err != nil {
			if pages > 0 {
				return nil, &PartialSyncError{Pages: pages, Err: err}
			}
			return nil, err
		}
		pages++

		if len(p.Results) == 0 {
			break
		}
		all = append(all, p.Results...)

		if p.Next == nil || *p.Next == "" {
			break
		}
		cursor = *p.Next
	}
	return all, nil
}

// AccountAddress 查询账户链上地址
func (c *Client) AccountAddress(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", nil
	}
	var p page[accountInfoWire]
	if err := c.getJSON(ctx, apiKey, "/account/info", nil, &p); err != nil {
		return "", err
	}
	if len(p.Results) == 0 {
		return "", nil
	}
	return p.Results[0].Account, nil
}

// AccountValue 查询账户当前净值
func (c *Client) AccountValue(ctx context.Context, apiKey string) (float64, error) {
	if apiKey == "" {
		return 0, nil
	}
	var summaries []accountSummaryWire
	if err := c.getJSON(ctx, apiKey, "/account/summary", nil, &summaries); err != nil {
		return 0, err
	}
	if len(summaries) == 0 {
		return 0, nil
	}
	return parseFloat(summaries[0].AccountValue), nil
}

// Positions 查询当前全部持仓
func (c *Client) Positions(ctx context.Context, apiKey string) ([]Position, error) {
	if apiKey == "" {
		return nil, nil
	}
	var p page[positionWire]
	if err := c.getJSON(ctx, apiKey, "/positions", nil, &p); err != nil {
		return nil, err
	}

	result := make([]Position, 0, len(p.Results))
	for _, w := range p.Results {
		result = append(result, Position{
			Market:            w.Market,
			Side:              w.Side,
			Size:              parseFloat(w.Size),
			AverageEntryPrice: parseFloat(w.AverageEntryPrice),
			UnrealizedPnl:     parseFloat(w.UnrealizedPnl),
		})
	}
	return result, nil
}

// Transfers 拉取出入金历史的全部分页
//
// startAt > 0 时仅请求创建时间不早于startAt的记录（服务端过滤），
// 同一下界在每一页上重复生效。
func (c *Client) Transfers(ctx context.Context, apiKey string, startAt int64) ([]Transfer, error) {
	if apiKey == "" {
		return nil, nil
	}

	base := url.Values{}
	if startAt > 0 {
		base.Set("start_at", strconv.FormatInt(startAt, 10))
	}

	wires, err := collectPages[transferWire](ctx, c, apiKey, "/transfers", base)
	if err != nil {
		return nil, err
	}

	result := make([]Transfer, 0, len(wires))
	for _, w := range wires {
		result = append(result, Transfer{
			Amount:    parseFloat(w.Amount),
			Direction: w.Direction,
			Status:    w.Status,
			CreatedAt: w.CreatedAt,
		})
	}
	return result, nil
}

// Fills 拉取成交历史的全部分页，下界语义与Transfers一致
func (c *Client) Fills(ctx context.Context, apiKey string, startAt int64) ([]FillRecord, error) {
	if apiKey == "" {
		return nil, nil
	}

	base := url.Values{}
	base.Set("limit", strconv.Itoa(c.pageSize))
	if startAt > 0 {
		base.Set("start_at", strconv.FormatInt(startAt, 10))
	}

	wires, err := collectPages[fillWire](ctx, c, apiKey, "/fills", base)
	if err != nil {
		return nil, err
	}

	result := make([]FillRecord, 0, len(wires))
	for _, w := range wires {
		result = append(result, FillRecord{
			Price:       parseFloat(w.Price),
			Size:        parseFloat(w.Size),
			Fee:         parseFloat(w.Fee),
			RealizedPnl: parseFloat(w.RealizedPnl),
			CreatedAt:   w.CreatedAt,
		})
	}
	return result, nil
}

// PointsBalance 查询当前赛季积分余额
func (c *Client) PointsBalance(ctx context.Context, apiKey string) (PointsBalance, error) {
	if apiKey == "" {
		return PointsBalance{}, nil
	}

	query := url.Values{}
	query.Set("season", c.season)

	var w pointsBalanceWire
	if err := c.getJSON(ctx, apiKey, "/xp/account-balance", query, &w); err != nil {
		return PointsBalance{}, err
	}
	return PointsBalance{
		EarnedXP:       parseFloat(w.EarnedXP),
		TransferableXP: parseFloat(w.TransferableXP),
	}, nil
}

// PointsHistory 查询全部历史周积分，按周号升序返回
func (c *Client) PointsHistory(ctx context.Context, apiKey string) ([]WeeklyPoints, error) {
	if apiKey == "" {
		return nil, nil
	}

	var p page[weeklyPointsWire]
	path := "/campaigns/private/points/history/" + c.season
	if err := c.getJSON(ctx, apiKey, path, nil, &p); err != nil {
		return nil, err
	}

	result := make([]WeeklyPoints, 0, len(p.Results))
	for _, w := range p.Results {
		result = append(result, WeeklyPoints{
			Week:   w.Week,
			Points: w.Points.Total,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Week < result[j].Week })
	return result, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
