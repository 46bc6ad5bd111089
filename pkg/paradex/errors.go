package paradex

import "fmt"

// TransportError 网络不可达：直连与代理回退均失败（或未配置代理）
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("paradex: transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError 服务端拒绝请求（非 2xx 响应）
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("paradex: %s returned status %d", e.Path, e.Code)
}

// DecodeError 响应体无法按预期结构解析
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("paradex: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PartialSyncError 分页序列中途断裂，已产出的页必须整体丢弃
type PartialSyncError struct {
	Pages int
	Err   error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("paradex: pagination broke after %d page(s): %v", e.Pages, e.Err)
}

func (e *PartialSyncError) Unwrap() error { return e.Err }
