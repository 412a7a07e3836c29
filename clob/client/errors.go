package client

import "fmt"

// ErrorKind 错误分类。
// 分类在错误产生的地方一次性定死，调用方按 Kind 分支，
// 永远不要对错误文本做字符串匹配。
type ErrorKind int

const (
	// KindValidation 请求在本地就不成立（参数缺失、载荷畸形）
	KindValidation ErrorKind = iota
	// KindNetwork 传输层故障（超时、连接失败），上游内容未知
	KindNetwork
	// KindNotFound 中继明确表示资源不存在
	KindNotFound
	// KindRelay 中继拒绝了请求，Message 保留中继原话
	KindRelay
)

// String 分类名
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not-found"
	case KindRelay:
		return "relay"
	}
	return "unknown"
}

// APIError 带分类的中继 API 错误。
// Message 原样保留上游报文（中继报错时是诊断的唯一线索）。
type APIError struct {
	Kind    ErrorKind
	Status  int // HTTP 状态码，传输层故障时为 0
	Message string
	Err     error // 底层错误（传输层故障时非空）
}

// Error 实现 error
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("relay %s (http %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("relay %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("relay %s: %s", e.Kind, e.Message)
}

// Unwrap 支持 errors.Is/As 链
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsKind 判断 err 是否为指定分类的 APIError
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == kind
}

func validationErr(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func networkErr(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}
