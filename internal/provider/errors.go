package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/dlmeta/internal/domain"
)

// TransportError 表示请求没有拿到任何响应（DNS/连接/TLS/超时等网络层失败）。
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport failed"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
// 错误信息必须同时包含请求 URL 与状态码，方便直接定位。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("Couldn't request work page HTML (%s), received: %d.", strings.TrimSpace(e.URL), e.StatusCode)
}

// ParseError 表示页面结构与预期不符：tags 与 vas 同时为空。
// 常见原因是作品号错误、地区限制版页面或站点模板变化。
type ParseError struct {
	URL string
}

const parseFailedMsg = "Couldn't parse data from DLsite work page."

func (e *ParseError) Error() string { return parseFailedMsg }

// FallbackError 表示回退数据源查询失败；原样转述其错误信息。
type FallbackError struct {
	Source string // 回退数据源名称（例如 "hvdb"）
	Err    error
}

func (e *FallbackError) Error() string {
	if e == nil || e.Err == nil {
		return "fallback failed"
	}
	return e.Err.Error()
}

func (e *FallbackError) Unwrap() error { return e.Err }

// Code 把错误归类为对外的 error_code；无法归类时返回空串。
//
// FallbackError 优先判断：它包裹的下层错误可能本身就是 HTTPStatusError/TransportError，
// 但对调用方而言失败发生在回退阶段。
func Code(err error) string {
	if err == nil {
		return ""
	}
	var (
		fe *FallbackError
		pe *ParseError
		se *HTTPStatusError
		te *TransportError
	)
	switch {
	case errors.As(err, &fe):
		return domain.ErrCodeFallbackFailed
	case errors.As(err, &pe):
		return domain.ErrCodeParseFailed
	case errors.As(err, &se):
		return domain.ErrCodeRequestFailed
	case errors.As(err, &te):
		return domain.ErrCodeTransportFailed
	default:
		return ""
	}
}
