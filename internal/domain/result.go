package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeTransportFailed = "transport_failed"
	ErrCodeRequestFailed   = "request_failed"
	ErrCodeParseFailed     = "parse_failed"
	ErrCodeFallbackFailed  = "fallback_failed"
	ErrCodeConfigNotFound  = "config_not_found"
	ErrCodeConfigInvalid   = "config_invalid"
)

// Result 是 CLI 对外稳定输出（stdout JSON）的结构。
//
// 约束：成功时 Work 非空且 ErrorCode/ErrorMsg 为空；失败时 Work 为空（不输出部分数据）。
type Result struct {
	ID     WorkID `json:"id"`
	RJCode string `json:"rj_code"`
	Locale string `json:"locale"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Work *WorkRecord `json:"work"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 由 Work/ErrorCode 推出 Status，并保证失败时不携带部分数据
func (r *Result) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.ID > 0 && r.RJCode == "" {
		r.RJCode = r.ID.RJCode()
	}

	if r.ErrorCode != "" || r.ErrorMsg != "" {
		r.Status = StatusFailed
		r.Work = nil
		return
	}
	r.Status = StatusOK
}

func (r Result) MarshalJSON() ([]byte, error) {
	type Alias Result
	return json.Marshal(Alias(r))
}
