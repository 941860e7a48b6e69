package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusGenerated = "generated"
	StatusFailed    = "failed"
)

const (
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
	ErrCodeEmptyCorpus       = "empty_corpus"
	ErrCodeTemplateMissing   = "template_missing"
	ErrCodeReplayExhausted   = "replay_exhausted"
	ErrCodeGenerateFailed    = "generate_failed"
	ErrCodeIOFailed          = "io_failed"
)

// RunReport 是对外稳定输出（stdout JSON / report.json）的结构。
type RunReport struct {
	Path   string `json:"path"`
	Fuzzer string `json:"fuzzer"`
	Out    string `json:"out"`
	Replay bool   `json:"replay"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Tests   []TestResult  `json:"tests"`
}

type ReportSummary struct {
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
	PoolSize  int `json:"pool_size"`
}

// TestResult 是一次 generate+dump 的结果条目。
type TestResult struct {
	Index       int    `json:"index"`
	LandingPage string `json:"landing_page"`

	TemplateFile string `json:"template_file"`
	TemplateSHA1 string `json:"template_sha1"`

	Files    []string `json:"files"`
	Optional []string `json:"optional"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) tests 按 Index 稳定排序
// 3) summary 的 Generated/Failed 由 tests 计算（PoolSize 由上层填写并保留）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Tests, func(i, j int) bool {
		return r.Tests[i].Index < r.Tests[j].Index
	})

	r.Summary.Generated = 0
	r.Summary.Failed = 0
	for _, tr := range r.Tests {
		switch tr.Status {
		case StatusGenerated:
			r.Summary.Generated++
		case StatusFailed:
			r.Summary.Failed++
		}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
