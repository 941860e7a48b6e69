package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 corpman.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// DefaultFuzzer 是 fuzzer 的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultFuzzer = "flip"
	// DefaultCount 是一次 run 生成的用例数默认值。
	DefaultCount = 10
	// DefaultRotate 是轮换周期默认值（0 = 关闭轮换，需显式配置）。
	DefaultRotate = 10
	// DefaultAggression 是变异强度默认值。
	DefaultAggression = 0.001
	// DefaultOutDirName 是默认输出目录名（相对 cwd）。
	DefaultOutDirName = "corpman-out"
)

// CLIArgs 只包含 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --rotate=0 必须能覆盖 config.rotate=10。
type CLIArgs struct {
	Path string

	Fuzzer    string
	FuzzerSet bool

	Out    string
	OutSet bool

	Count    int
	CountSet bool

	Extensions    []string
	ExtensionsSet bool

	Replay    bool
	ReplaySet bool

	Rotate    int
	RotateSet bool

	Aggression    float64
	AggressionSet bool

	Transition    bool
	TransitionSet bool

	Info    bool
	InfoSet bool

	Watch    bool
	WatchSet bool
}

// FileConfig 对应 corpman.json 的解析结构。
// 布尔/数值字段用指针保留“未设置”的信息（0/false 都是合法配置值）。
type FileConfig struct {
	Path       string   `json:"path"`
	Fuzzer     string   `json:"fuzzer"`
	Out        string   `json:"out"`
	Count      *int     `json:"count"`
	Extensions []string `json:"extensions"`
	Replay     *bool    `json:"replay"`
	Rotate     *int     `json:"rotate"`
	Aggression *float64 `json:"aggression"`
	Transition *bool    `json:"transition"`
	Info       *bool    `json:"info"`
	Watch      *bool    `json:"watch"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string
	Out  string

	Fuzzer     string
	Count      int
	Extensions []string

	Replay     bool
	Rotate     int
	Aggression float64
	Transition bool
	Info       bool
	Watch      bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按固定规则发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/corpman.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/corpman.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：CLI > config > 默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/corpman.json。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, "corpman.json")
		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/corpman.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, "corpman.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(cwdAbs, absPath, cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// fuzzer：CLI > config > 默认
	fz := DefaultFuzzer
	if cli.FuzzerSet {
		fz = cli.Fuzzer
	} else if strings.TrimSpace(fc.Fuzzer) != "" {
		fz = fc.Fuzzer
	}
	fz = strings.ToLower(strings.TrimSpace(fz))
	if fz == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("fuzzer 不能为空")}
	}

	out := ""
	if cli.OutSet {
		out = cli.Out
	} else if strings.TrimSpace(fc.Out) != "" {
		out = fc.Out
	}
	if strings.TrimSpace(out) == "" {
		out = DefaultOutDirName
	}
	outAbs := absCleanFrom(cwdAbs, out)

	// 输出目录不允许落在 corpus 内：轮换重扫会把生成物当模板吞回去。
	if isUnder(outAbs, absPath) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("out 目录 %q 不能位于 corpus 路径 %q 之内", outAbs, absPath)}
	}

	count := DefaultCount
	if cli.CountSet {
		count = cli.Count
	} else if fc.Count != nil {
		count = *fc.Count
	}
	if count < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("count 必须 >= 1，实际是 %d", count)}
	}

	var exts []string
	if cli.ExtensionsSet {
		exts = cli.Extensions
	} else {
		exts = fc.Extensions
	}

	replay := false
	if cli.ReplaySet {
		replay = cli.Replay
	} else if fc.Replay != nil {
		replay = *fc.Replay
	}

	rotate := DefaultRotate
	if cli.RotateSet {
		rotate = cli.Rotate
	} else if fc.Rotate != nil {
		rotate = *fc.Rotate
	}
	if rotate < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("rotate 必须 >= 0，实际是 %d", rotate)}
	}

	aggression := DefaultAggression
	if cli.AggressionSet {
		aggression = cli.Aggression
	} else if fc.Aggression != nil {
		aggression = *fc.Aggression
	}
	if aggression <= 0 || aggression > 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("aggression 必须在 (0,1] 区间，实际是 %v", aggression)}
	}

	transition := true
	if cli.TransitionSet {
		transition = cli.Transition
	} else if fc.Transition != nil {
		transition = *fc.Transition
	}

	info := false
	if cli.InfoSet {
		info = cli.Info
	} else if fc.Info != nil {
		info = *fc.Info
	}

	watch := false
	if cli.WatchSet {
		watch = cli.Watch
	} else if fc.Watch != nil {
		watch = *fc.Watch
	}
	if watch && replay {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("watch 与 replay 互斥：回放顺序不允许被目录变化打断")}
	}

	return EffectiveConfig{
		Path:       absPath,
		Out:        outAbs,
		Fuzzer:     fz,
		Count:      count,
		Extensions: append([]string(nil), exts...),
		Replay:     replay,
		Rotate:     rotate,
		Aggression: aggression,
		Transition: transition,
		Info:       info,
		Watch:      watch,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
