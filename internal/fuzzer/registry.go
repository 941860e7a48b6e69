package fuzzer

import (
	"fmt"
	"strings"
)

// Registry 是 fuzzer 的只读注册表（按 name 索引）。
// 用 map 做 O(1) 查找；策略数量极小，保持简单即可。
type Registry struct {
	byName map[string]Fuzzer
}

func NewRegistry(fuzzers ...Fuzzer) (Registry, error) {
	byName := make(map[string]Fuzzer, len(fuzzers))
	for _, f := range fuzzers {
		if f == nil {
			return Registry{}, fmt.Errorf("fuzzer 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(f.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("fuzzer.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 fuzzer：%q", name)
		}
		byName[name] = f
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Fuzzer, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	f, ok := r.byName[name]
	return f, ok
}

// Names 返回已注册的策略名（字典序无保证；仅用于提示文案）。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
