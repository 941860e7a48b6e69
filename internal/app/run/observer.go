package run

import (
	"time"

	"github.com/John-Robertt/corpman/internal/config"
	"github.com/John-Robertt/corpman/internal/domain"
)

// Observer 把“运行进度/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件在 Execute 的调用 goroutine 上同步到达，按顺序、不并发。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnTestDone 在一个用例生成（或失败）后调用。
	OnTestDone(idx, total int, res domain.TestResult, dur time.Duration)
	// OnDone 在整个 run 结束时调用。
	OnDone(summary domain.ReportSummary, elapsed time.Duration)
}
