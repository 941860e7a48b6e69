package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/John-Robertt/corpman/internal/app/run"
	"github.com/John-Robertt/corpman/internal/config"
	"github.com/John-Robertt/corpman/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - 事件在 run 的 goroutine 上同步到达，这里不需要加锁
type progressUI struct {
	w io.Writer

	startedAt time.Time
	ok        int
	fail      int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "fresh"
	if eff.Replay {
		mode = "replay"
	}

	fmt.Fprintf(p.w, "[%s] corpman run (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  out: %s\n", eff.Out)
	fmt.Fprintf(p.w, "  fuzzer: %s\n", eff.Fuzzer)
	fmt.Fprintf(p.w, "  count: %d\n", eff.Count)
	if len(eff.Extensions) > 0 {
		fmt.Fprintf(p.w, "  ext: %s\n", strings.Join(eff.Extensions, ","))
	}
	if !eff.Replay {
		fmt.Fprintf(p.w, "  rotate: %d\n", eff.Rotate)
	}
	fmt.Fprintf(p.w, "  aggression: %v\n", eff.Aggression)
	fmt.Fprintf(p.w, "  transition: %s\n", onOff(eff.Transition))
	if eff.Watch {
		fmt.Fprintln(p.w, "  watch: on")
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnTestDone(idx, total int, res domain.TestResult, dur time.Duration) {
	switch res.Status {
	case domain.StatusFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] FAIL %s: %s (%s)\n",
			idx+1, total, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] OK %s template=%s files=%d (%s)\n",
			idx+1, total, res.LandingPage, res.TemplateFile, len(res.Files), formatShortDuration(dur),
		)
	}
}

func (p *progressUI) OnDone(summary domain.ReportSummary, elapsed time.Duration) {
	fmt.Fprintf(p.w, "\n结束：generated=%d failed=%d pool=%d (%s)\n",
		summary.Generated, summary.Failed, summary.PoolSize, formatShortDuration(elapsed),
	)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func formatShortDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
