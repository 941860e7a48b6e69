package run

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/corpman/internal/config"
	"github.com/John-Robertt/corpman/internal/corpus"
	"github.com/John-Robertt/corpman/internal/domain"
	"github.com/John-Robertt/corpman/internal/fuzzer"
	"github.com/John-Robertt/corpman/internal/scan"
	"github.com/John-Robertt/corpman/internal/seed"
	"github.com/John-Robertt/corpman/internal/testcase"
)

// Execute 执行一次 run：生成并落盘 eff.Count 个测试用例，返回对外稳定的 RunReport。
func Execute(eff config.EffectiveConfig, reg fuzzer.Registry) domain.RunReport {
	return ExecuteWithObserver(eff, reg, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 输出进度（由上层决定是否启用）。
//
// 错误分级：
//   - 构造级失败（fuzzer 未注册 / 空语料 / watch 建立失败）：整个 run 失败，
//     以一条合成的 failed 条目呈现
//   - 生成级失败：记录为该序号的 failed 条目并终止循环（生成失败没有
//     “跳过重试”的语义，重试属于外层 harness）
//   - 回放耗尽：不是故障，提前收尾并保留已生成的条目
func ExecuteWithObserver(eff config.EffectiveConfig, reg fuzzer.Registry, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		Fuzzer:    eff.Fuzzer,
		Out:       eff.Out,
		Replay:    eff.Replay,
		StartedAt: started,
		Tests:     make([]domain.TestResult, 0, eff.Count),
	}

	fz, ok := reg.Get(eff.Fuzzer)
	if !ok {
		return finish(&rr, obs, started, syntheticFailed(domain.ErrCodeConfigInvalid,
			fmt.Sprintf("未注册的 fuzzer：%q", eff.Fuzzer)))
	}

	mgr, err := corpus.New(eff.Path, fz, corpus.Options{
		Extensions:   eff.Extensions,
		Aggression:   eff.Aggression,
		Replay:       eff.Replay,
		Rotate:       eff.Rotate,
		NoTransition: !eff.Transition,
	})
	if err != nil {
		return finish(&rr, obs, started, syntheticFailed(classify(err), err.Error()))
	}

	var watcher *corpus.Watcher
	if eff.Watch {
		watcher, err = corpus.Watch(eff.Path)
		if err != nil {
			return finish(&rr, obs, started, syntheticFailed(domain.ErrCodeIOFailed,
				fmt.Sprintf("建立 corpus 监听失败：%v", err)))
		}
		defer func() { _ = watcher.Close() }()
	}

	for i := 0; i < eff.Count; i++ {
		if watcher != nil && watcher.DirtyReset() {
			mgr.ForceRescan()
		}

		caseStarted := time.Now()
		test, err := mgr.Generate("")
		if err != nil {
			if errors.Is(err, corpus.ErrReplayExhausted) {
				// 回放序列的正常终点：已生成的条目保持原样。
				break
			}
			tr := domain.TestResult{
				Index:     i,
				Status:    domain.StatusFailed,
				ErrorCode: classify(err),
				ErrorMsg:  err.Error(),
			}
			rr.Tests = append(rr.Tests, tr)
			if obs != nil {
				obs.OnTestDone(i, eff.Count, tr, time.Since(caseStarted))
			}
			break
		}

		tr := resultFor(i, test)
		dir := filepath.Join(eff.Out, fmt.Sprintf("test_%04d", i))
		if err := dump(test, dir, eff.Info); err != nil {
			tr.Status = domain.StatusFailed
			tr.ErrorCode = domain.ErrCodeIOFailed
			tr.ErrorMsg = err.Error()
			rr.Tests = append(rr.Tests, tr)
			if obs != nil {
				obs.OnTestDone(i, eff.Count, tr, time.Since(caseStarted))
			}
			break
		}

		rr.Tests = append(rr.Tests, tr)
		if obs != nil {
			obs.OnTestDone(i, eff.Count, tr, time.Since(caseStarted))
		}
	}

	rr.Summary.PoolSize = mgr.Size()
	return finish(&rr, obs, started, nil)
}

func dump(test *testcase.TestCase, dir string, info bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return test.Dump(dir, info)
}

func resultFor(idx int, test *testcase.TestCase) domain.TestResult {
	tr := domain.TestResult{
		Index:       idx,
		LandingPage: test.LandingPage,
		Status:      domain.StatusGenerated,
		Optional:    append([]string(nil), test.Optional()...),
	}
	for _, f := range test.Files() {
		tr.Files = append(tr.Files, f.Name)
	}
	if test.Template != nil {
		tr.TemplateFile = filepath.Base(test.Template.FileName)
		// hash 在 populate 阶段已经加载过；这里失败说明模板中途被动了手脚。
		if h, err := test.Template.Hash(); err == nil {
			tr.TemplateSHA1 = h
		}
	}
	return tr
}

func classify(err error) string {
	switch {
	case scan.IsEmptyCorpus(err):
		return domain.ErrCodeEmptyCorpus
	case seed.IsNotFound(err):
		return domain.ErrCodeTemplateMissing
	case errors.Is(err, corpus.ErrReplayExhausted):
		return domain.ErrCodeReplayExhausted
	default:
		return domain.ErrCodeGenerateFailed
	}
}

func syntheticFailed(code, msg string) *domain.TestResult {
	return &domain.TestResult{
		Index:     0,
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func finish(rr *domain.RunReport, obs Observer, started time.Time, synthetic *domain.TestResult) domain.RunReport {
	if synthetic != nil {
		rr.Tests = append(rr.Tests, *synthetic)
	}
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	if obs != nil {
		obs.OnDone(rr.Summary, rr.FinishedAt.Sub(started))
	}
	return *rr
}
