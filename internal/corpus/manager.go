package corpus

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/John-Robertt/corpman/internal/fuzzer"
	"github.com/John-Robertt/corpman/internal/scan"
	"github.com/John-Robertt/corpman/internal/seed"
	"github.com/John-Robertt/corpman/internal/testcase"
)

const (
	landingPattern    = "test_page_%04d.html"
	transitionPattern = "transition_%04d.html"
)

// DefaultAggression 是未显式配置时传给 fuzzer 的变异强度。
const DefaultAggression = 0.001

// ErrReplayExhausted 表示回放模式的模板池已全部消费完。
// 这是回放序列的正常终点信号，不是故障。
var ErrReplayExhausted = errors.New("corpus: replay exhausted")

// 通过可替换的函数指针，让测试能构造确定性的选择序列。
var randIntN = rand.IntN

// Options 是 Manager 的行为开关（最终值；默认值与合并在 config 层完成）。
type Options struct {
	Extensions   []string // 接受的模板后缀（小写、不带点）；空 = 不过滤
	Aggression   float64  // 传给 fuzzer 的变异强度；<=0 时取 DefaultAggression
	Replay       bool     // 回放模式：按既定顺序消费模板，不随机、不重复
	Rotate       int      // 每多少次 generate 强制重选模板；0 = 关闭轮换
	NoTransition bool     // 关闭过渡页：redirect 直接指向下一个 landing page
}

// Manager 拥有模板池、活动模板与生成计数器，串联“选模板 → 建用例 → 调 fuzzer”。
//
// 约束：
// - 单线程使用：内部不加锁；并行生成请为每个 Manager 实例单独隔离执行流
// - 模板池在构造时建立；重扫永远整体重建，不做合并
// - 回放模式下池按降序排好，消费端固定从尾部弹出（见 popTail）
// - 任何失败都原样上抛且不推进计数器；重试/跳过策略属于外层 harness
type Manager struct {
	fz         fuzzer.Fuzzer
	corpusPath string
	opts       Options

	pool      []string
	active    *seed.Template
	generated int
	forceScan bool
}

// New 构造 Manager：调用 fuzzer 的可选初始化能力，并完成首次扫描。
// 扫描结果为空是构造级失败（模板池不允许为空）。
func New(corpusPath string, fz fuzzer.Fuzzer, opts Options) (*Manager, error) {
	if fz == nil {
		return nil, fmt.Errorf("fuzzer 不能为空")
	}
	if strings.TrimSpace(corpusPath) == "" {
		return nil, fmt.Errorf("corpus 路径不能为空")
	}
	if opts.Aggression <= 0 {
		opts.Aggression = DefaultAggression
	}
	// 回放有固定的消费顺序，轮换重扫会把已消费的模板重新灌回池里。
	if opts.Replay {
		opts.Rotate = 0
	}

	if init, ok := fz.(fuzzer.Initializer); ok {
		if err := init.InitFuzzer(opts.Aggression); err != nil {
			return nil, err
		}
	}

	m := &Manager{fz: fz, corpusPath: corpusPath, opts: opts}
	paths, err := scan.Templates(corpusPath, opts.Extensions, opts.Replay)
	if err != nil {
		return nil, err
	}
	m.pool = paths
	return m, nil
}

// Generate 产出一个完整的测试用例。
//
// 每次调用依次执行：轮换边界重扫 → 选定/保持活动模板 → 构建用例外壳
// （landing page 名 + 可选过渡页）→ 调 fuzzer 填充 → 计数器 +1。
// 任何一步失败都直接返回，计数器保持不变。
func (m *Manager) Generate(mimeType string) (*testcase.TestCase, error) {
	if m.forceScan || shouldRescan(m.opts.Rotate, m.generated) {
		m.forceScan = false
		paths, err := scan.Templates(m.corpusPath, m.opts.Extensions, m.opts.Replay)
		if err != nil {
			return nil, err
		}
		m.pool = paths
		if clearActive(len(m.pool)) {
			m.active = nil
		}
	}

	switch {
	case m.opts.Replay:
		// 回放没有“保持当前”的语义：每次调用都前进到下一个脚本化模板。
		path, rest, ok := popTail(m.pool)
		if !ok {
			return nil, ErrReplayExhausted
		}
		m.pool = rest
		t, err := seed.New(path)
		if err != nil {
			return nil, err
		}
		m.active = t
	case m.active == nil:
		t, err := seed.New(m.pool[randIntN(len(m.pool))])
		if err != nil {
			return nil, err
		}
		m.active = t
	}

	test := testcase.New(m.LandingPage(), m.fz.Name(), m.active)

	redirect := fmt.Sprintf(landingPattern, m.generated+1)
	if !m.opts.NoTransition {
		redirect = fmt.Sprintf(transitionPattern, m.generated)
		rd := testcase.NewFile(redirect, transitionScript(m.generated+1))
		if err := test.AddFile(rd); err != nil {
			return nil, err
		}
	}

	if err := m.fz.Populate(test, redirect, mimeType); err != nil {
		return nil, err
	}

	m.generated++
	return test, nil
}

// FinishTest 在用例跑完后回调 fuzzer 的可选 UpdateTest 能力；未实现时为 no-op。
func (m *Manager) FinishTest(cloneLog func(dir string) error, test *testcase.TestCase) (map[string]string, error) {
	if u, ok := m.fz.(fuzzer.Updater); ok {
		return u.UpdateTest(cloneLog, test)
	}
	return nil, nil
}

// ForceRescan 让下一次 Generate 在轮换边界之外强制重扫（watch 模式使用）。
// 回放模式忽略该请求：重扫会破坏既定消费顺序。
func (m *Manager) ForceRescan() {
	if m.opts.Replay {
		return
	}
	m.forceScan = true
}

// ActiveFileName 返回当前活动模板的路径；没有活动模板时 ok=false。
func (m *Manager) ActiveFileName() (string, bool) {
	if m.active == nil {
		return "", false
	}
	return m.active.FileName, true
}

// LandingPage 返回下一次 Generate 将使用的 landing page 文件名。
func (m *Manager) LandingPage() string {
	return fmt.Sprintf(landingPattern, m.generated)
}

// Size 返回当前模板池大小。
func (m *Manager) Size() int {
	return len(m.pool)
}

// Generated 返回已成功生成的用例数。
func (m *Manager) Generated() int {
	return m.generated
}

func transitionScript(next int) []byte {
	return []byte(fmt.Sprintf("<script>window.location='"+landingPattern+"';</script>", next))
}
