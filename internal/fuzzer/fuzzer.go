package fuzzer

import (
	"github.com/John-Robertt/corpman/internal/testcase"
)

// Fuzzer 把“具体变异算法”限制在各自实现包内部；核心流程只依赖统一接口。
//
// 约束：
//   - Populate 必须向 test 至少加入一个输出文件（通常包含 landing page 本身）
//   - Populate 的错误原样向上传播：核心层不包装、不重试、不跳过
//   - redirectPage 是生成页应当跳转到的下一个文件名（过渡页或下一个 landing page），
//     实现必须把它编入生成的入口文件，用例之间靠它串联
type Fuzzer interface {
	// Name 是该变异策略的标识 key（小写），写入 test_info.txt 与 report。
	Name() string
	// Populate 基于 test.Template 的内容填充输出文件。
	// mimeType 是可选提示；为空时由实现自行决定。
	Populate(test *testcase.TestCase, redirectPage, mimeType string) error
}

// Initializer 是可选能力：在 Manager 构造时接收 aggression 参数做一次初始化。
type Initializer interface {
	InitFuzzer(aggression float64) error
}

// Updater 是可选能力：测试用例跑完后由 harness 回调，让策略对结果做出反应
// （例如保留“有趣”的模板）。cloneLog 负责把目标进程日志克隆到指定目录；
// 返回的 meta 会附加到用例结果上（可为 nil）。
type Updater interface {
	UpdateTest(cloneLog func(dir string) error, test *testcase.TestCase) (map[string]string, error)
}
