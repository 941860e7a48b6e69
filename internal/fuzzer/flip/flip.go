package flip

import (
	"fmt"
	"math/rand/v2"
	"mime"
	"strings"

	"github.com/John-Robertt/corpman/internal/dataurl"
	"github.com/John-Robertt/corpman/internal/testcase"
)

// 通过可替换的函数指针，让测试能构造确定性的翻转序列。
var (
	randFloat64 = rand.Float64
	randIntN    = rand.IntN
)

// Fuzzer 对模板字节做随机位翻转（每字节命中概率 = aggression），
// 输出单页 HTML：变异结果以 data URL 内嵌，再由脚本跳转 redirectPage。
//
// 约束：
// - 不修改模板本身；变异永远发生在副本上
// - 输出只有 landing page 一个文件（全部内容内联）
type Fuzzer struct {
	rate float64
}

func New() *Fuzzer {
	return &Fuzzer{rate: 0.001}
}

func (f *Fuzzer) Name() string { return "flip" }

// InitFuzzer 设置变异强度；非法值直接失败（不做静默钳制）。
func (f *Fuzzer) InitFuzzer(aggression float64) error {
	if aggression <= 0 || aggression > 1 {
		return fmt.Errorf("aggression 必须在 (0,1] 区间，实际是 %v", aggression)
	}
	f.rate = aggression
	return nil
}

func (f *Fuzzer) Populate(test *testcase.TestCase, redirectPage, mimeType string) error {
	if test.Template == nil {
		return fmt.Errorf("flip 需要附加模板")
	}
	data, err := test.Template.Data()
	if err != nil {
		return err
	}

	if mimeType == "" {
		mimeType = guessMIME(test.Template.Extension)
	}
	page := buildPage(dataurl.Encode(f.mutate(data), mimeType), redirectPage)
	return test.AddFile(testcase.NewFile(test.LandingPage, page))
}

// mutate 在副本上翻转随机位：每个字节以 rate 的概率翻转其中一位。
func (f *Fuzzer) mutate(data []byte) []byte {
	out := append([]byte(nil), data...)
	for i := range out {
		if randFloat64() < f.rate {
			out[i] ^= 1 << randIntN(8)
		}
	}
	return out
}

func guessMIME(extension string) string {
	if extension == "" {
		return ""
	}
	t := mime.TypeByExtension("." + strings.ToLower(extension))
	if t == "" {
		return ""
	}
	// data URL 里不带参数（例如 "; charset=utf-8"），保持最短形态。
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

func buildPage(dataURL, redirectPage string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	fmt.Fprintf(&b, "<embed id=\"target\" src=\"%s\">\n", dataURL)
	fmt.Fprintf(&b, "<script>window.setTimeout(function(){window.location='%s';}, 50);</script>\n", redirectPage)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
