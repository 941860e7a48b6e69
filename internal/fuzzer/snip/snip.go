package snip

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/corpman/internal/testcase"
)

var randIntN = rand.IntN // 测试可替换：构造确定性的切块位置

// Fuzzer 随机删除或复制模板中的一段字节，把结果作为独立资源文件输出；
// landing page 引用该资源并跳转 redirectPage。
//
// 与 flip 的区别：输出是“landing page + 资源文件”的多文件用例，
// 另附一个 optional 的 meta.txt（harness 可不 serve 它）。
type Fuzzer struct{}

func New() Fuzzer { return Fuzzer{} }

func (Fuzzer) Name() string { return "snip" }

func (f Fuzzer) Populate(test *testcase.TestCase, redirectPage, mimeType string) error {
	if test.Template == nil {
		return fmt.Errorf("snip 需要附加模板")
	}
	data, err := test.Template.Data()
	if err != nil {
		return err
	}
	mutated := mutate(data)

	resName := "resource"
	if test.Template.Extension != "" {
		resName += "." + test.Template.Extension
	}
	if err := test.AddFile(testcase.NewFile(resName, mutated)); err != nil {
		return err
	}
	if err := test.AddFile(testcase.NewFile(test.LandingPage, buildPage(resName, redirectPage))); err != nil {
		return err
	}

	meta := fmt.Sprintf("template=%s\nsize=%d\n", filepath.Base(test.Template.FileName), len(mutated))
	return test.AddFile(testcase.NewOptional("meta.txt", []byte(meta)))
}

// mutate 在副本上随机删除或复制一个块（块长最多为输入的 1/4，至少 1 字节）。
// 单字节输入只做复制：删除会产生零字节资源，下游会把它当作坏用例。
func mutate(data []byte) []byte {
	out := append([]byte(nil), data...)
	if len(out) == 0 {
		return out
	}

	max := len(out) / 4
	if max < 1 {
		max = 1
	}
	size := 1 + randIntN(max)
	start := randIntN(len(out) - size + 1)

	if len(out) > 1 && randIntN(2) == 0 {
		return append(out[:start], out[start+size:]...)
	}
	dup := append([]byte(nil), out[:start+size]...)
	dup = append(dup, out[start:]...)
	return dup
}

func buildPage(resName, redirectPage string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	fmt.Fprintf(&b, "<embed id=\"target\" src=\"%s\">\n", resName)
	fmt.Fprintf(&b, "<script>window.setTimeout(function(){window.location='%s';}, 50);</script>\n", redirectPage)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
