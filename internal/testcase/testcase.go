package testcase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/corpman/internal/seed"
)

// InfoFileName 是 Dump 附带的测试用例信息文件名（固定）。
const InfoFileName = "test_info.txt"

// File 是测试用例中的一个输出文件。
//
// 约束：
// - Name 是相对输出根目录的路径（serve/写盘都用它）
// - Name 在同一个 TestCase 内应当唯一（由填充方保证，类型本身不校验）
// - Required=false 表示该文件缺失时用例仍算完成（harness 据此放宽判定）
type File struct {
	Name     string
	Data     []byte
	Required bool
}

// NewFile 构造一个必需的输出文件。
func NewFile(name string, data []byte) *File {
	return &File{Name: name, Data: data, Required: true}
}

// NewOptional 构造一个可选的输出文件。
func NewOptional(name string, data []byte) *File {
	return &File{Name: name, Data: data, Required: false}
}

// InvalidFileError 表示尝试加入 TestCase 的输出文件不合法。
type InvalidFileError struct {
	Reason string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("非法的输出文件：%s", e.Reason)
}

// IsInvalidFile 判断 err 是否为非法输出文件错误。
func IsInvalidFile(err error) bool {
	var e *InvalidFileError
	return errors.As(err, &e)
}

// TestCase 是一次 generate 产出的全部输出文件与溯源信息。
//
// 约束：
// - files 保序：追加顺序 = serve/写盘顺序
// - Required=false 的文件名同时记入 optional 列表
// - Template 是非拥有引用，仅用于溯源（写 test_info.txt / report）
type TestCase struct {
	LandingPage string
	ManagerKey  string
	Template    *seed.Template

	files    []*File
	optional []string
}

// New 构造一个空的测试用例外壳，由 fuzzer 负责填充输出文件。
func New(landingPage, managerKey string, tpl *seed.Template) *TestCase {
	return &TestCase{
		LandingPage: landingPage,
		ManagerKey:  managerKey,
		Template:    tpl,
	}
}

// AddFile 追加一个输出文件；Required=false 的文件名记入 optional 列表。
func (tc *TestCase) AddFile(f *File) error {
	if f == nil {
		return &InvalidFileError{Reason: "file 为 nil"}
	}
	if strings.TrimSpace(f.Name) == "" {
		return &InvalidFileError{Reason: "文件名为空"}
	}
	tc.files = append(tc.files, f)
	if !f.Required {
		tc.optional = append(tc.optional, f.Name)
	}
	return nil
}

// Files 返回按加入顺序排列的输出文件。调用方不得修改返回的切片。
func (tc *TestCase) Files() []*File {
	return tc.files
}

// Optional 返回可选文件名列表；没有可选文件时返回 nil。
// 调用方用 nil 区分“没有可选文件”与“存在可选文件”。
func (tc *TestCase) Optional() []string {
	if len(tc.optional) == 0 {
		return nil
	}
	return tc.optional
}

// Dump 把全部输出文件写入 logDir；writeInfo 时额外写 test_info.txt。
//
// 注意：这里是直接写（非原子）。崩溃留下半成品是已接受的风险，由上层清理；
// 与 report.json 不同，测试用例目录是一次性产物，不值得引入临时文件开销。
func (tc *TestCase) Dump(logDir string, writeInfo bool) error {
	for _, f := range tc.files {
		dst := filepath.Join(logDir, f.Name)
		// 输出文件允许带相对子目录（例如 res/worker.js）。
		if dir := filepath.Dir(dst); dir != logDir {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(dst, f.Data, 0o644); err != nil {
			return err
		}
	}

	if !writeInfo {
		return nil
	}
	var b strings.Builder
	b.WriteString("[corpman test case details]\n")
	fmt.Fprintf(&b, "Corpus Manager: %s\n", tc.ManagerKey)
	fmt.Fprintf(&b, "Landing Page:   %s\n", tc.LandingPage)
	if tc.Template != nil {
		hash, err := tc.Template.Hash()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Template File:  %s\n", filepath.Base(tc.Template.FileName))
		fmt.Fprintf(&b, "Template SHA1:  %s\n", hash)
	}
	return os.WriteFile(filepath.Join(logDir, InfoFileName), []byte(b.String()), 0o644)
}
