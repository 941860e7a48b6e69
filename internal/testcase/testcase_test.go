package testcase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/corpman/internal/seed"
)

func TestAddFile_OrderAndOptional(t *testing.T) {
	tc := New("test_page_0000.html", "flip", nil)

	if err := tc.AddFile(NewFile("a.html", []byte("a"))); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := tc.AddFile(NewOptional("meta.txt", []byte("m"))); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := tc.AddFile(NewFile("b.bin", []byte("b"))); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	files := tc.Files()
	if len(files) != 3 {
		t.Fatalf("期望 3 个文件，实际 %d", len(files))
	}
	wantOrder := []string{"a.html", "meta.txt", "b.bin"}
	for i, f := range files {
		if f.Name != wantOrder[i] {
			t.Fatalf("位置 %d：期望 %q，实际 %q", i, wantOrder[i], f.Name)
		}
	}

	opt := tc.Optional()
	if len(opt) != 1 || opt[0] != "meta.txt" {
		t.Fatalf("期望 optional=[meta.txt]，实际：%v", opt)
	}
}

func TestAddFile_Invalid(t *testing.T) {
	tc := New("test_page_0000.html", "flip", nil)

	if err := tc.AddFile(nil); !IsInvalidFile(err) {
		t.Fatalf("期望 InvalidFileError（nil），实际：%v", err)
	}
	if err := tc.AddFile(&File{Name: "  ", Data: []byte("x")}); !IsInvalidFile(err) {
		t.Fatalf("期望 InvalidFileError（空文件名），实际：%v", err)
	}
	if len(tc.Files()) != 0 {
		t.Fatalf("非法文件不应进入列表：%v", tc.Files())
	}
}

func TestOptional_NilWhenNone(t *testing.T) {
	tc := New("test_page_0000.html", "flip", nil)
	_ = tc.AddFile(NewFile("a.html", []byte("a")))

	if tc.Optional() != nil {
		t.Fatalf("没有可选文件时期望 nil，实际：%v", tc.Optional())
	}
}

func TestDump_WritesFilesAndInfo(t *testing.T) {
	tplPath := filepath.Join(t.TempDir(), "seed.html")
	if err := os.WriteFile(tplPath, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("写入模板失败：%v", err)
	}
	tpl, err := seed.New(tplPath)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	tc := New("test_page_0003.html", "flip", tpl)
	_ = tc.AddFile(NewFile("test_page_0003.html", []byte("<html>")))
	_ = tc.AddFile(NewFile(filepath.Join("res", "w.js"), []byte("// js")))

	logDir := t.TempDir()
	if err := tc.Dump(logDir, true); err != nil {
		t.Fatalf("Dump 失败：%v", err)
	}

	for _, name := range []string{"test_page_0003.html", filepath.Join("res", "w.js")} {
		if _, err := os.Stat(filepath.Join(logDir, name)); err != nil {
			t.Fatalf("缺少输出文件 %q：%v", name, err)
		}
	}

	info, err := os.ReadFile(filepath.Join(logDir, InfoFileName))
	if err != nil {
		t.Fatalf("读取 %s 失败：%v", InfoFileName, err)
	}
	s := string(info)
	wantHash, _ := tpl.Hash()
	for _, want := range []string{
		"Corpus Manager: flip\n",
		"Landing Page:   test_page_0003.html\n",
		"Template File:  seed.html\n",
		"Template SHA1:  " + wantHash + "\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("test_info.txt 缺少 %q：\n%s", want, s)
		}
	}
}

func TestDump_NoTemplateOmitsTemplateLines(t *testing.T) {
	tc := New("test_page_0000.html", "flip", nil)
	_ = tc.AddFile(NewFile("test_page_0000.html", []byte("<html>")))

	logDir := t.TempDir()
	if err := tc.Dump(logDir, true); err != nil {
		t.Fatalf("Dump 失败：%v", err)
	}
	info, err := os.ReadFile(filepath.Join(logDir, InfoFileName))
	if err != nil {
		t.Fatalf("读取 %s 失败：%v", InfoFileName, err)
	}
	if strings.Contains(string(info), "Template File:") {
		t.Fatalf("没有模板时不应写 Template 行：\n%s", info)
	}
}

func TestDump_NoInfoFileWhenDisabled(t *testing.T) {
	tc := New("test_page_0000.html", "flip", nil)
	_ = tc.AddFile(NewFile("test_page_0000.html", []byte("<html>")))

	logDir := t.TempDir()
	if err := tc.Dump(logDir, false); err != nil {
		t.Fatalf("Dump 失败：%v", err)
	}
	if _, err := os.Stat(filepath.Join(logDir, InfoFileName)); !os.IsNotExist(err) {
		t.Fatalf("writeInfo=false 时不应生成 %s", InfoFileName)
	}
}
