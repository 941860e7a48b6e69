package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplace_CreatesAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	if err := WriteFileAtomicReplace(dir, "report.json", []byte("v1")); err != nil {
		t.Fatalf("首次写入失败：%v", err)
	}
	if err := WriteFileAtomicReplace(dir, "report.json", []byte("v2")); err != nil {
		t.Fatalf("覆盖写入失败：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("读取失败：%v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("期望 v2，实际 %q", b)
	}
}

func TestWriteFileAtomicReplace_RenameFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()

	orig := renameFunc
	renameFunc = func(src, dst string) error { return errors.New("rename 注入失败") }
	defer func() { renameFunc = orig }()

	if err := WriteFileAtomicReplace(dir, "report.json", []byte("x")); err == nil {
		t.Fatalf("期望失败")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读目录失败：%v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("失败后不应留下临时文件：%v", entries)
	}
}
