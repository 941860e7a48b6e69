package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/corpman/internal/domain"
)

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()

	corpusDir := filepath.Join(root, "corpus")
	if err := os.MkdirAll(corpusDir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "seed.html"), []byte("<html>x</html>"), 0o644); err != nil {
		t.Fatalf("写入模板失败：%v", err)
	}
	out := filepath.Join(root, "out")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/corpman", "run", corpusDir,
		"--count=3", "--out", out)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Summary.Generated != 3 || rr.Summary.Failed != 0 {
		t.Fatalf("summary 不符：%+v", rr.Summary)
	}
	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "完成：generated=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}

	// 用例目录与 report.json 都应落在 out 下。
	for i := 0; i < 3; i++ {
		dir := filepath.Join(out, fmt.Sprintf("test_%04d", i))
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Fatalf("缺少用例目录 %s：%v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "report.json")); err != nil {
		t.Fatalf("缺少 report.json：%v", err)
	}
}

func TestCLI_ConfigError_ReportOnStdout(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	// 无参运行且 cwd 下没有 corpman.json：应得到 config_not_found 的失败报告。
	cmd := exec.Command("go", "run", "./cmd/corpman", "run")
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		t.Fatalf("期望非零退出码\nstdout=%s", stdout.String())
	}

	var rr domain.RunReport
	if e := json.Unmarshal(stdout.Bytes(), &rr); e != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", e, stdout.String())
	}
	if rr.Summary.Failed != 1 {
		t.Fatalf("summary 不符：%+v", rr.Summary)
	}
	if rr.Tests[0].ErrorCode != "config_not_found" {
		t.Fatalf("error_code 不符：%q", rr.Tests[0].ErrorCode)
	}
}
