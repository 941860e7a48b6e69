package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTemplates_FiltersHiddenIgnoredAndEmpty(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.html"), "x")
	touch(t, filepath.Join(root, "sub", "b.svg"), "y")
	touch(t, filepath.Join(root, ".hidden.html"), "z")
	touch(t, filepath.Join(root, "Desktop.ini"), "junk")
	touch(t, filepath.Join(root, "THUMBS.DB"), "junk")
	touch(t, filepath.Join(root, "empty.html"), "")

	got, err := Templates(root, nil, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个模板，实际 %d：%v", len(got), got)
	}
	// 升序稳定输出。
	if filepath.Base(got[0]) != "a.html" || filepath.Base(got[1]) != "b.svg" {
		t.Fatalf("期望 [a.html b.svg]，实际：%v", got)
	}
}

func TestTemplates_ExtensionFilterCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x.HTML"), "x")
	touch(t, filepath.Join(root, "y.bin"), "y")

	got, err := Templates(root, []string{"html"}, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "x.HTML" {
		t.Fatalf("期望只保留 x.HTML，实际：%v", got)
	}
}

func TestTemplates_SingleFileRoot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "only.bin")
	touch(t, path, "data")

	got, err := Templates(path, []string{"html"}, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 单文件 root 不做后缀过滤。
	if len(got) != 1 || filepath.Base(got[0]) != "only.bin" {
		t.Fatalf("期望唯一候选 only.bin，实际：%v", got)
	}
	if !filepath.IsAbs(got[0]) {
		t.Fatalf("期望绝对路径，实际：%q", got[0])
	}
}

func TestTemplates_EmptyResultFails(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".only-hidden"), "x")

	if _, err := Templates(root, nil, false); !IsEmptyCorpus(err) {
		t.Fatalf("期望 EmptyCorpusError，实际：%v", err)
	}
	// root 不存在同样视为空语料。
	if _, err := Templates(filepath.Join(root, "nope"), nil, false); !IsEmptyCorpus(err) {
		t.Fatalf("期望 EmptyCorpusError（root 缺失），实际：%v", err)
	}
}

func TestTemplates_ReplayOrderDescending(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.html"), "1")
	touch(t, filepath.Join(root, "b.html"), "2")
	touch(t, filepath.Join(root, "c.html"), "3")

	got, err := Templates(root, nil, true)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 降序排列：从尾部弹出时按 a、b、c 消费。
	want := []string{"c.html", "b.html", "a.html"}
	for i, p := range got {
		if filepath.Base(p) != want[i] {
			t.Fatalf("位置 %d：期望 %q，实际 %q", i, want[i], filepath.Base(p))
		}
	}
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
