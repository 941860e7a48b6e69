package corpus

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_MarksDirtyOnNewTemplate(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.html"), []byte("a"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	w, err := Watch(root)
	if err != nil {
		t.Fatalf("建立监听失败：%v", err)
	}
	defer w.Close()

	if w.DirtyReset() {
		t.Fatalf("初始状态不应为脏")
	}

	if err := os.WriteFile(filepath.Join(root, "b.html"), []byte("b"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	// 事件异步到达：轮询等待，超时判失败。
	deadline := time.Now().Add(3 * time.Second)
	for !w.DirtyReset() {
		if time.Now().After(deadline) {
			t.Fatalf("等待脏标志超时")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	if _, err := Watch(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("root 不存在应当报错")
	}
}
