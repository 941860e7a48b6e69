package corpus

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听 corpus 目录树的变化，用于在轮换边界之前提早发现新模板。
//
// 约束：
//   - 事件在 fsnotify 自己的 goroutine 上到达，脏标志用 atomic 承载
//   - 只做脏标记，真正的重扫仍由 Manager 在下一次 Generate 时串行完成
//     （保持 Manager 本身单线程、无锁的模型）
//   - fsnotify 不递归：已有子目录逐个挂上，新建子目录在事件里补挂
type Watcher struct {
	fw    *fsnotify.Watcher
	dirty atomic.Bool
}

// Watch 在 root 上建立监听；root 是单个文件时监听其所在目录。
func Watch(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(root)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if !fi.IsDir() {
		root = filepath.Dir(root)
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				// 新建子目录要补挂监听；失败只能忽略（轮换边界重扫兜底）。
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.fw.Add(ev.Name)
				}
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				w.dirty.Store(true)
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// 监听错误不致命：丢事件的后果只是晚一个轮换周期才看到新模板。
		}
	}
}

// DirtyReset 返回自上次调用以来目录树是否发生过变化，并清除标志。
func (w *Watcher) DirtyReset() bool {
	return w.dirty.Swap(false)
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}
