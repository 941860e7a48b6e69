package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// 固定忽略清单：OS 自动生成的垃圾文件（比较时小写）。
var ignoredNames = map[string]struct{}{
	"desktop.ini": {},
	"thumbs.db":   {},
}

// EmptyCorpusError 表示扫描没有得到任何可用模板（包括 root 本身不存在）。
// 模板池不允许为空：上层拿到该错误时必须终止构造。
type EmptyCorpusError struct {
	Path string
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("在 %q 下找不到可用的模板文件", e.Path)
}

// IsEmptyCorpus 判断 err 是否为空语料错误。
func IsEmptyCorpus(err error) bool {
	var e *EmptyCorpusError
	return errors.As(err, &e)
}

// Templates 扫描 root 得到候选模板的绝对路径列表。
//
// 规则（硬约束）：
// - root 是目录：递归遍历；root 是普通文件且非空：自身作为唯一候选（不做过滤）
// - 过滤隐藏文件（文件名以 "." 开头）与固定忽略清单（大小写不敏感）
// - exts 非空时只接受后缀在其中的文件（比较时小写、不带点）
// - 过滤零字节文件（扫描阶段只做 stat，不读内容）
//
// 排序：
//   - replayOrder=false：按路径字典序升序（稳定输出，屏蔽文件系统差异）
//   - replayOrder=true：降序；与消费端“从尾部弹出”配对后按升序消费。
//     操作者可以从持久化列表末尾手工删除条目来跳过，而不破坏顺序语义。
func Templates(root string, exts []string, replayOrder bool) ([]string, error) {
	root = filepath.Clean(root)
	accepted := normalizeExts(exts)

	paths := make([]string, 0, 128)

	fi, err := os.Stat(root)
	switch {
	case err != nil:
		// root 不存在与“扫描为空”走同一条失败路径。
	case fi.IsDir():
		werr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if !wanted(d.Name(), accepted) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() == 0 {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			paths = append(paths, abs)
			return nil
		})
		if werr != nil {
			return nil, werr
		}
	case fi.Mode().IsRegular() && fi.Size() > 0:
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}

	if len(paths) == 0 {
		return nil, &EmptyCorpusError{Path: root}
	}

	if replayOrder {
		sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	} else {
		sort.Strings(paths)
	}
	return paths, nil
}

// wanted 判断文件名是否通过隐藏/忽略清单/后缀过滤。
func wanted(name string, accepted map[string]struct{}) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if _, ok := ignoredNames[strings.ToLower(name)]; ok {
		return false
	}
	if len(accepted) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := accepted[ext]
	return ok
}

func normalizeExts(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(e, ".")))
		if e == "" {
			continue
		}
		m[e] = struct{}{}
	}
	return m
}
