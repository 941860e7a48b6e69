package seed

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError 表示模板路径无效：构造时为空，或首次加载时文件已不存在。
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("模板文件不存在：%q", e.Path)
}

// IsNotFound 判断 err 是否为模板缺失错误。
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// 通过可替换的函数指针，让测试能统计/模拟磁盘读取。
var readFileFunc = os.ReadFile

// Template 包装一个磁盘上的种子文件（模板）。
//
// 不变量（实现必须遵守）：
// - FileName/Extension 构造后只读
// - 构造阶段不做磁盘 I/O：批量扫描时不能把所有候选内容都读进内存
// - 内容与 SHA1 在首次需要时加载一次并缓存，此后不再访问磁盘
type Template struct {
	FileName  string // 模板文件路径（身份标识）
	Extension string // 不带点的文件后缀；文件名中没有 "." 时为空

	data   []byte
	hash   string
	loaded bool
}

// New 构造一个模板引用。空路径立即失败（fast-fail，不做任何 I/O）。
func New(fileName string) (*Template, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, &NotFoundError{Path: fileName}
	}
	t := &Template{FileName: fileName}
	if ext := filepath.Ext(fileName); ext != "" {
		t.Extension = strings.TrimPrefix(ext, ".")
	}
	return t, nil
}

// Data 返回模板内容；首次调用触发加载并缓存。
func (t *Template) Data() ([]byte, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.data, nil
}

// Hash 返回内容的 SHA1（小写十六进制）；必要时触发与 Data 相同的一次加载。
func (t *Template) Hash() (string, error) {
	if err := t.load(); err != nil {
		return "", err
	}
	return t.hash, nil
}

// load 读取磁盘并计算哈希；最多执行一次（compute-once）。
func (t *Template) load() error {
	if t.loaded {
		return nil
	}

	fi, err := os.Stat(t.FileName)
	if err != nil || !fi.Mode().IsRegular() {
		return &NotFoundError{Path: t.FileName}
	}
	b, err := readFileFunc(t.FileName)
	if err != nil {
		return err
	}

	sum := sha1.Sum(b)
	t.data = b
	t.hash = hex.EncodeToString(sum[:])
	t.loaded = true
	return nil
}
