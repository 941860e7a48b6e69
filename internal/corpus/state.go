package corpus

// 轮换/回放状态机的纯函数部分：不碰文件系统，便于独立做单元测试。

// shouldRescan 判断当前计数是否处于轮换重扫边界。
// 计数从 0 开始，所以启用轮换时首次 generate 必然重扫。
func shouldRescan(rotate, generated int) bool {
	return rotate > 0 && generated%rotate == 0
}

// clearActive 判断重扫后是否轮换掉当前模板。
// 单候选池没有可换的对象，保留当前模板（即使它已不在池中，也不猜测意图）。
func clearActive(poolSize int) bool {
	return poolSize > 1
}

// popTail 从尾部弹出一个路径。
//
// 回放池按降序排好，“降序排序 + 尾部弹出”配对产生升序的消费顺序。
// 两者必须一起维护：只改排序方向或只改弹出端都会破坏回放语义。
func popTail(paths []string) (string, []string, bool) {
	if len(paths) == 0 {
		return "", paths, false
	}
	n := len(paths) - 1
	return paths[n], paths[:n], true
}
