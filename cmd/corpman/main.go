package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/corpman/internal/app/run"
	"github.com/John-Robertt/corpman/internal/config"
	"github.com/John-Robertt/corpman/internal/domain"
	"github.com/John-Robertt/corpman/internal/fuzzer"
	"github.com/John-Robertt/corpman/internal/fuzzer/flip"
	"github.com/John-Robertt/corpman/internal/fuzzer/snip"
	"github.com/John-Robertt/corpman/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "list":
		listCmd()
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	cli, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		rr := reportForConfigError(cwdAbs, cli, err)
		emitReport(rr)
		return 1
	}

	reg, e := fuzzer.NewRegistry(flip.New(), snip.New())
	if e != nil {
		fmt.Fprintf(os.Stderr, "初始化 fuzzer registry 失败：%v\n", e)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(eff, reg, obs)

	if err := writeReportFile(eff.Out, rr); err != nil {
		fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
		emitReport(rr)
		return 1
	}

	emitReport(rr)
	if interactive {
		fmt.Fprintf(progressW, "report: %s\n", filepath.Join(eff.Out, "report.json"))
	}
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func listCmd() {
	reg, err := fuzzer.NewRegistry(flip.New(), snip.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 fuzzer registry 失败：%v\n", err)
		os.Exit(1)
	}
	for _, name := range reg.Names() {
		fmt.Fprintln(os.Stdout, name)
	}
}

func parseRunArgs(args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{}

	// --flag value 与 --flag=value 两种写法都接受；布尔开关允许裸 --flag。
	next := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s 需要一个值", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		name, val, hasVal := splitFlag(a)
		switch name {
		case "--fuzzer":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			if strings.TrimSpace(val) == "" {
				return config.CLIArgs{}, fmt.Errorf("--fuzzer 不能为空")
			}
			cli.Fuzzer = val
			cli.FuzzerSet = true
		case "--out":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			cli.Out = val
			cli.OutSet = true
		case "--count":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--count 需要整数，实际是 %q", val)
			}
			cli.Count = n
			cli.CountSet = true
		case "--rotate":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--rotate 需要整数，实际是 %q", val)
			}
			cli.Rotate = n
			cli.RotateSet = true
		case "--aggression":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--aggression 需要浮点数，实际是 %q", val)
			}
			cli.Aggression = f
			cli.AggressionSet = true
		case "--ext":
			if !hasVal {
				v, err := next(&i, name)
				if err != nil {
					return config.CLIArgs{}, err
				}
				val = v
			}
			for _, e := range strings.Split(val, ",") {
				e = strings.TrimSpace(e)
				if e != "" {
					cli.Extensions = append(cli.Extensions, e)
				}
			}
			cli.ExtensionsSet = true
		case "--replay":
			b, err := boolFlag(name, val, hasVal)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Replay = b
			cli.ReplaySet = true
		case "--transition":
			b, err := boolFlag(name, val, hasVal)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Transition = b
			cli.TransitionSet = true
		case "--info":
			b, err := boolFlag(name, val, hasVal)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Info = b
			cli.InfoSet = true
		case "--watch":
			b, err := boolFlag(name, val, hasVal)
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.Watch = b
			cli.WatchSet = true
		default:
			if strings.HasPrefix(a, "-") {
				return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
			}
			if cli.Path != "" {
				return config.CLIArgs{}, fmt.Errorf("重复的 path：%q 与 %q", cli.Path, a)
			}
			cli.Path = a
		}
	}

	return cli, nil
}

func splitFlag(a string) (name, val string, hasVal bool) {
	if !strings.HasPrefix(a, "--") {
		return a, "", false
	}
	if idx := strings.IndexByte(a, '='); idx >= 0 {
		return a[:idx], a[idx+1:], true
	}
	return a, "", false
}

func boolFlag(name, val string, hasVal bool) (bool, error) {
	if !hasVal {
		return true, nil
	}
	switch val {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, val)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  corpman run [path] [选项]
  corpman list

命令：
  run    扫描语料目录并生成测试用例
  list   列出可用的 fuzzer

使用 "corpman run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  corpman run [path] [选项]

参数：
  path          语料目录或单个模板文件（未指定则读配置文件中的 path）

选项：
  --fuzzer      使用的 fuzzer（默认 flip；见 corpman list）
  --count       生成的用例数量（默认 10）
  --out         输出目录（默认 ./corpman-out；不允许位于 path 之内）
  --ext         允许的扩展名，逗号分隔（例如 html,svg；默认不过滤）
  --replay      按文件名升序逐个回放模板，耗尽即停（强制关闭轮换）
  --rotate      模板轮换周期（默认 10；0 = 同一模板用到底）
  --aggression  变异强度，(0,1] 区间（默认 0.001）
  --transition  在用例之间插入跳板页（默认开启；--transition=false 关闭）
  --info        额外写 test_info.txt（默认关闭）
  --watch       监听语料目录变化并在下一个用例前重扫（与 --replay 互斥）
  -h, --help    显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：generated=%d failed=%d pool=%d\n",
			rr.Summary.Generated, rr.Summary.Failed, rr.Summary.PoolSize,
		)
		for _, tr := range rr.Tests {
			if tr.Status != domain.StatusFailed {
				continue
			}
			key := tr.LandingPage
			if key == "" {
				key = fmt.Sprintf("test_%04d", tr.Index)
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, tr.ErrorCode, tr.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：generated=%d failed=%d pool=%d\n",
		rr.Summary.Generated, rr.Summary.Failed, rr.Summary.PoolSize,
	)
}

func reportForConfigError(cwdAbs string, cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = config.ErrCodeInvalid
	}
	rr := domain.RunReport{
		Path:       cwdAbs,
		Fuzzer:     cli.Fuzzer,
		Replay:     cli.ReplaySet && cli.Replay,
		StartedAt:  now,
		FinishedAt: now,
		Tests: []domain.TestResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(outDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(outDir, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
