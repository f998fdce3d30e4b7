// xaffinityctl 查看本机硬件拓扑并演示按物理核绑定的线程池。
//
// 用法:
//
//	xaffinityctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--log-level    日志级别 debug/info/warn/error (默认: warn)
//	--log-format   日志格式 text/json (默认: text)
//	--log-file     日志文件路径，按大小轮转 (默认: 输出到 stderr)
//
// 命令:
//
//	topology       打印每个逻辑 CPU 的拓扑与核掩码表
//	run            创建线程池并执行演示任务
//	help           显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败
//	2: 参数错误（无效参数值、未知命令等）
//	130: 收到第二次 SIGINT/SIGTERM 强制退出
//
// 示例:
//
//	xaffinityctl topology                       # 表格输出
//	xaffinityctl topology --json                # JSON 输出
//	xaffinityctl run --tasks 16                 # 每个物理核一个 worker
//	xaffinityctl run --config pool.yaml         # 从配置文件创建线程池
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xaffinityctl",
		Usage:   "硬件拓扑查看与线程池演示",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径（按大小轮转），为空时输出到 stderr",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		if isUsageError(err) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
			return 2
		}
		if _, ok := err.(cli.ExitCoder); ok {
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
