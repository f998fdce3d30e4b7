package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xaffinity/pkg/hw/xcpu"
	"github.com/omeyang/xaffinity/pkg/hw/xtopo"
	"github.com/omeyang/xaffinity/pkg/util/xpool"
)

// usageError 表示参数错误，对应退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createTopologyCommand(),
		createRunCommand(),
	}
}

func createTopologyCommand() *cli.Command {
	return &cli.Command{
		Name:  "topology",
		Usage: "打印每个逻辑 CPU 的拓扑与核掩码表",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "以 JSON 输出",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withLogger(cmd, func(logger *slog.Logger) error {
				topo, err := xcpu.Discover(ctx, xcpu.WithLogger(logger))
				if err != nil {
					return err
				}
				return writeTopology(cmd.Root().Writer, buildReport(topo), cmd.Bool("json"))
			})
		},
	}
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "创建线程池并执行演示任务，每个任务报告其所在硬件线程",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "tasks",
				Usage: "任务数量",
				Value: 8,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "线程池配置文件（.yaml/.yml/.json）",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "worker 数量，0 表示按模式自动确定（覆盖配置文件）",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "per-core 或 per-logical-cpu（覆盖配置文件）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tasks := cmd.Int("tasks")
			if tasks < 0 {
				return &usageError{msg: "--tasks 不能为负数: " + strconv.Itoa(tasks)}
			}
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			return withLogger(cmd, func(logger *slog.Logger) error {
				return cmdRun(ctx, cmd.Root().Writer, logger, cfg, tasks)
			})
		},
	}
}

// loadRunConfig 合并配置文件与命令行参数，命令行优先。
func loadRunConfig(cmd *cli.Command) (xpool.Config, error) {
	var cfg xpool.Config
	if path := cmd.String("config"); path != "" {
		loaded, err := xpool.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if cmd.IsSet("workers") {
		cfg.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("mode") {
		cfg.Mode = cmd.String("mode")
	}
	if cfg.Name == "" {
		cfg.Name = "xaffinityctl"
	}
	if _, err := cfg.Options(); err != nil {
		return cfg, &usageError{msg: err.Error()}
	}
	return cfg, nil
}

func withLogger(cmd *cli.Command, fn func(*slog.Logger) error) error {
	logger, closer, err := newLogger(cmd.String("log-level"), cmd.String("log-format"), cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(logger)
}

// taskReport 是单个演示任务的结果。
type taskReport struct {
	Task   int
	Thread xtopo.HardwareThreadID
	Err    error
}

func cmdRun(ctx context.Context, w io.Writer, logger *slog.Logger, cfg xpool.Config, tasks int) error {
	opts, err := cfg.Options()
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	topo, err := xcpu.Discover(ctx, append(cfg.DiscoverOptions(), xcpu.WithLogger(logger))...)
	if err != nil {
		return err
	}
	pool, err := xpool.New(ctx, topo, append(opts, xpool.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Fprintf(w, "pool %s: %d workers, mode %s, pinned %t, %d physical cores\n",
		pool.ID(), pool.NumThreads(), pool.Mode(), pool.Pinned(), topo.NumCores())

	reports := make([]taskReport, tasks)
	fns := make([]func(), tasks)
	for i := range fns {
		fns[i] = func() {
			id, err := xtopo.Acquire(xtopo.CPUID)
			reports[i] = taskReport{Task: i, Thread: id, Err: err}
		}
	}
	set := pool.ScheduleBatch(fns)
	if err := set.WaitContext(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tTHREAD")
	for _, r := range reports {
		desc := r.Thread.String()
		if r.Err != nil {
			desc = r.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\n", r.Task, desc)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	st := pool.Stats()
	fmt.Fprintf(w, "completed %d, panicked %d\n", st.Completed, st.Panicked)
	return pool.Close()
}

// threadReport 是单个逻辑 CPU 的拓扑。
type threadReport struct {
	CPU         int      `json:"cpu"`
	Valid       bool     `json:"valid"`
	X2APIC      uint32   `json:"x2apic,omitempty"`
	Levels      []uint32 `json:"levels,omitempty"`
	Description string   `json:"description"`
	Core        bool     `json:"core_representative"`
}

// topologyReport 是 topology 命令的输出。
type topologyReport struct {
	LogicalCPUs int            `json:"logical_cpus"`
	Cores       int            `json:"cores"`
	CoreMasks   []int          `json:"core_masks"`
	Threads     []threadReport `json:"threads"`
}

func buildReport(topo *xcpu.Topology) topologyReport {
	masks := topo.CoreMasks()
	rep := topologyReport{
		LogicalCPUs: topo.LogicalCPUs(),
		Cores:       topo.NumCores(),
		CoreMasks:   masks,
		Threads:     make([]threadReport, 0, topo.LogicalCPUs()),
	}
	if rep.CoreMasks == nil {
		rep.CoreMasks = []int{}
	}
	reps := make(map[int]bool, len(masks))
	for _, cpu := range masks {
		reps[cpu] = true
	}
	for _, cpu := range topo.CPUs() {
		id, _ := topo.Thread(cpu)
		tr := threadReport{CPU: cpu, Valid: id.Valid(), Description: id.Description(), Core: reps[cpu]}
		if id.Valid() {
			tr.X2APIC = id.X2APIC()
			tr.Levels = id.LevelIDs()
		}
		rep.Threads = append(rep.Threads, tr)
	}
	return rep
}

func writeTopology(w io.Writer, rep topologyReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "logical cpus: %d, physical cores: %d\n", rep.LogicalCPUs, rep.Cores)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CPU\tX2APIC\tLEVELS\tHIERARCHY\tCORE")
	for _, t := range rep.Threads {
		x2apic, levels := "-", "-"
		if t.Valid {
			x2apic = strconv.FormatUint(uint64(t.X2APIC), 10)
			levels = joinUint32(t.Levels)
		}
		core := ""
		if t.Core {
			core = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.CPU, x2apic, levels, t.Description, core)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rep.Cores == 0 {
		fmt.Fprintln(w, "no usable topology: workers will run unpinned")
	}
	return nil
}

func joinUint32(vs []uint32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, "/")
}

// setupSignalHandler 设置信号处理。
// 第一次信号取消 ctx，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}

// isUsageError 报告 err 是否为参数错误。
func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}
