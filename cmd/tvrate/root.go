package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/tvrate/internal/app"
	"github.com/John-Robertt/tvrate/internal/config"
	"github.com/John-Robertt/tvrate/internal/extract"
	"github.com/John-Robertt/tvrate/internal/imdb"
	"github.com/John-Robertt/tvrate/internal/infra/httpx"
	"github.com/John-Robertt/tvrate/internal/logging"
)

// globalFlags 是所有子命令共享的持久参数。
type globalFlags struct {
	configPath string
	parser     string
	threads    int
	verbose    bool
}

func newRootCommand() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:           "tvrate",
		Short:         "抓取剧集每一集的评分，并与剧集官方评分对比",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf(cmd, "未知命令：%q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{Err: err, Usage: cmd.UsageString()}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "配置文件路径（默认尝试 ./"+config.FileName+"）")
	pf.StringVar(&gf.parser, "parser", "", "HTML 解析后端：strict|permissive|fallback（兼容 lxml|html5lib|html.parser）")
	pf.IntVarP(&gf.threads, "threads", "t", 0, fmt.Sprintf("每一步的并发线程数（1-%d，默认 %d）", config.MaxThreads, config.DefaultThreads))
	pf.BoolVarP(&gf.verbose, "verbose", "v", false, "输出 debug 日志")

	root.AddCommand(newReportCommand(gf))
	root.AddCommand(newServeCommand(gf))
	return root
}

func usageErrorf(cmd *cobra.Command, format string, args ...any) error {
	return &usageError{Err: fmt.Errorf(format, args...), Usage: cmd.UsageString()}
}

// deps 是一次命令执行所需的全部已装配依赖。
type deps struct {
	eff     config.EffectiveConfig
	log     zerolog.Logger
	service *app.Service
}

// loadRuntime 读取配置并装配 HTTP client、解析后端、resolver 与 service。
// extra 用于子命令追加自己的 CLI 覆盖（例如 serve 的 --addr）。
func loadRuntime(cmd *cobra.Command, gf *globalFlags, extra func(*config.CLIArgs)) (*deps, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("读取当前目录失败：%w", err)
	}

	flags := cmd.Flags()
	cli := config.CLIArgs{
		ConfigPath: gf.configPath,
		Parser:     gf.parser,
		ParserSet:  flags.Changed("parser"),
		Threads:    gf.threads,
		ThreadsSet: flags.Changed("threads"),
		Verbose:    gf.verbose,
	}
	if extra != nil {
		extra(&cli)
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{Level: eff.LogLevel, Format: eff.LogFormat, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return nil, err
	}

	client, err := httpx.NewClient(httpx.Options{ProxyURL: eff.ProxyURL, Timeout: eff.Timeout, RateLimit: eff.RateLimit})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP client 失败：%w", err)
	}
	ex, err := extract.New(eff.Parser)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("config", eff.ConfigPath).
		Str("parser", eff.Parser).
		Int("threads", eff.Threads).
		Str("base_url", eff.BaseURL).
		Bool("proxy", eff.ProxyURL != "").
		Msg("配置已加载")

	res := &imdb.Resolver{
		BaseURL:   eff.BaseURL,
		HTTP:      client,
		Extractor: ex,
		Threads:   eff.Threads,
		Log:       logging.Component(log, "imdb"),
	}
	return &deps{
		eff: eff,
		log: log,
		service: &app.Service{
			Resolver: res,
			Threads:  eff.Threads,
			Log:      logging.Component(log, "app"),
		},
	}, nil
}
