package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/tvrate/internal/app"
	"github.com/John-Robertt/tvrate/internal/domain"
	"github.com/John-Robertt/tvrate/internal/logging"
)

type reportFlags struct {
	batch     string
	input     string
	out       string
	noClobber bool
	json      bool
}

func newReportCommand(gf *globalFlags) *cobra.Command {
	rf := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report [剧集名称 ...]",
		Short: "输出剧集的分季单集评分报告",
		Long: `输出剧集的分季单集评分报告。

一个名称时输出单个报告；多个名称、--batch '"Show A" "Show B"' 或
--input 列表文件（每行一个名称，# 开头为注释）时批量查询，报告按输入顺序输出。`,
		Example: `  tvrate report "Nathan for You"
  tvrate report --batch '"Nathan for You" "Breaking Bad"' --out ratings.txt
  tvrate report --input watchlist.txt --threads 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, gf, rf, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&rf.batch, "batch", "", `以双引号分隔的多个剧集名称，例如 '"Show A" "Show B"'`)
	f.StringVarP(&rf.input, "input", "i", "", "剧集列表文件（每行一个名称）")
	f.StringVarP(&rf.out, "out", "o", "", "把报告文本另存到文件（原子写入）")
	f.BoolVar(&rf.noClobber, "no-clobber", false, "--out 目标已存在时报错而不是覆盖")
	f.BoolVar(&rf.json, "json", false, "批量模式下 stdout 输出 BatchReport JSON 而不是纯文本")
	return cmd
}

func collectNames(args []string, rf *reportFlags) ([]string, bool, error) {
	var names []string
	for _, a := range args {
		if a = strings.Join(strings.Fields(a), " "); a != "" {
			names = append(names, a)
		}
	}
	batch := len(names) > 1
	if strings.TrimSpace(rf.batch) != "" {
		names = append(names, app.SplitQuoted(rf.batch)...)
		batch = true
	}
	if rf.input != "" {
		fromFile, err := app.ReadSeriesFile(rf.input)
		if err != nil {
			return nil, false, err
		}
		names = append(names, fromFile...)
		batch = true
	}
	return names, batch, nil
}

func runReport(cmd *cobra.Command, gf *globalFlags, rf *reportFlags, args []string) error {
	names, batch, err := collectNames(args, rf)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return usageErrorf(cmd, "至少需要一个剧集名称（参数、--batch 或 --input）")
	}
	if rf.json && !batch {
		return usageErrorf(cmd, "--json 只能用于批量模式")
	}

	d, err := loadRuntime(cmd, gf, nil)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var ui *progressUI
	if logging.IsTerminal(stderr) {
		ui = newProgressUI(stderr)
		d.service.Resolver.Observer = ui
		d.service.Observer = ui
	}

	if !batch {
		return reportOne(cmd, d, ui, rf, names[0])
	}

	br := d.service.Batch(cmd.Context(), names)
	if ui != nil {
		ui.Stop()
	}
	text := app.BatchText(br)
	if rf.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(br); err != nil {
			return err
		}
	} else {
		fmt.Fprint(stdout, text)
	}
	fmt.Fprintln(stderr, renderSummary(br))

	if err := saveIfRequested(stderr, rf, text); err != nil {
		return err
	}
	if br.Summary.Failed > 0 {
		return errSomeFailed
	}
	return nil
}

func reportOne(cmd *cobra.Command, d *deps, ui *progressUI, rf *reportFlags, name string) error {
	if ui != nil {
		ui.Start(1, d.eff.Threads)
	}
	res, err := d.service.Resolve(cmd.Context(), name)
	if ui != nil {
		ui.Stop()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", name, domain.Humanize(err))
		return errSomeFailed
	}

	fmt.Fprint(cmd.OutOrStdout(), res.Text)
	return saveIfRequested(cmd.ErrOrStderr(), rf, res.Text)
}

func saveIfRequested(w io.Writer, rf *reportFlags, text string) error {
	if rf.out == "" {
		return nil
	}
	if err := app.SaveText(rf.out, text, !rf.noClobber); err != nil {
		return err
	}
	fmt.Fprintf(w, "已保存：%s\n", rf.out)
	return nil
}
