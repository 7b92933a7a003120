package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/tvrate/internal/domain"
)

// renderSummary 把批量结果渲染为一张摘要表（写 stderr，不进入报告正文）。
func renderSummary(br domain.BatchReport) string {
	tw := table.NewWriter()
	style := table.StyleRounded
	// 默认样式会把表头/表尾转成大写，这里保持原样。
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"#", "剧集", "状态", "标题 / 错误"})

	for i, it := range br.Items {
		status := "OK"
		detail := it.Title
		if it.Status != domain.StatusOK {
			status = "FAIL"
			detail = truncate(it.ErrorMsg, 80)
		}
		tw.AppendRow(table.Row{i + 1, it.Series, status, detail})
	}
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("ok=%d failed=%d", br.Summary.OK, br.Summary.Failed)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// truncate 按 rune 截断，避免把中文说明截成乱码。
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
