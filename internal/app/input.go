package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/tvrate/internal/infra/fsx"
)

// SplitQuoted 解析多剧集输入：`"Show A" "Show B"`。
// 以双引号切分，丢弃空白片段；没有引号时整体视为一个名称。
func SplitQuoted(s string) []string {
	var out []string
	for _, part := range strings.Split(s, `"`) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReadSeries 按行读取剧集名称：忽略空行与 # 开头的注释行。
func ReadSeries(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.Join(strings.Fields(sc.Text()), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadSeriesFile 从文本文件读取剧集名称（每行一个）。
func ReadSeriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开剧集列表失败：%w", err)
	}
	defer f.Close()

	names, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("读取剧集列表失败：%w", err)
	}
	return names, nil
}

// SaveText 原子写入报告文本。overwrite=false 时目标已存在即失败。
func SaveText(path, text string, overwrite bool) error {
	if err := fsx.WriteFile(path, []byte(text), overwrite); err != nil {
		return fmt.Errorf("保存报告失败：%w", err)
	}
	return nil
}
