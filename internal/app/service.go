// Package app 是对外的协作接口：给定剧集名称与配置，返回报告文本或错误说明。
//
// CLI 与 HTTP API 都只是它的薄调用方。
package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/tvrate/internal/domain"
	"github.com/John-Robertt/tvrate/internal/fanout"
	"github.com/John-Robertt/tvrate/internal/imdb"
	"github.com/John-Robertt/tvrate/internal/report"
)

// BatchObserver 接收批量查询的条目级事件。实现必须并发安全。
type BatchObserver interface {
	OnBatchStart(total, workers int)
	OnItemDone(idx, total int, item domain.BatchItem, dur time.Duration)
}

type Service struct {
	Resolver *imdb.Resolver

	// Threads 是批量查询时剧集级并发上限（与解析流水线各层使用同一配置）。
	Threads int

	Log      zerolog.Logger
	Observer BatchObserver
}

func (s *Service) threads() int {
	if s.Threads < 1 {
		return 1
	}
	return s.Threads
}

// Result 是单个剧集查询的结果。
type Result struct {
	Series string
	Title  string
	Text   string
}

// Resolve 解析并渲染一个剧集。
func (s *Service) Resolve(ctx context.Context, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSearch, Msg: "剧集名称不能为空"}
	}
	if s.Resolver == nil {
		return Result{}, errors.New("resolver 不能为空")
	}
	sr := domain.NewSeriesRatings(name)
	text, err := report.Builder{Filler: s.Resolver}.Build(ctx, sr)
	if err != nil {
		return Result{Series: name}, err
	}
	return Result{Series: name, Title: sr.Title, Text: text}, nil
}

// Report 返回单个剧集的报告文本。
func (s *Service) Report(ctx context.Context, name string) (string, error) {
	res, err := s.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ReportText 返回报告文本；失败时返回一行可读的错误说明（带失败阶段）。
func (s *Service) ReportText(ctx context.Context, name string) string {
	text, err := s.Report(ctx, name)
	if err != nil {
		return domain.Humanize(err)
	}
	return text
}

// Batch 用一个共享的有界 worker 组并发查询多个剧集。
//
// 输出顺序与输入一致；单个剧集失败不影响其他剧集（各自携带报告或错误）。
// 空白名称会被跳过。
func (s *Service) Batch(ctx context.Context, names []string) domain.BatchReport {
	started := time.Now()

	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}

	total := len(clean)
	workers := s.threads()
	if s.Observer != nil {
		s.Observer.OnBatchStart(total, workers)
	}
	s.Log.Info().Int("series", total).Int("workers", workers).Msg("批量查询开始")

	var (
		doneMu sync.Mutex
		done   int
	)
	results := fanout.Each(ctx, workers, clean, func(ctx context.Context, _ int, name string) (domain.BatchItem, error) {
		oneStarted := time.Now()
		item := s.batchItem(ctx, name)

		if s.Observer != nil {
			doneMu.Lock()
			done++
			idx := done
			doneMu.Unlock()
			s.Observer.OnItemDone(idx, total, item, time.Since(oneStarted))
		}
		return item, nil
	})

	br := domain.BatchReport{StartedAt: started, Items: make([]domain.BatchItem, 0, total)}
	for i, r := range results {
		if r.Err != nil {
			// 只有 ctx 取消时才会走到这里（任务未开始）。
			br.Items = append(br.Items, failedItem(clean[i], r.Err))
			continue
		}
		br.Items = append(br.Items, r.Value)
	}
	br.FinishedAt = time.Now()
	br.Finalize()

	s.Log.Info().Int("ok", br.Summary.OK).Int("failed", br.Summary.Failed).Dur("elapsed", time.Since(started)).Msg("批量查询完成")
	return br
}

func (s *Service) batchItem(ctx context.Context, name string) domain.BatchItem {
	res, err := s.Resolve(ctx, name)
	if err != nil {
		s.Log.Warn().Str("series", name).Err(err).Msg("剧集查询失败")
		return failedItem(name, err)
	}
	return domain.BatchItem{Series: name, Title: res.Title, Status: domain.StatusOK, Report: res.Text}
}

func failedItem(name string, err error) domain.BatchItem {
	kind := string(domain.KindOf(err))
	return domain.BatchItem{
		Series:    name,
		Status:    domain.StatusFailed,
		ErrorKind: kind,
		ErrorMsg:  domain.Humanize(err),
	}
}

// BatchText 把批量结果拼成一份纯文本（每个剧集之间空两行）。失败条目输出错误说明。
func BatchText(br domain.BatchReport) string {
	parts := make([]string, 0, len(br.Items))
	for _, it := range br.Items {
		if it.Status == domain.StatusOK {
			parts = append(parts, strings.TrimRight(it.Report, "\n"))
			continue
		}
		parts = append(parts, it.Series+"\n"+it.ErrorMsg)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n\n") + "\n"
}
