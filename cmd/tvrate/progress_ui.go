package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/John-Robertt/tvrate/internal/app"
	"github.com/John-Robertt/tvrate/internal/domain"
	"github.com/John-Robertt/tvrate/internal/imdb"
)

var (
	_ imdb.Observer     = (*progressUI)(nil)
	_ app.BatchObserver = (*progressUI)(nil)
)

// progressUI 是交互终端下的简洁进度输出。
//
// - 只写 stderr，不污染 stdout 的报告正文
// - 单集事件只计数不打印；长时间没有输出时由 keepalive 补一行进度
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers  int
	total    int
	done     int
	ok       int
	fail     int
	seasons  int
	episodes int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

// Start 记录总数并启动 keepalive。单剧集模式由 CLI 直接调用；批量模式经 OnBatchStart 调用。
func (p *progressUI) Start(total, workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}
	p.total = total
	p.workers = workers
	p.lastPrinted = now
	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

// Stop 停止 keepalive；可重复调用。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) OnBatchStart(total, workers int) {
	p.mu.Lock()
	fmt.Fprintf(p.w, "[%s] 批量查询: series=%d workers=%d\n\n", time.Now().Format("15:04:05"), total, workers)
	p.mu.Unlock()

	p.Start(total, workers)
}

func (p *progressUI) OnItemDone(idx, total int, item domain.BatchItem, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total
	if item.Status == domain.StatusOK {
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] %s OK %s (%s)\n", idx, total, item.Series, truncate(item.Title, 60), formatShortDuration(dur))
	} else {
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			idx, total, item.Series, item.ErrorKind, truncate(item.ErrorMsg, 160), formatShortDuration(dur),
		)
	}
	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

func (p *progressUI) OnSeriesFound(query, title string, seasons int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "找到: %s -> %s seasons=%d\n", query, truncate(title, 60), seasons)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSeasonDone(url string, episodes, rated int, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seasons++
	fmt.Fprintf(p.w, "季完成: episodes=%d rated=%d %s (%s)\n", episodes, rated, truncate(url, 100), formatShortDuration(dur))
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnEpisodeDone(string, domain.Rating, time.Duration) {
	p.mu.Lock()
	p.episodes++
	p.mu.Unlock()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stopCh := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// stopCh 与 t.C 可能同时就绪：以 tickerStarted 为准，停止后不再输出。
				if !p.tickerStarted || p.stopCh != stopCh {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d seasons=%d episodes=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, p.seasons, p.episodes, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func (p *progressUI) stopTickerLocked() {
	if !p.tickerStarted {
		return
	}
	close(p.stopCh)
	p.tickerStarted = false
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
