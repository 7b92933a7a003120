package imdb

import (
	"time"

	"github.com/John-Robertt/tvrate/internal/domain"
)

// Observer 把解析进度从流水线中解耦出来。
//
// 约束：
// - imdb 包只发事件，不做任何输出（stdout 留给报告正文）
// - 实现必须并发安全：事件来自多个 worker goroutine
type Observer interface {
	// OnSeriesFound 在搜索与主页解析完成、季链接确定后调用。
	OnSeriesFound(query, title string, seasons int)
	// OnSeasonDone 在一季的全部单集解析成功后调用。
	OnSeasonDone(url string, episodes, rated int, dur time.Duration)
	OnEpisodeDone(url string, rating domain.Rating, dur time.Duration)
}
