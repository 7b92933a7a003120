package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind 是固定的错误分类（所有阶段共用，不再按调用点临时定义错误类型）。
type Kind string

const (
	KindNetwork Kind = "network" // 传输失败或非 2xx
	KindParse   Kind = "parse"   // 期望的页面元素不存在（站点结构变化或页面不存在）
	KindSeries  Kind = "series"  // 找不到剧集 / 不是剧集
	KindSeason  Kind = "season"  // 季页面没有任何剧集
	KindEpisode Kind = "episode" // 单集页面抓取/解析失败
	KindAverage Kind = "average" // 没有可用于计算平均分的剧集
)

// Stage 标识失败发生的流水线阶段。
type Stage string

const (
	StageSearch      Stage = "search"
	StageSeriesPage  Stage = "series-page"
	StageSeasonPage  Stage = "season-page"
	StageEpisodePage Stage = "episode-page"
	StageAverage     Stage = "average"
)

// Error 是流水线各阶段的可追溯错误。
// 上层可以通过 errors.As 逐层取到最内层原因（例如 *HTTPStatusError）。
type Error struct {
	Kind  Kind
	Stage Stage
	URL   string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s error (stage=%s)", e.Kind, e.Stage)
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf 返回最外层 *Error 的 Kind；不是 *Error 时返回空串。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StageOf 返回最外层 *Error 的 Stage。
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// IsKind 判断错误链上是否存在指定 Kind 的 *Error。
func IsKind(err error, k Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == k {
			return true
		}
		err = e.Err
	}
	return false
}

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Humanize 把任意流水线错误转换为一行面向用户的说明（带上失败阶段）。
func Humanize(err error) string {
	if err == nil {
		return ""
	}

	stage := StageOf(err)
	where := stageLabel(stage)

	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 403, 429:
			return fmt.Sprintf("%s失败：站点返回 HTTP %d（可能触发限流），建议降低线程数后重试。", where, hs.StatusCode)
		case 404:
			return fmt.Sprintf("%s失败：站点返回 HTTP 404（页面不存在）。", where)
		default:
			return fmt.Sprintf("%s失败：站点返回 HTTP %d。", where, hs.StatusCode)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s失败：请求超时，请检查网络或代理。", where)
	}

	switch KindOf(err) {
	case KindSeries:
		return fmt.Sprintf("%s失败：未找到剧集，或搜索到的第一个结果不是剧集。%v", where, err)
	case KindSeason:
		return fmt.Sprintf("%s失败：季页面中没有找到任何剧集。%v", where, err)
	case KindAverage:
		return fmt.Sprintf("%s失败：没有任何有评分的剧集。", where)
	case KindParse:
		return fmt.Sprintf("%s失败（站点结构可能变化或页面不存在）：%v", where, err)
	}
	return fmt.Sprintf("%s失败：%v", where, err)
}

func stageLabel(s Stage) string {
	switch s {
	case StageSearch:
		return "搜索"
	case StageSeriesPage:
		return "解析剧集主页"
	case StageSeasonPage:
		return "解析季页面"
	case StageEpisodePage:
		return "解析单集页面"
	case StageAverage:
		return "计算平均分"
	default:
		return "处理"
	}
}
