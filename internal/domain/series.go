package domain

import (
	"errors"
	"sort"
	"sync"
)

// UnknownSeason 是“未知季/特别篇”的哨兵季号。
const UnknownSeason = -1

// SeasonRatings 是一季内按集序（1-based）排列的评分。
// Episodes[i] 对应第 i+1 集；由一次季解析整体生成，不存在“部分填充”的状态。
type SeasonRatings struct {
	Episodes []Rating
}

func NewSeasonRatings(eps []Rating) SeasonRatings {
	return SeasonRatings{Episodes: append([]Rating(nil), eps...)}
}

func (s SeasonRatings) Len() int { return len(s.Episodes) }

// Rating 按集号（1-based）取评分。
func (s SeasonRatings) Rating(ep int) (Rating, bool) {
	if ep < 1 || ep > len(s.Episodes) {
		return Rating{}, false
	}
	return s.Episodes[ep-1], true
}

// Indexes 返回升序集号 1..Len。
func (s SeasonRatings) Indexes() []int {
	out := make([]int, len(s.Episodes))
	for i := range s.Episodes {
		out[i] = i + 1
	}
	return out
}

// RatedCount 返回有数值评分的集数（不含 N/A）。
func (s SeasonRatings) RatedCount() int {
	n := 0
	for _, r := range s.Episodes {
		if r.Rated() {
			n++
		}
	}
	return n
}

// ErrAlreadyResolved 表示对同一个 SeriesRatings 重复填充。
var ErrAlreadyResolved = errors.New("series ratings 已解析完成，不允许再次填充")

// SeriesRatings 是一次解析请求的完整结果。
//
// 生命周期：
// - NewSeriesRatings 创建空实例（只有 Query）
// - 解析流水线在所有 fan-out 成功后调用一次 Fill
// - 之后只读；重新解析必须新建实例
//
// 均值按需计算并缓存在实例上（Mean）。
type SeriesRatings struct {
	Query string

	Title        string
	Official     Rating
	Seasons      map[int]SeasonRatings
	EpisodeCount int

	// UnknownSlot 是未知季在重排后占用的常规季号（0 表示没有未知季）。
	// 仅用于报告显示时的季号修正，不影响 Seasons 的键。
	UnknownSlot int

	resolved bool

	mu       sync.Mutex
	mean     float64
	meanDone bool
}

func NewSeriesRatings(query string) *SeriesRatings {
	return &SeriesRatings{Query: query}
}

// Fill 一次性写入解析结果。seasons 的所有权转移给 SeriesRatings。
func (s *SeriesRatings) Fill(title string, official Rating, seasons map[int]SeasonRatings, unknownSlot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return ErrAlreadyResolved
	}

	count := 0
	for _, sr := range seasons {
		count += sr.RatedCount()
	}

	s.Title = title
	s.Official = official
	s.Seasons = seasons
	s.UnknownSlot = unknownSlot
	s.EpisodeCount = count
	s.resolved = true
	return nil
}

func (s *SeriesRatings) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// SeasonIndexes 返回升序季号；存在未知季时 -1 排在最前。
func (s *SeriesRatings) SeasonIndexes() []int {
	out := make([]int, 0, len(s.Seasons))
	for k := range s.Seasons {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// HasUnknownSeason 判断是否存在未知季。
func (s *SeriesRatings) HasUnknownSeason() bool {
	_, ok := s.Seasons[UnknownSeason]
	return ok
}

// Mean 返回有数值评分集的平均分（总和 / EpisodeCount），首次计算后缓存。
// EpisodeCount 为 0 时返回 KindAverage 错误，而不是 0 或 NaN。
func (s *SeriesRatings) Mean() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meanDone {
		return s.mean, nil
	}
	if s.EpisodeCount == 0 {
		return 0, &Error{Kind: KindAverage, Stage: StageAverage, Msg: "没有任何有评分的剧集，无法计算平均分"}
	}

	var sum float64
	for _, sr := range s.Seasons {
		for _, r := range sr.Episodes {
			if v, ok := r.Value(); ok {
				sum += v
			}
		}
	}
	s.mean = sum / float64(s.EpisodeCount)
	s.meanDone = true
	return s.mean, nil
}

// Difference 返回 官方评分 - 单集平均分。
func (s *SeriesRatings) Difference() (float64, error) {
	mean, err := s.Mean()
	if err != nil {
		return 0, err
	}
	off, ok := s.Official.Value()
	if !ok {
		return 0, &Error{Kind: KindAverage, Stage: StageAverage, Msg: "缺少官方评分"}
	}
	return off - mean, nil
}
