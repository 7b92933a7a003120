package domain

import (
	"errors"
	"math"
	"testing"
)

func TestSeriesRatings_FillCountsOnlyRated(t *testing.T) {
	sr := NewSeriesRatings("example show")
	err := sr.Fill("Example Show", NewRating(8.5), map[int]SeasonRatings{
		1: NewSeasonRatings([]Rating{NewRating(8.0), NewRating(9.0)}),
		2: NewSeasonRatings([]Rating{Unrated}),
	}, 0)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !sr.Resolved() {
		t.Fatalf("Fill 之后应为已解析")
	}
	if sr.EpisodeCount != 2 {
		t.Fatalf("期望 EpisodeCount=2，实际 %d", sr.EpisodeCount)
	}

	mean, err := sr.Mean()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if math.Abs(mean-8.5) > 1e-9 {
		t.Fatalf("期望 mean=8.5，实际 %v", mean)
	}
	diff, err := sr.Difference()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if math.Abs(diff) > 1e-9 {
		t.Fatalf("期望 diff=0，实际 %v", diff)
	}
}

func TestSeriesRatings_FillTwiceRejected(t *testing.T) {
	sr := NewSeriesRatings("x")
	if err := sr.Fill("X", NewRating(7), map[int]SeasonRatings{1: NewSeasonRatings([]Rating{NewRating(7)})}, 0); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	err := sr.Fill("Y", NewRating(1), nil, 0)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("期望 ErrAlreadyResolved，实际：%v", err)
	}
	if sr.Title != "X" {
		t.Fatalf("重复 Fill 不应修改已有结果：title=%q", sr.Title)
	}
}

func TestSeriesRatings_MeanAllUnrated(t *testing.T) {
	sr := NewSeriesRatings("x")
	_ = sr.Fill("X", NewRating(7), map[int]SeasonRatings{
		1: NewSeasonRatings([]Rating{Unrated, Unrated}),
	}, 0)

	_, err := sr.Mean()
	if KindOf(err) != KindAverage {
		t.Fatalf("期望 KindAverage，实际：%v", err)
	}
}

func TestSeriesRatings_MeanCached(t *testing.T) {
	sr := NewSeriesRatings("x")
	_ = sr.Fill("X", NewRating(7), map[int]SeasonRatings{
		1: NewSeasonRatings([]Rating{NewRating(6), NewRating(8)}),
	}, 0)

	m1, _ := sr.Mean()
	// 结果只读；即便外部误改数据，缓存的均值也不应变化。
	sr.Seasons[1].Episodes[0] = NewRating(10)
	m2, _ := sr.Mean()
	if m1 != m2 || m1 != 7 {
		t.Fatalf("均值应在首次计算后缓存：m1=%v m2=%v", m1, m2)
	}
}

func TestSeriesRatings_SeasonIndexesSentinelFirst(t *testing.T) {
	sr := NewSeriesRatings("x")
	_ = sr.Fill("X", NewRating(7), map[int]SeasonRatings{
		3:             NewSeasonRatings([]Rating{NewRating(7)}),
		UnknownSeason: NewSeasonRatings([]Rating{NewRating(7)}),
		2:             NewSeasonRatings([]Rating{NewRating(7)}),
	}, 1)

	got := sr.SeasonIndexes()
	want := []int{UnknownSeason, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望 %v，实际 %v", want, got)
		}
	}
	if !sr.HasUnknownSeason() {
		t.Fatalf("期望存在未知季")
	}
}

func TestSeasonRatings_Indexes(t *testing.T) {
	s := NewSeasonRatings([]Rating{NewRating(1), Unrated, NewRating(3)})
	idx := s.Indexes()
	if len(idx) != 3 || idx[0] != 1 || idx[2] != 3 {
		t.Fatalf("集号应为 1..3，实际 %v", idx)
	}
	if r, ok := s.Rating(2); !ok || r.Rated() {
		t.Fatalf("第 2 集应为 N/A：%v %v", r, ok)
	}
	if _, ok := s.Rating(4); ok {
		t.Fatalf("越界集号应返回 ok=false")
	}
	if s.RatedCount() != 2 {
		t.Fatalf("期望 RatedCount=2，实际 %d", s.RatedCount())
	}
}
