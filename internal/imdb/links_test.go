package imdb

import (
	"testing"

	"github.com/John-Robertt/tvrate/internal/domain"
)

func TestSeasonLinkPredicates(t *testing.T) {
	cases := []struct {
		href             string
		season, overflow bool
		unknown          bool
	}{
		{"/title/tt1/episodes?season=4&ref_=tt_eps_sn_4", true, false, false},
		{"/title/tt1/episodes?season=12&ref_=tt_eps_sn_12", true, false, false},
		{"/title/tt1/episodes?season=-1&ref_=tt_eps_sn_-1", true, false, true},
		{"/title/tt1/episodes?ref_=tt_eps_sn_mr", true, true, false},
		{"/title/tt1/episodes?year=2017&ref_=tt_eps_yr_2017", false, false, false},
		{"/title/tt1/episodes?season=3", false, false, false},
		{"http://imdb.com/title/tt1/episodes?season=2&ref_=tt_eps_sn_2", true, false, false},
	}
	for _, c := range cases {
		if got := isSeasonLink(c.href); got != c.season {
			t.Fatalf("isSeasonLink(%q)=%v，期望 %v", c.href, got, c.season)
		}
		if !c.season {
			continue
		}
		if got := isSeasonOverflowLink(c.href); got != c.overflow {
			t.Fatalf("isSeasonOverflowLink(%q)=%v，期望 %v", c.href, got, c.overflow)
		}
		if got := isUnknownSeasonLink(c.href); got != c.unknown {
			t.Fatalf("isUnknownSeasonLink(%q)=%v，期望 %v", c.href, got, c.unknown)
		}
	}
}

func TestOverflowSeasonURLs(t *testing.T) {
	got, err := overflowSeasonURLs("https://www.imdb.com", "/title/tt0903747/episodes?season=5&ref_=tt_eps_sn_5")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []string{
		"https://www.imdb.com/title/tt0903747/episodes?season=5",
		"https://www.imdb.com/title/tt0903747/episodes?season=4",
		"https://www.imdb.com/title/tt0903747/episodes?season=3",
		"https://www.imdb.com/title/tt0903747/episodes?season=2",
		"https://www.imdb.com/title/tt0903747/episodes?season=1",
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个 URL，实际 %d：%v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 个 URL 不匹配：got=%q want=%q", i, got[i], want[i])
		}
	}

	if _, err := overflowSeasonURLs("https://www.imdb.com", "/title/tt1/episodes?ref_=tt_eps_sn_mr"); err == nil {
		t.Fatalf("期望无法解析季号时报错")
	}
}

func TestReindexSeasons_ReverseThenNumber(t *testing.T) {
	urls := []string{
		"/title/tt1/episodes?season=5",
		"/title/tt1/episodes?season=4",
		"/title/tt1/episodes?season=3",
		"/title/tt1/episodes?season=2",
		"/title/tt1/episodes?season=1",
	}
	results := make([]SeasonResult, len(urls))
	for i := range urls {
		n := 5 - i
		results[i] = SeasonResult{Ratings: domain.NewSeasonRatings(make([]domain.Rating, n))}
	}

	seasons, unknown := reindexSeasons(urls, results)
	if unknown != 0 {
		t.Fatalf("不期望未知季：%d", unknown)
	}
	for n := 1; n <= 5; n++ {
		if seasons[n].Len() != n {
			t.Fatalf("季 %d 期望 %d 集，实际 %d", n, n, seasons[n].Len())
		}
	}
}

func TestReindexSeasons_UnknownInMiddle(t *testing.T) {
	urls := []string{
		"/title/tt1/episodes?season=3&ref_=tt_eps_sn_3",
		"/title/tt1/episodes?season=-1&ref_=tt_eps_sn_-1",
		"/title/tt1/episodes?season=1&ref_=tt_eps_sn_1",
	}
	results := []SeasonResult{
		{Ratings: domain.NewSeasonRatings(make([]domain.Rating, 3))},
		{Ratings: domain.NewSeasonRatings(make([]domain.Rating, 7))},
		{Ratings: domain.NewSeasonRatings(make([]domain.Rating, 1))},
	}

	seasons, unknown := reindexSeasons(urls, results)
	if unknown != 2 {
		t.Fatalf("期望未知季占第 2 槽，实际 %d", unknown)
	}
	if _, ok := seasons[2]; ok {
		t.Fatalf("第 2 槽应被移除")
	}
	if seasons[domain.UnknownSeason].Len() != 7 || seasons[1].Len() != 1 || seasons[3].Len() != 3 {
		t.Fatalf("季映射不正确：%+v", seasons)
	}
}

func TestSearchURL_SpacesBecomePlus(t *testing.T) {
	got := searchURL("https://www.imdb.com", "  nathan for you ")
	if got != "https://www.imdb.com/find?q=nathan+for+you" {
		t.Fatalf("搜索 URL 不正确：%s", got)
	}
}
