// Package imdbtest 提供一个内存中的评分站点，用于在测试中替代真实网络。
package imdbtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Show 描述一部剧集在假站点上的全部页面。
//
// Seasons[i] 是第 i+1 季每一集的评分文本；空串表示该集没有评分元素。
type Show struct {
	Query    string // 搜索词（原样，未编码）
	ID       string // 形如 tt0000001
	Title    string
	Official string // 空串表示主页上没有官方评分

	Seasons [][]string
	// Unknown 非 nil 时额外生成一个未知季（season=-1），排在导航最后。
	Unknown []string
	// SeeAll>0 时导航只列出最新的 SeeAll 季，并以 “See all” 链接结尾。
	SeeAll int
}

// Site 是一个按 RequestURI 返回固定 HTML 的 httptest server，并统计请求次数。
type Site struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
	total int
}

func NewSite(shows ...Show) *Site {
	s := &Site{pages: map[string]string{}, hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	for _, sh := range shows {
		s.AddShow(sh)
	}
	return s
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	s.mu.Lock()
	s.total++
	s.hits[key]++
	body, ok := s.pages[key]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

// SetPage 设置（或覆盖）某个 RequestURI 的页面。
func (s *Site) SetPage(requestURI, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[requestURI] = html
}

// Requests 返回累计请求数。
func (s *Site) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Hits 返回某个 RequestURI 的请求数。
func (s *Site) Hits(requestURI string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[requestURI]
}

// SearchURI 返回搜索某个名称时的 RequestURI。
func SearchURI(query string) string {
	return "/find?q=" + url.QueryEscape(strings.TrimSpace(query))
}

// SeriesURI 返回剧集主页的 RequestURI。
func SeriesURI(id string) string { return "/title/" + id + "/?ref_=fn_al_tt_1" }

// SeasonURI 返回第 n 季列表页（导航链接形式）的 RequestURI。
func SeasonURI(id string, n int) string {
	return fmt.Sprintf("/title/%s/episodes?season=%d&ref_=tt_eps_sn_%d", id, n, n)
}

// SyntheticSeasonURI 返回溢出时合成的季页 RequestURI（不带 ref_）。
func SyntheticSeasonURI(id string, n int) string {
	return fmt.Sprintf("/title/%s/episodes?season=%d", id, n)
}

// EpisodeURI 返回某季第 ep 集（1-based）的 RequestURI；season=-1 表示未知季。
func EpisodeURI(id string, season, ep int) string {
	sn := fmt.Sprint(season)
	if season < 0 {
		sn = "u"
	}
	return fmt.Sprintf("/title/%ss%se%d/?ref_=ttep_ep%d", id, sn, ep, ep)
}

// AddShow 生成并注册一部剧集的搜索页、主页、季页与单集页。
func (s *Site) AddShow(sh Show) {
	s.SetPage(SearchURI(sh.Query), SearchPage(sh.Title, SeriesURI(sh.ID)))

	var nav []string
	for n := len(sh.Seasons); n >= 1; n-- {
		nav = append(nav, SeasonURI(sh.ID, n))
	}
	if sh.Unknown != nil {
		nav = append(nav, fmt.Sprintf("/title/%s/episodes?season=-1&ref_=tt_eps_sn_-1", sh.ID))
	}
	if sh.SeeAll > 0 && sh.SeeAll < len(nav) {
		nav = append(nav[:sh.SeeAll:sh.SeeAll], fmt.Sprintf("/title/%s/episodes?ref_=tt_eps_sn_mr", sh.ID))
	}
	s.SetPage(SeriesURI(sh.ID), SeriesPage(sh.Official, nav))

	addSeason := func(season int, uris []string, ratings []string) {
		eps := make([]string, len(ratings))
		for i, r := range ratings {
			eps[i] = EpisodeURI(sh.ID, season, i+1)
			s.SetPage(eps[i], EpisodePage(r))
		}
		for _, u := range uris {
			s.SetPage(u, SeasonPage(eps))
		}
	}
	for i, eps := range sh.Seasons {
		n := i + 1
		addSeason(n, []string{SeasonURI(sh.ID, n), SyntheticSeasonURI(sh.ID, n)}, eps)
	}
	if sh.Unknown != nil {
		addSeason(-1, []string{fmt.Sprintf("/title/%s/episodes?season=-1&ref_=tt_eps_sn_-1", sh.ID)}, sh.Unknown)
	}
}

func SearchPage(title, href string) string {
	return `<!DOCTYPE html><html><body><table class="findList"><tr class="findResult odd">` +
		`<td class="result_text"> <a href="` + html(href) + `">` + html(title) + `</a> (2020) (TV Series) </td>` +
		`</tr></table></body></html>`
}

// EmptySearchPage 是没有任何结果的搜索页。
const EmptySearchPage = `<!DOCTYPE html><html><body><h1 class="findHeader">No results found</h1></body></html>`

func SeriesPage(official string, nav []string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body>`)
	if official != "" {
		b.WriteString(`<div class="ratingValue"><strong><span itemprop="ratingValue">` + html(official) + `</span></strong></div>`)
	}
	b.WriteString(`<div class="seasons-and-year-nav"><div><h4>Season:</h4>`)
	for _, h := range nav {
		b.WriteString(`<a href="` + html(h) + `">s</a> `)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

func SeasonPage(episodeHrefs []string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div class="list detail eplist">`)
	for i, h := range episodeHrefs {
		fmt.Fprintf(&b, `<div class="list_item"><div class="info"><strong><a href="%s" itemprop="name">Episode #%d</a></strong></div></div>`, html(h), i+1)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func EpisodePage(rating string) string {
	if rating == "" {
		return `<!DOCTYPE html><html><body><div class="ratings_wrapper"><span class="grey">Rate this</span></div></body></html>`
	}
	return `<!DOCTYPE html><html><body><div class="ratings_wrapper"><span itemprop="ratingValue">` + html(rating) + `</span>/10</div></body></html>`
}

func html(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
