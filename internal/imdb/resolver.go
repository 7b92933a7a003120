// Package imdb 实现“搜索 -> 剧集主页 -> 季页面 -> 单集页面”的评分解析流水线。
//
// 约束：
//   - 每一层 fan-out（剧集->季、季->单集）各自创建并等待自己的 worker 组
//   - 任一季或任一集失败，整个剧集解析失败；不产出部分结果
//   - 集数统计在 worker 全部返回后归约，不在并发抓取中累加
//   - 不做缓存与重试
package imdb

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/tvrate/internal/domain"
	"github.com/John-Robertt/tvrate/internal/extract"
	"github.com/John-Robertt/tvrate/internal/fanout"
	"github.com/John-Robertt/tvrate/internal/infra/httpx"
)

const DefaultBaseURL = "https://www.imdb.com"

// EpisodeResult 是单集解析结果。Counted 表示该集是否计入平均分的分母。
type EpisodeResult struct {
	URL     string
	Rating  domain.Rating
	Counted bool
}

// SeasonResult 是单季解析结果。Rated 是该季有数值评分的集数。
type SeasonResult struct {
	URL     string
	Ratings domain.SeasonRatings
	Rated   int
}

// Resolver 持有一次或多次解析共用的只读依赖；本身不保存任何解析状态，可并发使用。
type Resolver struct {
	// BaseURL 为空时使用 DefaultBaseURL（测试中指向 httptest server）。
	BaseURL   string
	HTTP      *http.Client
	Extractor *extract.Extractor

	// Threads 是每个 fan-out 步骤的并发上限；<1 视为 1（串行）。
	Threads int

	Log      zerolog.Logger
	Observer Observer
}

func (r *Resolver) baseURL() string {
	u := strings.TrimSpace(r.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

func (r *Resolver) threads() int {
	if r.Threads < 1 {
		return 1
	}
	return r.Threads
}

// ResolveSeries 解析一部剧集，返回已填充的 SeriesRatings。
func (r *Resolver) ResolveSeries(ctx context.Context, name string) (*domain.SeriesRatings, error) {
	sr := domain.NewSeriesRatings(name)
	if err := r.Fill(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

// Fill 解析 sr.Query 并一次性填充 sr。只有全部季与单集都成功时才会写入。
func (r *Resolver) Fill(ctx context.Context, sr *domain.SeriesRatings) error {
	if sr == nil {
		return errors.New("series ratings 不能为空")
	}
	if sr.Resolved() {
		return domain.ErrAlreadyResolved
	}
	if err := r.check(); err != nil {
		return err
	}
	name := strings.TrimSpace(sr.Query)
	if name == "" {
		return &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSearch, Msg: "剧集名称不能为空"}
	}

	log := r.Log.With().Str("request_id", uuid.NewString()).Str("series", name).Logger()
	ctx = log.WithContext(ctx)
	started := time.Now()
	base := r.baseURL()

	su := searchURL(base, name)
	raw, err := r.fetch(ctx, domain.StageSearch, su)
	if err != nil {
		return err
	}
	title, href, err := r.Extractor.SearchResult(raw)
	if err != nil {
		return &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSearch, URL: su, Msg: "未找到剧集", Err: err}
	}

	pageURL := resolveURL(base+"/", href)
	raw, err = r.fetch(ctx, domain.StageSeriesPage, pageURL)
	if err != nil {
		return err
	}
	official, err := r.Extractor.OfficialRating(raw)
	if err != nil {
		return &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSeriesPage, URL: pageURL, Msg: "剧集主页缺少官方评分", Err: err}
	}
	nav, err := r.Extractor.SeasonLinks(raw)
	if err != nil {
		return &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSeriesPage, URL: pageURL, Msg: "剧集主页缺少季导航", Err: err}
	}

	urls, err := seasonURLs(base, nav)
	if err != nil {
		return &domain.Error{Kind: domain.KindSeries, Stage: domain.StageSeriesPage, URL: pageURL, Msg: "不是剧集，或没有任何季", Err: err}
	}

	log.Debug().Str("title", title).Int("seasons", len(urls)).Msg("季链接已确定")
	if r.Observer != nil {
		r.Observer.OnSeriesFound(name, title, len(urls))
	}

	results, err := fanout.Map(ctx, r.threads(), urls, func(ctx context.Context, _ int, u string) (SeasonResult, error) {
		return r.ResolveSeason(ctx, u)
	})
	if err != nil {
		return err
	}

	seasons, unknownSlot := reindexSeasons(urls, results)
	if err := sr.Fill(title, official, seasons, unknownSlot); err != nil {
		return err
	}

	rated := 0
	for _, res := range results {
		rated += res.Rated
	}
	log.Info().
		Str("title", title).
		Int("seasons", len(seasons)).
		Int("rated_episodes", rated).
		Dur("elapsed", time.Since(started)).
		Msg("剧集解析完成")
	return nil
}

// seasonURLs 从季导航链接中筛出季链接，并在出现 “See all” 时改为合成 URL。
// 返回顺序与导航一致（通常是最新一季在前）。
func seasonURLs(base string, nav []string) ([]string, error) {
	var links []string
	for _, h := range nav {
		if isSeasonLink(h) {
			links = append(links, h)
		}
	}
	if len(links) == 0 {
		return nil, errors.New("季导航中没有季链接")
	}
	if isSeasonOverflowLink(links[len(links)-1]) {
		return overflowSeasonURLs(base, links[0])
	}
	out := make([]string, 0, len(links))
	for _, h := range links {
		out = append(out, resolveURL(base+"/", h))
	}
	return out, nil
}

// reindexSeasons 把按输入顺序收集的季结果反转并重编号为 1..N；
// 若某季链接是未知季，则把它移到 UnknownSeason，其余季号不变。
func reindexSeasons(urls []string, results []SeasonResult) (map[int]domain.SeasonRatings, int) {
	n := len(results)
	seasons := make(map[int]domain.SeasonRatings, n)
	unknownSlot := 0
	for j := 0; j < n; j++ {
		src := n - 1 - j
		seasons[j+1] = results[src].Ratings
		if unknownSlot == 0 && isUnknownSeasonLink(urls[src]) {
			unknownSlot = j + 1
		}
	}
	if unknownSlot != 0 {
		seasons[domain.UnknownSeason] = seasons[unknownSlot]
		delete(seasons, unknownSlot)
	}
	return seasons, unknownSlot
}

// ResolveSeason 解析一季：抓取季页面，按页面顺序取出单集链接并并发解析。
// 任一单集失败即整体失败（单集错误原样返回）。
func (r *Resolver) ResolveSeason(ctx context.Context, u string) (SeasonResult, error) {
	if err := r.check(); err != nil {
		return SeasonResult{}, err
	}
	started := time.Now()

	raw, err := r.fetch(ctx, domain.StageSeasonPage, u)
	if err != nil {
		return SeasonResult{}, &domain.Error{Kind: domain.KindSeason, Stage: domain.StageSeasonPage, URL: u, Msg: "抓取季页面失败", Err: err}
	}
	hrefs, err := r.Extractor.EpisodeLinks(raw)
	if err != nil {
		return SeasonResult{}, &domain.Error{Kind: domain.KindSeason, Stage: domain.StageSeasonPage, URL: u, Msg: "解析季页面失败", Err: err}
	}
	if len(hrefs) == 0 {
		return SeasonResult{}, &domain.Error{Kind: domain.KindSeason, Stage: domain.StageSeasonPage, URL: u, Msg: "季页面中没有任何剧集链接"}
	}

	base := r.baseURL() + "/"
	eps := make([]string, len(hrefs))
	for i, h := range hrefs {
		eps[i] = resolveURL(base, h)
	}

	res, err := fanout.Map(ctx, r.threads(), eps, func(ctx context.Context, _ int, eu string) (EpisodeResult, error) {
		return r.ResolveEpisode(ctx, eu)
	})
	if err != nil {
		return SeasonResult{}, err
	}

	ratings := make([]domain.Rating, len(res))
	rated := 0
	for i, e := range res {
		ratings[i] = e.Rating
		if e.Counted {
			rated++
		}
	}

	dur := time.Since(started)
	zerolog.Ctx(ctx).Debug().Str("url", u).Int("episodes", len(ratings)).Int("rated", rated).Dur("elapsed", dur).Msg("季解析完成")
	if r.Observer != nil {
		r.Observer.OnSeasonDone(u, len(ratings), rated, dur)
	}
	return SeasonResult{URL: u, Ratings: domain.NewSeasonRatings(ratings), Rated: rated}, nil
}

// ResolveEpisode 解析单集评分。页面上没有评分元素时返回 Unrated 且 Counted=false。
func (r *Resolver) ResolveEpisode(ctx context.Context, u string) (EpisodeResult, error) {
	if err := r.check(); err != nil {
		return EpisodeResult{}, err
	}
	started := time.Now()

	raw, err := r.fetch(ctx, domain.StageEpisodePage, u)
	if err != nil {
		return EpisodeResult{}, &domain.Error{Kind: domain.KindEpisode, Stage: domain.StageEpisodePage, URL: u, Msg: "抓取单集页面失败", Err: err}
	}
	rating, err := r.Extractor.EpisodeRating(raw)
	if err != nil {
		return EpisodeResult{}, &domain.Error{Kind: domain.KindEpisode, Stage: domain.StageEpisodePage, URL: u, Msg: "解析单集页面失败", Err: err}
	}

	if r.Observer != nil {
		r.Observer.OnEpisodeDone(u, rating, time.Since(started))
	}
	return EpisodeResult{URL: u, Rating: rating, Counted: rating.Rated()}, nil
}

func (r *Resolver) check() error {
	if r.HTTP == nil {
		return errors.New("http client 不能为空")
	}
	if r.Extractor == nil {
		return errors.New("extractor 不能为空")
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context, stage domain.Stage, u string) ([]byte, error) {
	started := time.Now()
	b, err := httpx.Fetch(ctx, r.HTTP, stage, u)
	ev := zerolog.Ctx(ctx).Debug()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("stage", string(stage)).Str("url", u).Int("bytes", len(b)).Dur("elapsed", time.Since(started)).Msg("fetch")
	return b, err
}
