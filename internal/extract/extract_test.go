package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/tvrate/internal/domain"
)

const searchHTML = `<!DOCTYPE html>
<html><head><title>Find - IMDb</title></head><body>
<div class="findSection">
<table class="findList">
  <tr class="findResult odd">
    <td class="primary_photo"><a href="/title/tt2297757/?ref_=fn_al_tt_1"><img src="x.jpg"/></a></td>
    <td class="result_text"> <a href="/title/tt2297757/?ref_=fn_al_tt_1">Nathan for You</a> (2013) (TV Series) </td>
  </tr>
  <tr class="findResult even">
    <td class="result_text"> <a href="/title/tt0000002/?ref_=fn_al_tt_2">Nathan &amp; Friends</a> (1999) </td>
  </tr>
</table>
</div>
</body></html>`

const seriesHTML = `<!DOCTYPE html>
<html><body>
<div class="ratingValue"><strong><span itemprop="ratingValue">8.9</span></strong></div>
<div class="seasons-and-year-nav">
  <div><h4>Seasons</h4>
    <a href="/title/tt2297757/episodes?season=4&amp;ref_=tt_eps_sn_4">4</a>
    <a href="/title/tt2297757/episodes?season=3&amp;ref_=tt_eps_sn_3">3</a>
    <a>no link</a>
    <a href="/title/tt2297757/episodes?season=2&amp;ref_=tt_eps_sn_2">2</a>
  </div>
  <div><h4>Years</h4>
    <a href="/title/tt2297757/episodes?year=2017&amp;ref_=tt_eps_yr_2017">2017</a>
  </div>
</div>
<a href="/elsewhere">outside nav</a>
</body></html>`

const seasonHTML = `<!DOCTYPE html>
<html><body>
<div class="list detail eplist">
  <div class="list_item odd"><div class="info">
    <strong><a href="/title/tt1/?ref_=ttep_ep1" title="Ep One" itemprop="name">Ep One</a></strong>
  </div></div>
  <div class="list_item even"><div class="info">
    <strong><a href="/title/tt2/?ref_=ttep_ep2" title="Ep Two" itemprop="name">Ep <em>Two</em></a></strong>
  </div></div>
  <div class="list_item odd"><div class="info">
    <strong><a itemprop="name">Ep Three (no link)</a></strong>
  </div></div>
</div>
</body></html>`

const episodeHTML = `<!DOCTYPE html>
<html><body><div class="ratings_wrapper">
<span itemprop="ratingValue"> 8.1 </span>/<span class="grey">10</span>
</div></body></html>`

const unratedEpisodeHTML = `<!DOCTYPE html>
<html><body><div class="ratings_wrapper"><span class="grey">no rating yet</span></div></body></html>`

var allBackends = []string{BackendStrict, BackendPermissive, BackendFallback}

func TestBackends_AgreeOnWellFormedInput(t *testing.T) {
	for _, name := range allBackends {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			e, err := New(name)
			require.NoError(err)
			require.Equal(name, e.Backend())

			title, href, err := e.SearchResult([]byte(searchHTML))
			require.NoError(err)
			require.Equal("Nathan for You", title)
			require.Equal("/title/tt2297757/?ref_=fn_al_tt_1", href)

			official, err := e.OfficialRating([]byte(seriesHTML))
			require.NoError(err)
			require.Equal("8.9", official.String())

			links, err := e.SeasonLinks([]byte(seriesHTML))
			require.NoError(err)
			require.Equal([]string{
				"/title/tt2297757/episodes?season=4&ref_=tt_eps_sn_4",
				"/title/tt2297757/episodes?season=3&ref_=tt_eps_sn_3",
				"/title/tt2297757/episodes?season=2&ref_=tt_eps_sn_2",
				"/title/tt2297757/episodes?year=2017&ref_=tt_eps_yr_2017",
			}, links)

			eps, err := e.EpisodeLinks([]byte(seasonHTML))
			require.NoError(err)
			require.Equal([]string{"/title/tt1/?ref_=ttep_ep1", "/title/tt2/?ref_=ttep_ep2"}, eps)

			nodes, err := e.Extract([]byte(seasonHTML), EpisodeLinks)
			require.NoError(err)
			require.Len(nodes, 3)
			require.Equal("Ep Two", nodes[1].Text)

			r, err := e.EpisodeRating([]byte(episodeHTML))
			require.NoError(err)
			require.True(r.Rated())
			require.Equal("8.1", r.String())

			r, err = e.EpisodeRating([]byte(unratedEpisodeHTML))
			require.NoError(err)
			require.False(r.Rated())
		})
	}
}

func TestExtract_EmptySetIsParseError(t *testing.T) {
	for _, name := range allBackends {
		t.Run(name, func(t *testing.T) {
			e, err := New(name)
			require.NoError(t, err)

			_, _, err = e.SearchResult([]byte("<html><body><p>No results found.</p></body></html>"))
			require.Equal(t, domain.KindParse, domain.KindOf(err))

			_, err = e.OfficialRating([]byte(unratedEpisodeHTML))
			require.Equal(t, domain.KindParse, domain.KindOf(err))

			_, err = e.SeasonLinks([]byte(episodeHTML))
			require.Equal(t, domain.KindParse, domain.KindOf(err))

			eps, err := e.EpisodeLinks([]byte(episodeHTML))
			require.NoError(t, err)
			require.Empty(t, eps)
		})
	}
}

func TestExtract_BadRatingIsParseError(t *testing.T) {
	e, err := New(BackendPermissive)
	require.NoError(t, err)

	_, err = e.EpisodeRating([]byte(`<html><body><span itemprop="ratingValue">great</span></body></html>`))
	require.Equal(t, domain.KindParse, domain.KindOf(err))
}

func TestStrict_RejectsInvalidUTF8(t *testing.T) {
	raw := []byte("<html><body><span itemprop=\"ratingValue\">7.5</span>\xff\xfe</body></html>")

	strict, err := New(BackendStrict)
	require.NoError(t, err)
	_, err = strict.EpisodeRating(raw)
	require.Equal(t, domain.KindParse, domain.KindOf(err))

	// permissive 会先嗅探编码再解析，仍能取到评分。
	perm, err := New(BackendPermissive)
	require.NoError(t, err)
	r, err := perm.EpisodeRating(raw)
	require.NoError(t, err)
	require.Equal(t, "7.5", r.String())
}

func TestParseBackendName_Aliases(t *testing.T) {
	cases := map[string]string{
		"":            BackendStrict,
		"lxml":        BackendStrict,
		"STRICT":      BackendStrict,
		"html5lib":    BackendPermissive,
		"permissive":  BackendPermissive,
		"html.parser": BackendFallback,
		" fallback ":  BackendFallback,
	}
	for in, want := range cases {
		got, err := ParseBackendName(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseBackendName("regex")
	require.Error(t, err)
}

func TestSelector_CSS(t *testing.T) {
	require.Equal(t, "td.result_text a", SearchResult.CSS())
	require.Equal(t, "span[itemprop='ratingValue']", OfficialRating.CSS())
	require.Equal(t, "div.seasons-and-year-nav a", SeasonNav.CSS())
	require.Equal(t, "a[itemprop='name']", EpisodeLinks.CSS())
}
