package imdb

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// 季导航里的链接都带有 ref_ 跟踪参数，形如：
//
//	/title/tt2297757/episodes?season=4&ref_=tt_eps_sn_4    第 4 季
//	/title/tt2297757/episodes?season=-1&ref_=tt_eps_sn_-1  未知季/特别篇
//	/title/tt2297757/episodes?ref_=tt_eps_sn_mr            “See all”（季太多时）
//	/title/tt2297757/episodes?year=2017&ref_=tt_eps_yr_2017 按年份（忽略）
//
// 倒数第二个 token 为 "sn" 即为季链接；最后一个 token 是季号或溢出标记。

const (
	seasonMarker   = "sn"
	unknownSeasonN = "-1"
)

func refTokens(href string) []string {
	ref := href
	if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
		if v := u.Query().Get("ref_"); v != "" {
			ref = v
		}
	}
	return strings.Split(ref, "_")
}

func lastRefToken(href string) string {
	toks := refTokens(href)
	return toks[len(toks)-1]
}

// isSeasonLink 判断导航链接是否指向某一季（含未知季与 “See all”）。
func isSeasonLink(href string) bool {
	toks := refTokens(href)
	return len(toks) >= 2 && toks[len(toks)-2] == seasonMarker
}

// isSeasonOverflowLink 判断是否为 “See all” 链接：最后一个 token 不是季号。
func isSeasonOverflowLink(href string) bool {
	last := lastRefToken(href)
	if last == unknownSeasonN {
		return false
	}
	_, err := strconv.Atoi(last)
	return err != nil
}

// isUnknownSeasonLink 判断是否为未知季（季号 -1）。
func isUnknownSeasonLink(href string) bool {
	if lastRefToken(href) == unknownSeasonN {
		return true
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return u.Query().Get("season") == unknownSeasonN
}

// seasonNumber 解析季链接上的季号：优先 ref_ 末尾 token，其次 season 参数。
func seasonNumber(href string) (int, error) {
	if n, err := strconv.Atoi(lastRefToken(href)); err == nil && n > 0 {
		return n, nil
	}
	if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
		if n, err := strconv.Atoi(u.Query().Get("season")); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("无法从链接中解析季号：%s", href)
}

// titleID 返回链接路径中 /title/<id>/ 的 id。
func titleID(href string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "title" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("无法从链接中解析剧集 id：%s", href)
}

// seasonURL 拼出某一季的剧集列表页。
func seasonURL(base, id string, n int) string {
	return fmt.Sprintf("%s/title/%s/episodes?season=%d", base, url.PathEscape(id), n)
}

// overflowSeasonURLs 在出现 “See all” 时，用第一个季链接上的最大季号与剧集 id
// 合成 max..1 的季页 URL（降序，与导航顺序一致）。
func overflowSeasonURLs(base, first string) ([]string, error) {
	maxN, err := seasonNumber(first)
	if err != nil {
		return nil, err
	}
	id, err := titleID(first)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, maxN)
	for n := maxN; n >= 1; n-- {
		out = append(out, seasonURL(base, id, n))
	}
	return out, nil
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

// searchURL 构造搜索页 URL（空格编码为 '+'）。
func searchURL(base, name string) string {
	return base + "/find?q=" + url.QueryEscape(strings.TrimSpace(name))
}
