package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Match 描述对单个元素的匹配条件（标签 + 可选 class + 可选属性）。
// 三个 backend 共用同一份描述，保证抽取语义一致。
type Match struct {
	Tag   string
	Class string
	Attr  string
	Value string // Attr 非空时：Value 为空表示只要求属性存在
}

// Selector = 可选的容器 + 目标元素（目标必须位于容器内部）。
type Selector struct {
	Name   string
	Within *Match
	Target Match
}

var (
	// SearchResult 是搜索结果行里的链接（取第一个）。
	SearchResult = Selector{
		Name:   "search-result",
		Within: &Match{Tag: "td", Class: "result_text"},
		Target: Match{Tag: "a"},
	}
	// OfficialRating 同时用于剧集主页与单集页面的评分元素。
	OfficialRating = Selector{
		Name:   "rating",
		Target: Match{Tag: "span", Attr: "itemprop", Value: "ratingValue"},
	}
	// SeasonNav 是主页上“季/年份”导航块里的所有链接。
	SeasonNav = Selector{
		Name:   "season-nav",
		Within: &Match{Tag: "div", Class: "seasons-and-year-nav"},
		Target: Match{Tag: "a"},
	}
	// EpisodeLinks 是季页面上指向单集的链接。
	EpisodeLinks = Selector{
		Name:   "episode-links",
		Target: Match{Tag: "a", Attr: "itemprop", Value: "name"},
	}
)

// CSS 返回等价的 CSS 选择器（供 goquery/cascadia 使用）。
func (s Selector) CSS() string {
	if s.Within == nil {
		return s.Target.css()
	}
	return s.Within.css() + " " + s.Target.css()
}

func (m Match) css() string {
	var b strings.Builder
	b.WriteString(m.Tag)
	if m.Class != "" {
		b.WriteString(".")
		b.WriteString(m.Class)
	}
	if m.Attr != "" {
		b.WriteString("[")
		b.WriteString(m.Attr)
		if m.Value != "" {
			b.WriteString("='")
			b.WriteString(m.Value)
			b.WriteString("'")
		}
		b.WriteString("]")
	}
	return b.String()
}

// matches 供不依赖选择器引擎的 backend 使用；语义必须与 css() 一致。
func (m Match) matches(tag string, attrs []html.Attribute) bool {
	if !strings.EqualFold(tag, m.Tag) {
		return false
	}
	if m.Class != "" {
		v, ok := attrValue(attrs, "class")
		if !ok || !hasClass(v, m.Class) {
			return false
		}
	}
	if m.Attr != "" {
		v, ok := attrValue(attrs, m.Attr)
		if !ok {
			return false
		}
		if m.Value != "" && v != m.Value {
			return false
		}
	}
	return true
}

func attrValue(attrs []html.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(classAttr, want string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == want {
			return true
		}
	}
	return false
}

// attrMap 把属性列表转为 map；同名属性保留第一个（与 goquery Attr 行为一致）。
func attrMap(attrs []html.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Namespace != "" {
			continue
		}
		k := strings.ToLower(a.Key)
		if _, ok := m[k]; ok {
			continue
		}
		m[k] = a.Val
	}
	return m
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
