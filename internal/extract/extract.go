// Package extract 从原始页面中抽取最小片段（评分、链接列表、标题）。
//
// 解析器有三种可互换的实现（strict / permissive / fallback），由配置选择。
// 对格式良好的 UTF-8 输入，三者的抽取结果必须一致；差异只在容错能力上。
package extract

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/tvrate/internal/domain"
)

const (
	BackendStrict     = "strict"
	BackendPermissive = "permissive"
	BackendFallback   = "fallback"
)

// Node 是抽取到的一个元素：规范化后的文本 + 属性。
type Node struct {
	Text  string
	Attrs map[string]string
}

func (n Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[strings.ToLower(key)]
	return v, ok
}

// Backend 是可插拔的页面解析实现。
//
// 约束：Select 必须是纯函数，返回结果按文档顺序排列。
type Backend interface {
	Name() string
	Select(raw []byte, sel Selector) ([]Node, error)
}

// ParseBackendName 规范化 backend 名称，并兼容常见解析器别名。
func ParseBackendName(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendStrict, "lxml":
		return BackendStrict, nil
	case BackendPermissive, "html5lib":
		return BackendPermissive, nil
	case BackendFallback, "html.parser", "html":
		return BackendFallback, nil
	default:
		return "", fmt.Errorf("parser 只能是 strict|permissive|fallback，实际是 %q", name)
	}
}

func newBackend(name string) (Backend, error) {
	n, err := ParseBackendName(name)
	if err != nil {
		return nil, err
	}
	switch n {
	case BackendPermissive:
		return permissiveBackend{}, nil
	case BackendFallback:
		return fallbackBackend{}, nil
	default:
		return newStrictBackend(), nil
	}
}

// Extractor 在某个 backend 之上提供按领域划分的抽取方法。并发安全。
type Extractor struct {
	backend Backend
}

func New(backend string) (*Extractor, error) {
	b, err := newBackend(backend)
	if err != nil {
		return nil, err
	}
	return &Extractor{backend: b}, nil
}

// NewWithBackend 允许注入自定义 backend（主要用于测试）。
func NewWithBackend(b Backend) *Extractor { return &Extractor{backend: b} }

func (e *Extractor) Backend() string { return e.backend.Name() }

// Find 返回所有匹配元素；没有匹配时返回空切片而不是错误。
func (e *Extractor) Find(raw []byte, sel Selector) ([]Node, error) {
	nodes, err := e.backend.Select(raw, sel)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Msg: fmt.Sprintf("%s 解析页面失败（%s）", e.backend.Name(), sel.Name), Err: err}
	}
	return nodes, nil
}

// Extract 与 Find 相同，但匹配集合为空时返回 Kind=parse 的错误。
func (e *Extractor) Extract(raw []byte, sel Selector) ([]Node, error) {
	nodes, err := e.Find(raw, sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &domain.Error{Kind: domain.KindParse, Msg: fmt.Sprintf("页面中未找到 %s（%s）", sel.Name, sel.CSS())}
	}
	return nodes, nil
}

// SearchResult 返回搜索页第一条结果的标题与链接。
func (e *Extractor) SearchResult(raw []byte) (title, href string, err error) {
	nodes, err := e.Extract(raw, SearchResult)
	if err != nil {
		return "", "", err
	}
	first := nodes[0]
	href, _ = first.Attr("href")
	if strings.TrimSpace(href) == "" {
		return "", "", &domain.Error{Kind: domain.KindParse, Msg: "第一条搜索结果缺少链接"}
	}
	return first.Text, strings.TrimSpace(href), nil
}

// OfficialRating 返回剧集主页上的官方评分（必须存在）。
func (e *Extractor) OfficialRating(raw []byte) (domain.Rating, error) {
	nodes, err := e.Extract(raw, OfficialRating)
	if err != nil {
		return domain.Rating{}, err
	}
	r, err := domain.ParseRating(nodes[0].Text)
	if err != nil {
		return domain.Rating{}, &domain.Error{Kind: domain.KindParse, Msg: "官方评分格式不正确", Err: err}
	}
	return r, nil
}

// SeasonLinks 返回季导航块中所有带 href 的链接（页面顺序，未过滤）。
func (e *Extractor) SeasonLinks(raw []byte) ([]string, error) {
	nodes, err := e.Extract(raw, SeasonNav)
	if err != nil {
		return nil, err
	}
	return hrefs(nodes), nil
}

// EpisodeLinks 返回季页面中所有单集链接（页面顺序）；没有时返回空切片。
func (e *Extractor) EpisodeLinks(raw []byte) ([]string, error) {
	nodes, err := e.Find(raw, EpisodeLinks)
	if err != nil {
		return nil, err
	}
	return hrefs(nodes), nil
}

// EpisodeRating 返回单集评分；页面上没有评分元素时返回 domain.Unrated。
func (e *Extractor) EpisodeRating(raw []byte) (domain.Rating, error) {
	nodes, err := e.Find(raw, OfficialRating)
	if err != nil {
		return domain.Rating{}, err
	}
	if len(nodes) == 0 {
		return domain.Unrated, nil
	}
	r, err := domain.ParseRating(nodes[0].Text)
	if err != nil {
		return domain.Rating{}, &domain.Error{Kind: domain.KindParse, Msg: "单集评分格式不正确", Err: err}
	}
	return r, nil
}

func hrefs(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		h, ok := n.Attr("href")
		if !ok || strings.TrimSpace(h) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(h))
	}
	return out
}
