package extract

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// strictBackend 先构建完整 DOM，再用预编译的 cascadia 选择器匹配。
// 只接受合法 UTF-8 输入（编码有误直接视为 parse 失败）。
type strictBackend struct {
	mu       sync.Mutex
	compiled map[string]cascadia.Selector
}

func newStrictBackend() *strictBackend {
	return &strictBackend{compiled: make(map[string]cascadia.Selector, 4)}
}

func (*strictBackend) Name() string { return BackendStrict }

func (b *strictBackend) Select(raw []byte, sel Selector) ([]Node, error) {
	if !utf8.Valid(raw) {
		return nil, errors.New("页面不是合法的 UTF-8")
	}
	cs, err := b.compile(sel.CSS())
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	matched := cs.MatchAll(root)
	out := make([]Node, 0, len(matched))
	for _, n := range matched {
		out = append(out, Node{Text: normSpace(nodeText(n)), Attrs: attrMap(n.Attr)})
	}
	return out, nil
}

func (b *strictBackend) compile(css string) (cascadia.Selector, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.compiled[css]; ok {
		return s, nil
	}
	s, err := cascadia.Compile(css)
	if err != nil {
		return nil, err
	}
	b.compiled[css] = s
	return s, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
