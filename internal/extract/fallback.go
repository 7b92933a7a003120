package extract

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// fallbackBackend 是纯流式实现：只用 tokenizer，不建树、不依赖选择器引擎。
// 对缺少闭合标签的页面容错较弱，但内存占用与页面大小无关。
type fallbackBackend struct{}

func (fallbackBackend) Name() string { return BackendFallback }

type openElem struct {
	tag    string
	within bool
}

type capture struct {
	depth int // 目标元素在栈中的深度（1-based）
	slot  int // 在输出中的位置（按开始标签顺序）
	text  strings.Builder
}

func (fallbackBackend) Select(raw []byte, sel Selector) ([]Node, error) {
	z := html.NewTokenizer(bytes.NewReader(raw))

	var (
		stack       []openElem
		withinDepth int
		active      []*capture
		out         []Node
	)

	// closeTo 弹出栈中 [i, len) 的元素，并结束深度大于 i 的捕获。
	closeTo := func(i int) {
		for j := len(stack) - 1; j >= i; j-- {
			if stack[j].within {
				withinDepth--
			}
		}
		stack = stack[:i]

		kept := active[:0]
		for _, c := range active {
			if c.depth > i {
				out[c.slot].Text = normSpace(c.text.String())
				continue
			}
			kept = append(kept, c)
		}
		active = kept
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				closeTo(0)
				return out, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			tag := strings.ToLower(tok.Data)

			inScope := sel.Within == nil || withinDepth > 0
			isTarget := inScope && sel.Target.matches(tag, tok.Attr)
			if isTarget {
				out = append(out, Node{Attrs: attrMap(tok.Attr)})
			}

			if tt == html.SelfClosingTagToken || isVoidElement(tag) {
				continue
			}

			isContainer := sel.Within != nil && sel.Within.matches(tag, tok.Attr)
			stack = append(stack, openElem{tag: tag, within: isContainer})
			if isContainer {
				withinDepth++
			}
			if isTarget {
				active = append(active, &capture{depth: len(stack), slot: len(out) - 1})
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == tag {
					closeTo(i)
					break
				}
			}

		case html.TextToken:
			if len(active) == 0 {
				continue
			}
			text := z.Text()
			for _, c := range active {
				c.text.Write(text)
			}
		}
	}
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
