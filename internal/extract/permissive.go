package extract

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// permissiveBackend 使用 goquery；非 UTF-8 页面先按 meta/BOM 嗅探编码再解码。
type permissiveBackend struct{}

func (permissiveBackend) Name() string { return BackendPermissive }

func (permissiveBackend) Select(raw []byte, sel Selector) ([]Node, error) {
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		cr, err := charset.NewReader(r, "text/html")
		if err != nil {
			return nil, err
		}
		r = cr
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []Node
	doc.Find(sel.CSS()).Each(func(_ int, s *goquery.Selection) {
		n := Node{Text: normSpace(s.Text())}
		if len(s.Nodes) > 0 {
			n.Attrs = attrMap(s.Nodes[0].Attr)
		}
		out = append(out, n)
	})
	return out, nil
}
