package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"movie-extractor/internal/types"
)

// StaticPage is a Page over server-rendered HTML fetched without a browser.
// Client-rendered content never appears, so it suits sites (and tests) that
// ship their markup in the initial response.
type StaticPage struct {
	ctx     context.Context
	http    *HTTPClient
	logger  types.Logger
	root    *html.Node
	doc     *goquery.Document
	current string
}

// NewStaticPage creates a page that fetches documents with an HTTPClient
func NewStaticPage(ctx context.Context, config *types.Config, logger types.Logger) *StaticPage {
	return &StaticPage{
		ctx:    ctx,
		http:   NewHTTPClient(config, logger),
		logger: logger,
	}
}

// Navigate fetches url and parses it as the current document
func (s *StaticPage) Navigate(url string) error {
	body, err := s.http.Get(s.ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	return s.Load(url, bytes.NewReader(body))
}

// Load parses r as the document found at pageURL
func (s *StaticPage) Load(pageURL string, r io.Reader) error {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	s.root = root
	s.doc = goquery.NewDocumentFromNode(root)
	s.current = pageURL
	return nil
}

// URL returns the address of the loaded document
func (s *StaticPage) URL() string {
	return s.current
}

// FindFirst returns the first element matching loc. The document never
// changes after Navigate, so the lookup is not repeated.
func (s *StaticPage) FindFirst(loc Locator, _ time.Duration) (Element, error) {
	elements, err := s.FindAll(loc)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return elements[0], nil
}

// FindAll returns every element matching loc
func (s *StaticPage) FindAll(loc Locator) ([]Element, error) {
	if s.root == nil {
		return []Element{}, nil
	}

	var nodes []*html.Node
	switch loc.Kind {
	case KindCSS:
		nodes = s.doc.Find(loc.Expr).Nodes
	default:
		found, err := htmlquery.QueryAll(s.root, loc.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid locator %s: %w", loc, err)
		}
		nodes = found
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, staticElement{node: n})
	}
	return elements, nil
}

// Close cleans up resources
func (s *StaticPage) Close() {
	s.http.Close()
}

type staticElement struct {
	node *html.Node
}

func (e staticElement) Text() (string, error) {
	return renderText(e.node), nil
}

func (e staticElement) Attribute(name string) (string, bool, error) {
	for _, attr := range e.node.Attr {
		if attr.Key == name {
			return attr.Val, true, nil
		}
	}
	return "", false, nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

// renderText approximates a browser's innerText: whitespace inside text runs
// collapses and block or table-cell boundaries become line breaks.
func renderText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(collapseSpace(n.Data))
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return normalizeText(b.String())
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}

	out := strings.Join(fields, " ")
	if strings.TrimLeft(s, " \t\r\n\f") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n\f") != s {
		out += " "
	}
	return out
}
