package utils

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no element matches a locator in time
var ErrNotFound = errors.New("element not found")

// LocatorKind selects the query language of a Locator
type LocatorKind int

const (
	KindXPath LocatorKind = iota
	KindCSS
)

// Locator describes how to find elements on a page
type Locator struct {
	Kind LocatorKind
	Expr string
}

// XPath returns an XPath locator
func XPath(expr string) Locator {
	return Locator{Kind: KindXPath, Expr: expr}
}

// CSS returns a CSS selector locator
func CSS(expr string) Locator {
	return Locator{Kind: KindCSS, Expr: expr}
}

func (l Locator) String() string {
	if l.Kind == KindCSS {
		return "css=" + l.Expr
	}
	return "xpath=" + l.Expr
}

// Element is a handle to a single node of the current page
type Element interface {
	// Text returns the rendered text, with line breaks between block and cell elements
	Text() (string, error)
	Attribute(name string) (string, bool, error)
}

// Page is a single browsing session. One page is loaded at a time and all
// calls are sequential.
type Page interface {
	Navigate(url string) error
	// FindFirst polls for up to timeout and returns ErrNotFound on a miss.
	// A zero timeout performs one immediate lookup.
	FindFirst(loc Locator, timeout time.Duration) (Element, error)
	// FindAll never waits; no match is an empty slice, not an error.
	FindAll(loc Locator) ([]Element, error)
	// URL is the address of the page currently loaded
	URL() string
	Close()
}

// normalizeText trims each line and drops the blank ones
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
