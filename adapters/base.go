package adapters

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

// Strategy is one way of finding a value on the current page: a locator and
// a projection (the element text, or Attribute when it is set).
type Strategy struct {
	Name      string
	Locator   utils.Locator
	Attribute string
	// Wait is how long to poll for the element; zero looks once
	Wait time.Duration
}

// TextAt projects the text of the first element matching an XPath expression
func TextAt(name, expr string) Strategy {
	return Strategy{Name: name, Locator: utils.XPath(expr)}
}

// AttrAt projects an attribute of the first element matching an XPath expression
func AttrAt(name, expr, attribute string, wait time.Duration) Strategy {
	return Strategy{Name: name, Locator: utils.XPath(expr), Attribute: attribute, Wait: wait}
}

// SelectorChain evaluates strategies in order and keeps the first non-empty value.
// Page markup drifts, so each field carries several known layouts.
type SelectorChain struct {
	page   utils.Page
	logger types.Logger
}

// NewSelectorChain creates a chain bound to page
func NewSelectorChain(page utils.Page, logger types.Logger) *SelectorChain {
	return &SelectorChain{page: page, logger: logger}
}

// Extract returns the first non-empty value, or types.NotAvailable
func (c *SelectorChain) Extract(strategies []Strategy) string {
	if value, _, ok := c.First(strategies); ok {
		return value
	}
	return types.NotAvailable
}

// First returns the first non-empty value and the index of the strategy that
// produced it. Later strategies are not tried once one succeeds.
func (c *SelectorChain) First(strategies []Strategy) (string, int, bool) {
	for i, s := range strategies {
		value, err := c.try(s)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				c.logger.Debugf("Strategy %q missed: %v", s.Name, err)
			} else {
				c.logger.Warnf("Strategy %q failed: %v", s.Name, err)
			}
			continue
		}
		if value != "" {
			return value, i, true
		}
		c.logger.Debugf("Strategy %q matched an empty value", s.Name)
	}
	return "", -1, false
}

func (c *SelectorChain) try(s Strategy) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	element, err := c.page.FindFirst(s.Locator, s.Wait)
	if err != nil {
		return "", err
	}

	if s.Attribute == "" {
		value, err = element.Text()
	} else {
		value, _, err = element.Attribute(s.Attribute)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// RemoveDuplicateTitles removes duplicates, keeping the first occurrence
func RemoveDuplicateTitles(titles []string) []string {
	seen := make(map[string]bool)
	unique := make([]string, 0, len(titles))

	for _, title := range titles {
		if !seen[title] {
			seen[title] = true
			unique = append(unique, title)
		}
	}

	return unique
}

// ResolveURL converts href to an absolute URL relative to base
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
