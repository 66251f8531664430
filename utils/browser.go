package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"movie-extractor/internal/types"
)

// elementReadTimeout bounds reads on a node that was already found
const elementReadTimeout = 5 * time.Second

// BrowserClient is a Page backed by a single long-lived Chrome tab
type BrowserClient struct {
	config *types.Config
	logger types.Logger

	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc
	current     string
}

// NewBrowserClient launches Chrome and opens the tab used for the whole run.
// The caller owns the session and must Close it.
func NewBrowserClient(ctx context.Context, config *types.Config, logger types.Logger) (*BrowserClient, error) {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	// An empty run starts the browser so launch failures surface here
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debugf("Browser started (headless=%v)", config.Headless)
	return &BrowserClient{
		config:      config,
		logger:      logger,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
	}, nil
}

// Navigate loads url and waits for the document body plus the page settle delay
func (b *BrowserClient) Navigate(url string) error {
	var location string
	err := chromedp.Run(b.pageCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.config.PageSettle),
		chromedp.Location(&location),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	b.current = location
	b.logger.Debugf("Navigated to %s", location)
	return nil
}

// URL returns the address of the loaded page
func (b *BrowserClient) URL() string {
	return b.current
}

// FindFirst returns the first element matching loc
func (b *BrowserClient) FindFirst(loc Locator, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		nodes, err := b.query(b.pageCtx, loc, chromedp.AtLeast(0))
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
		}
		return &browserElement{client: b, node: nodes[0]}, nil
	}

	ctx, cancel := context.WithTimeout(b.pageCtx, timeout)
	defer cancel()

	nodes, err := b.query(ctx, loc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && b.pageCtx.Err() == nil {
			return nil, fmt.Errorf("%s after %v: %w", loc, timeout, ErrNotFound)
		}
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return &browserElement{client: b, node: nodes[0]}, nil
}

// FindAll returns every element currently matching loc
func (b *BrowserClient) FindAll(loc Locator) ([]Element, error) {
	nodes, err := b.query(b.pageCtx, loc, chromedp.AtLeast(0))
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, &browserElement{client: b, node: node})
	}
	return elements, nil
}

// HTML returns the outer HTML of the loaded document
func (b *BrowserClient) HTML() (string, error) {
	var html string
	if err := chromedp.Run(b.pageCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

// Close tears down the tab and the browser process
func (b *BrowserClient) Close() {
	if b.pageCancel != nil {
		b.pageCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.logger.Debug("Browser session closed")
}

func (b *BrowserClient) query(ctx context.Context, loc Locator, opts ...chromedp.QueryOption) ([]*cdp.Node, error) {
	by := chromedp.BySearch
	if loc.Kind == KindCSS {
		by = chromedp.ByQueryAll
	}

	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{by}, opts...)
	if err := chromedp.Run(ctx, chromedp.Nodes(loc.Expr, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}
	return nodes, nil
}

type browserElement struct {
	client *BrowserClient
	node   *cdp.Node
}

func (e *browserElement) Text() (string, error) {
	ctx, cancel := context.WithTimeout(e.client.pageCtx, elementReadTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(ctx, chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read text of <%s>: %w", e.node.LocalName, err)
	}
	return normalizeText(text), nil
}

func (e *browserElement) Attribute(name string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(e.client.pageCtx, elementReadTimeout)
	defer cancel()

	var (
		value string
		ok    bool
	)
	if err := chromedp.Run(ctx, chromedp.AttributeValue([]cdp.NodeID{e.node.NodeID}, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s of <%s>: %w", name, e.node.LocalName, err)
	}
	return value, ok, nil
}
