package adapters

import (
	"errors"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

// ListingStrategies locate rows or cells of the Top 10 films table, in the
// order they are tried
var ListingStrategies = []utils.Locator{
	utils.XPath("//h3[contains(text(), 'Films')]/following::table[1]//tr"),
	utils.XPath("//h2[contains(text(), 'Movies')]/following::table[1]//tr"),
	utils.XPath("//table[contains(@class, 'top')]//tr"),
	utils.XPath("//div[contains(@class, 'films')]//table//tr"),
	utils.XPath("//td[contains(@class, 'name')]"),
}

// NetflixAdapter extracts the ranked film titles from Netflix Tudum
type NetflixAdapter struct {
	page   utils.Page
	config *types.Config
	logger types.Logger
	source utils.TitleSource
	sleep  func(time.Duration)
}

// NewNetflixAdapter creates an adapter that reads the listing through page
// and asks source for any titles it could not find
func NewNetflixAdapter(page utils.Page, config *types.Config, logger types.Logger, source utils.TitleSource) *NetflixAdapter {
	if source == nil {
		source = utils.NoInput
	}
	return &NetflixAdapter{
		page:   page,
		config: config,
		logger: logger,
		source: source,
		sleep:  time.Sleep,
	}
}

// ExtractTop returns at most count unique titles in ranking order
func (n *NetflixAdapter) ExtractTop(count int) []string {
	if count <= 0 {
		return []string{}
	}

	n.logger.Info("Fetching Netflix Top 10 movies...")
	titles, err := n.scrapeTop(count)
	if err != nil {
		n.logger.Errorf("Error fetching Netflix Top 10: %v", err)
	}

	titles = RemoveDuplicateTitles(titles)
	if len(titles) < count {
		n.logger.Warnf("Automated extraction found %d of %d movies, please enter the rest manually", len(titles), count)
		titles = n.fillManually(titles, count)
	}

	if len(titles) > count {
		titles = titles[:count]
	}
	return titles
}

func (n *NetflixAdapter) scrapeTop(count int) ([]string, error) {
	if err := n.page.Navigate(n.config.ListingURL); err != nil {
		return nil, err
	}
	n.sleep(n.config.ListingSettle)

	var titles []string
	for _, loc := range ListingStrategies {
		elements, err := n.page.FindAll(loc)
		if err != nil {
			n.logger.Debugf("Listing locator %s failed: %v", loc, err)
			continue
		}
		if len(elements) > count {
			elements = elements[:count]
		}

		for _, element := range elements {
			text, err := element.Text()
			if err != nil {
				continue
			}
			for _, segment := range strings.Split(text, "\n") {
				segment = strings.TrimSpace(segment)
				if !isTitle(segment) {
					continue
				}
				titles = append(titles, segment)
				if len(titles) >= count {
					return titles, nil
				}
			}
		}
		n.logger.Debugf("Listing locator %s: %d titles so far", loc, len(titles))
	}

	return titles, nil
}

// fillManually prompts once per missing slot. Empty answers are dropped and
// not asked again.
func (n *NetflixAdapter) fillManually(titles []string, count int) []string {
	held := len(titles)
	for slot := held + 1; slot <= count; slot++ {
		answer, err := n.source.Prompt(slot)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				n.logger.Warnf("Failed to read movie #%d: %v", slot, err)
			}
			break
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			titles = append(titles, answer)
		}
	}
	return RemoveDuplicateTitles(titles)
}

// isTitle rejects blanks, bare rank numbers and fragments of two characters or less
func isTitle(segment string) bool {
	if utf8.RuneCountInString(segment) <= 2 {
		return false
	}
	return strings.IndexFunc(segment, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
}
