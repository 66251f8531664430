package adapters

import (
	"fmt"
	"net/url"
	"time"

	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

// Field strategies for a Rotten Tomatoes movie page, current layout first
var (
	DurationStrategies = []Strategy{
		TextAt("duration", "//rt-text[@slot='duration']"),
		TextAt("duration (legacy)", "//li[@class='meta-row runtime']//time"),
	}
	CriticScoreStrategies = []Strategy{
		TextAt("tomatometer", "//rt-button[@slot='criticsScore']//rt-text[@slot='number']"),
		TextAt("tomatometer (score board)", "//score-board[@data-qa='score-panel']//span[contains(@class, 'tometer')]"),
	}
	AudienceScoreStrategies = []Strategy{
		TextAt("popcornmeter", "//rt-button[@slot='audienceScore']//rt-text[@slot='number']"),
		TextAt("popcornmeter (score board)", "//score-board[@data-qa='score-panel']//span[contains(@class, 'audience')]"),
	}
	SynopsisStrategies = []Strategy{
		TextAt("synopsis", "//rt-text[@slot='info']"),
		TextAt("synopsis (drawer)", "//drawer-more[@data-qa='movie-info-synopsis']//p"),
		TextAt("synopsis (legacy)", "//div[@id='movieSynopsis']"),
	}
)

// Field names one chain of the detail page
type Field struct {
	Name       string
	Strategies []Strategy
	set        func(*types.Record, string)
}

// DetailFields lists the chains run against every detail page
var DetailFields = []Field{
	{Name: "duration", Strategies: DurationStrategies, set: func(r *types.Record, v string) { r.Duration = v }},
	{Name: "tomatometer", Strategies: CriticScoreStrategies, set: func(r *types.Record, v string) { r.CriticScore = v }},
	{Name: "popcornmeter", Strategies: AudienceScoreStrategies, set: func(r *types.Record, v string) { r.AudienceScore = v }},
	{Name: "description", Strategies: SynopsisStrategies, set: func(r *types.Record, v string) { r.Synopsis = v }},
}

// RottenTomatoesAdapter looks titles up on Rotten Tomatoes
type RottenTomatoesAdapter struct {
	page   utils.Page
	chain  *SelectorChain
	config *types.Config
	logger types.Logger
	sleep  func(time.Duration)
}

// NewRottenTomatoesAdapter creates a new Rotten Tomatoes adapter
func NewRottenTomatoesAdapter(page utils.Page, config *types.Config, logger types.Logger) *RottenTomatoesAdapter {
	return &RottenTomatoesAdapter{
		page:   page,
		chain:  NewSelectorChain(page, logger),
		config: config,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// SearchURL returns the search endpoint address for title
func (r *RottenTomatoesAdapter) SearchURL(title string) string {
	return r.config.SearchURL + "?search=" + url.QueryEscape(title)
}

// searchStrategies resolve the first movie result on a search page
func (r *RottenTomatoesAdapter) searchStrategies() []Strategy {
	return []Strategy{
		AttrAt("search result", "//search-page-media-row[@type='movie']//a[@data-qa='info-name']", "href", r.config.ElementWait),
		AttrAt("movie link", "//a[contains(@href, '/m/')]", "href", 0),
	}
}

// FindMovieURL searches for title and returns the absolute address of the
// first matching movie page
func (r *RottenTomatoesAdapter) FindMovieURL(title string) (string, error) {
	searchURL := r.SearchURL(title)
	if err := r.page.Navigate(searchURL); err != nil {
		return "", err
	}
	r.sleep(r.config.DetailSettle)

	href, _, ok := r.chain.First(r.searchStrategies())
	if !ok {
		return "", fmt.Errorf("no movie result for %q", title)
	}

	base := r.page.URL()
	if base == "" {
		base = searchURL
	}
	return ResolveURL(base, href)
}

// FetchDetails returns the record for title. Every field the page does not
// yield stays at types.NotAvailable; a failed lookup is not an error.
func (r *RottenTomatoesAdapter) FetchDetails(title string) types.Record {
	r.logger.Infof("Fetching data for: %s", title)
	record := types.NewRecord(title)

	movieURL, err := r.FindMovieURL(title)
	if err != nil {
		r.logger.Warnf("Could not find %s on Rotten Tomatoes: %v", title, err)
		return record
	}

	if err := r.page.Navigate(movieURL); err != nil {
		r.logger.Warnf("Could not open %s: %v", movieURL, err)
		return record
	}
	r.sleep(r.config.DetailSettle)

	for _, field := range DetailFields {
		r.populate(&record, field)
	}

	r.logger.Infof("  Duration: %s", record.Duration)
	r.logger.Infof("  Tomatometer: %s", record.CriticScore)
	r.logger.Infof("  Popcornmeter: %s", record.AudienceScore)
	return record
}

func (r *RottenTomatoesAdapter) populate(record *types.Record, field Field) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warnf("Error extracting %s for %s: %v", field.Name, record.Title, p)
		}
	}()
	field.set(record, r.chain.Extract(field.Strategies))
}
