package types

import "time"

// NotAvailable is written into every record field that could not be extracted
const NotAvailable = "Not available!"

// Columns is the fixed header of the exported table
var Columns = []string{"movie", "duration", "tomatometer", "popcornmeter", "description"}

// Record represents one exported row: a title plus the facts found for it
type Record struct {
	Title         string `json:"movie"`
	Duration      string `json:"duration"`
	CriticScore   string `json:"tomatometer"`
	AudienceScore string `json:"popcornmeter"`
	Synopsis      string `json:"description"`
}

// NewRecord returns a record for title with every data field set to NotAvailable
func NewRecord(title string) Record {
	return Record{
		Title:         title,
		Duration:      NotAvailable,
		CriticScore:   NotAvailable,
		AudienceScore: NotAvailable,
		Synopsis:      NotAvailable,
	}
}

// Row returns the record's values in Columns order
func (r Record) Row() []string {
	return []string{r.Title, r.Duration, r.CriticScore, r.AudienceScore, r.Synopsis}
}

// Complete reports whether every data field was extracted
func (r Record) Complete() bool {
	for _, v := range r.Row()[1:] {
		if v == NotAvailable {
			return false
		}
	}
	return true
}

// Config holds the configuration for the extractor
type Config struct {
	ListingURL  string
	SearchURL   string
	TopCount    int
	SampleCount int

	Headless           bool
	UseHeadlessBrowser bool
	UserAgent          string

	// Timeout bounds a single static HTTP fetch
	Timeout      time.Duration
	RequestDelay time.Duration

	PageSettle    time.Duration
	ListingSettle time.Duration
	DetailSettle  time.Duration
	ElementWait   time.Duration
	PoliteDelay   time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListingURL:         "https://www.netflix.com/tudum/top10/",
		SearchURL:          "https://www.rottentomatoes.com/search",
		TopCount:           10,
		SampleCount:        5,
		Headless:           true,
		UseHeadlessBrowser: true,
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Timeout:            30 * time.Second,
		RequestDelay:       500 * time.Millisecond,
		PageSettle:         500 * time.Millisecond,
		ListingSettle:      5 * time.Second,
		DetailSettle:       3 * time.Second,
		ElementWait:        20 * time.Second,
		PoliteDelay:        2 * time.Second,
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
