package extractor

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"movie-extractor/internal/types"
)

// TopLister produces the ranked titles of the listing site
type TopLister interface {
	ExtractTop(n int) []string
}

// DetailFetcher produces one record per title; misses are sentinel fields,
// never errors
type DetailFetcher interface {
	FetchDetails(title string) types.Record
}

// Pipeline runs listing extraction, sampling, detail lookups and export in sequence
type Pipeline struct {
	top     TopLister
	details DetailFetcher
	config  *types.Config
	logger  types.Logger
	rng     *rand.Rand
	out     io.Writer
	sleep   func(time.Duration)
}

// NewPipeline creates a new pipeline writing its summary to stdout
func NewPipeline(top TopLister, details DetailFetcher, config *types.Config, logger types.Logger) *Pipeline {
	return &Pipeline{
		top:     top,
		details: details,
		config:  config,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		out:     os.Stdout,
		sleep:   time.Sleep,
	}
}

// SetRand replaces the random source used for sampling
func (p *Pipeline) SetRand(rng *rand.Rand) {
	p.rng = rng
}

// SetOutput redirects the human-readable summary
func (p *Pipeline) SetOutput(w io.Writer) {
	p.out = w
}

// Collect scrapes the listing, samples it and fetches a record per sampled title
func (p *Pipeline) Collect() []types.Record {
	startTime := time.Now()

	titles := p.top.ExtractTop(p.config.TopCount)
	if len(titles) < p.config.TopCount {
		p.logger.Warnf("Only found %d movies instead of %d", len(titles), p.config.TopCount)
	}
	for i, title := range titles {
		p.logger.Infof("Top %d: %s", i+1, title)
	}

	selected, short := SampleTitles(titles, p.config.SampleCount, p.rng)
	if short {
		p.logger.Warnf("Only %d movies available, selecting all", len(selected))
	}
	for i, title := range selected {
		p.logger.Infof("Selected %d: %s", i+1, title)
	}

	p.logger.Info("Fetching Rotten Tomatoes data...")
	records := make([]types.Record, 0, len(selected))
	for i, title := range selected {
		records = append(records, p.details.FetchDetails(title))
		if i < len(selected)-1 {
			p.sleep(p.config.PoliteDelay)
		}
	}

	p.logger.Infof("Collected %d records in %v", len(records), time.Since(startTime))
	return records
}

// Run collects the records, writes them to outputPath and prints a summary.
// It returns the absolute path of the written file.
func (p *Pipeline) Run(outputPath string) (string, error) {
	records := p.Collect()

	path := NormalizeOutputPath(outputPath)
	if err := WriteRecords(path, records); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	p.logger.Infof("Data successfully saved to: %s", absPath)

	PrintSummary(p.out, records)
	return absPath, nil
}

// SampleTitles picks k distinct titles uniformly at random. With fewer than k
// available it returns all of them in order and reports the shortfall.
func SampleTitles(titles []string, k int, rng *rand.Rand) ([]string, bool) {
	if k < 0 {
		k = 0
	}
	if len(titles) < k {
		return append([]string(nil), titles...), true
	}

	selected := make([]string, 0, k)
	for _, i := range rng.Perm(len(titles))[:k] {
		selected = append(selected, titles[i])
	}
	return selected, false
}
