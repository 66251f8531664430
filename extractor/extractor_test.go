package extractor

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"movie-extractor/adapters"
	"movie-extractor/internal/types"
	"movie-extractor/utils"
)

var tenTitles = []string{"Movie A", "Movie B", "Movie C", "Movie D", "Movie E", "Movie F", "Movie G", "Movie H", "Movie I", "Movie J"}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fixedTop []string

func (f fixedTop) ExtractTop(n int) []string {
	if len(f) > n {
		return f[:n]
	}
	return f
}

type fakeDetails struct {
	missing map[string]bool
	fetched []string
}

func (f *fakeDetails) FetchDetails(title string) types.Record {
	f.fetched = append(f.fetched, title)
	record := types.NewRecord(title)
	if f.missing[title] {
		return record
	}
	record.Duration = "1h 40m"
	record.CriticScore = "90%"
	record.AudienceScore = "80%"
	record.Synopsis = "About " + title + "."
	return record
}

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.RequestDelay = time.Millisecond
	config.PageSettle = 0
	config.ListingSettle = 0
	config.DetailSettle = 0
	config.ElementWait = 0
	config.PoliteDelay = 0
	return config
}

func newTestPipeline(top TopLister, details DetailFetcher, seed int64) (*Pipeline, *[]time.Duration) {
	pipeline := NewPipeline(top, details, testConfig(), quietLogger())
	pipeline.SetRand(rand.New(rand.NewSource(seed)))
	pipeline.SetOutput(&bytes.Buffer{})
	var slept []time.Duration
	pipeline.sleep = func(d time.Duration) { slept = append(slept, d) }
	return pipeline, &slept
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSampleTitles_DistinctSubset(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		selected, short := SampleTitles(tenTitles, 5, rand.New(rand.NewSource(seed)))

		assert.False(t, short)
		require.Len(t, selected, 5)
		assert.Len(t, adapters.RemoveDuplicateTitles(selected), 5, "seed %d", seed)
		for _, title := range selected {
			assert.Contains(t, tenTitles, title)
		}
	}
}

func TestSampleTitles_Deterministic(t *testing.T) {
	first, _ := SampleTitles(tenTitles, 5, rand.New(rand.NewSource(42)))
	second, _ := SampleTitles(tenTitles, 5, rand.New(rand.NewSource(42)))

	assert.Equal(t, first, second)
}

func TestSampleTitles_Shortfall(t *testing.T) {
	titles := []string{"Movie A", "Movie B", "Movie C"}

	selected, short := SampleTitles(titles, 5, rand.New(rand.NewSource(1)))

	assert.True(t, short)
	assert.Equal(t, titles, selected)

	selected, short = SampleTitles(nil, 5, rand.New(rand.NewSource(1)))
	assert.True(t, short)
	assert.Empty(t, selected)
}

func TestPipeline_Collect_PolitenessDelayBetweenTitles(t *testing.T) {
	details := &fakeDetails{}
	pipeline, slept := newTestPipeline(fixedTop(tenTitles), details, 7)
	pipeline.config.PoliteDelay = 2 * time.Second

	records := pipeline.Collect()

	require.Len(t, records, 5)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}, *slept)
	for i, record := range records {
		assert.Equal(t, details.fetched[i], record.Title)
	}
}

func TestPipeline_Collect_FewerThanFiveSelectsAll(t *testing.T) {
	details := &fakeDetails{}
	pipeline, _ := newTestPipeline(fixedTop{"Movie A", "Movie B"}, details, 1)

	records := pipeline.Collect()

	require.Len(t, records, 2)
	assert.Equal(t, []string{"Movie A", "Movie B"}, details.fetched)
}

func TestPipeline_Run_WritesCSV(t *testing.T) {
	details := &fakeDetails{missing: map[string]bool{"Movie C": true}}
	pipeline, _ := newTestPipeline(fixedTop(tenTitles), details, 3)
	var summary bytes.Buffer
	pipeline.SetOutput(&summary)

	written, err := pipeline.Run(filepath.Join(t.TempDir(), "movies"))
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(written))
	assert.Equal(t, ".csv", filepath.Ext(written))

	rows := readCSV(t, written)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"movie", "duration", "tomatometer", "popcornmeter", "description"}, rows[0])
	for i, row := range rows[1:] {
		assert.Equal(t, details.fetched[i], row[0])
	}
	assert.Contains(t, summary.String(), "Data Summary")
}

// seedSelecting returns a seed whose five-title sample includes title
func seedSelecting(t *testing.T, title string) int64 {
	t.Helper()
	for seed := int64(1); seed < 1000; seed++ {
		selected, _ := SampleTitles(tenTitles, 5, rand.New(rand.NewSource(seed)))
		for _, s := range selected {
			if s == title {
				return seed
			}
		}
	}
	t.Fatalf("no seed selects %s", title)
	return 0
}

func slug(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "_"))
}

// newSitesServer serves a Tudum-like listing and a Rotten Tomatoes-like search
// and detail site where "Movie C" has no search result
func newSitesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tudum/top10/", func(w http.ResponseWriter, r *http.Request) {
		var rows strings.Builder
		for i, title := range tenTitles {
			fmt.Fprintf(&rows, "<tr><td>%d</td><td class=\"name\">%s</td></tr>", i+1, title)
		}
		fmt.Fprintf(w, `<html><body><h2>Top 10 Movies</h2><table>%s</table></body></html>`, rows.String())
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		title := r.URL.Query().Get("search")
		if title == "Movie C" {
			w.Write([]byte(`<html><body>No results</body></html>`))
			return
		}
		fmt.Fprintf(w, `<html><body><search-page-media-row type="movie"><a data-qa="info-name" href="/m/%s">%s</a></search-page-media-row></body></html>`, slug(title), title)
	})
	mux.HandleFunc("/m/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<rt-button slot="criticsScore"><rt-text slot="number">91%%</rt-text></rt-button>
<rt-button slot="audienceScore"><rt-text slot="number">77%%</rt-text></rt-button>
<rt-text slot="duration">1h 58m</rt-text>
<rt-text slot="info">Synopsis of %s, with "quotes".</rt-text>
</body></html>`, strings.TrimPrefix(r.URL.Path, "/m/"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestPipeline_EndToEnd(t *testing.T) {
	server := newSitesServer(t)

	config := testConfig()
	config.ListingURL = server.URL + "/tudum/top10/"
	config.SearchURL = server.URL + "/search"

	page := utils.NewStaticPage(context.Background(), config, quietLogger())
	defer page.Close()

	top := adapters.NewNetflixAdapter(page, config, quietLogger(), utils.NoInput)
	details := adapters.NewRottenTomatoesAdapter(page, config, quietLogger())

	pipeline := NewPipeline(top, details, config, quietLogger())
	pipeline.SetRand(rand.New(rand.NewSource(seedSelecting(t, "Movie C"))))
	pipeline.SetOutput(&bytes.Buffer{})

	written, err := pipeline.Run(filepath.Join(t.TempDir(), "movies_data.csv"))
	require.NoError(t, err)

	rows := readCSV(t, written)
	require.Len(t, rows, 6)
	assert.Equal(t, types.Columns, rows[0])

	seenC := false
	for _, row := range rows[1:] {
		require.Len(t, row, 5)
		assert.Contains(t, tenTitles, row[0])
		if row[0] == "Movie C" {
			seenC = true
			assert.Equal(t, types.NewRecord("Movie C").Row(), row)
			continue
		}
		assert.Equal(t, []string{row[0], "1h 58m", "91%", "77%", fmt.Sprintf("Synopsis of %s, with \"quotes\".", slug(row[0]))}, row)
	}
	assert.True(t, seenC)
}
