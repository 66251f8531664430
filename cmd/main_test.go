package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
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
	"movie-extractor/internal/types"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	flags := cmd.Flags()

	output := flags.Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, "movies_data.csv", output.DefValue)

	assert.Equal(t, "true", flags.Lookup("headless").DefValue)
	assert.Equal(t, "false", flags.Lookup("no-headless").DefValue)

	require.NoError(t, flags.Parse([]string{"-o", "out.xlsx", "--no-headless"}))
	assert.Equal(t, "out.xlsx", output.Value.String())
	assert.Equal(t, "true", flags.Lookup("no-headless").Value.String())
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, logrus.InfoLevel, newLogger(false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, newLogger(true).GetLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, logrus.WarnLevel, newLogger(true).GetLevel())
}

// newShortListingServer lists only six films and knows every title on search
func newShortListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/top10/", func(w http.ResponseWriter, r *http.Request) {
		var rows strings.Builder
		for i, title := range []string{"Movie A", "Movie B", "Movie C", "Movie D", "Movie E", "Movie F"} {
			fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td></tr>", i+1, title)
		}
		fmt.Fprintf(w, `<html><body><h3>Films (English)</h3><table>%s</table></body></html>`, rows.String())
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/m/any">result</a></body></html>`)
	})
	mux.HandleFunc("/m/any", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><rt-text slot="duration">1h 30m</rt-text></body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestExecute_HTTPOnlyWithManualFill(t *testing.T) {
	server := newShortListingServer(t)

	cfg := types.DefaultConfig()
	cfg.UseHeadlessBrowser = false
	cfg.ListingURL = server.URL + "/top10/"
	cfg.SearchURL = server.URL + "/search"
	cfg.RequestDelay = time.Millisecond
	cfg.ListingSettle = 0
	cfg.DetailSettle = 0
	cfg.PoliteDelay = 0

	output := filepath.Join(t.TempDir(), "movies")
	var out bytes.Buffer

	err := execute(context.Background(), cfg, quietLogger(), output, strings.NewReader("K\nL\nM\nN\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Enter movie #7: ")
	assert.Contains(t, out.String(), "Enter movie #10: ")

	file, err := os.Open(output + ".csv")
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, types.Columns, rows[0])
	all := []string{"Movie A", "Movie B", "Movie C", "Movie D", "Movie E", "Movie F", "K", "L", "M", "N"}
	for _, row := range rows[1:] {
		assert.Contains(t, all, row[0])
		assert.Equal(t, "1h 30m", row[1])
		assert.Equal(t, types.NotAvailable, row[2])
	}
}

func TestExecute_WriteFailureIsReported(t *testing.T) {
	server := newShortListingServer(t)

	cfg := types.DefaultConfig()
	cfg.UseHeadlessBrowser = false
	cfg.ListingURL = server.URL + "/top10/"
	cfg.SearchURL = server.URL + "/search"
	cfg.RequestDelay = time.Millisecond
	cfg.ListingSettle = 0
	cfg.DetailSettle = 0
	cfg.PoliteDelay = 0
	cfg.SampleCount = 1

	output := filepath.Join(t.TempDir(), "missing", "movies.csv")
	err := execute(context.Background(), cfg, quietLogger(), output, strings.NewReader(""), &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write results")
}
