package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/siteintel/internal/fetch"
)

type stubFetcher struct {
	result fetch.Result
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, headers map[string]string) fetch.Result {
	return s.result
}

func TestScrape_Success(t *testing.T) {
	html := `<html><head><title>Acme Store</title></head><body><p>Fine goods &amp; more</p></body></html>`
	s := New(&stubFetcher{result: fetch.Result{OK: true, Status: 200, Body: html}})

	content, err := s.Scrape(context.Background(), "https://acme.example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example.com", content.URL)
	assert.Equal(t, "Acme Store", content.Title)
	assert.Equal(t, html, content.HTML)
	assert.Contains(t, content.Text, "Fine goods & more")
	assert.Equal(t, 200, content.StatusCode)
	assert.Equal(t, int64(len(html)), content.SizeBytes)
}

func TestScrape_HTTPError(t *testing.T) {
	s := New(&stubFetcher{result: fetch.Result{OK: false, Status: 503}})

	_, err := s.Scrape(context.Background(), "https://down.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestScrape_NoContent(t *testing.T) {
	s := New(&stubFetcher{result: fetch.Result{}})

	_, err := s.Scrape(context.Background(), "https://gone.example.com")
	assert.Error(t, err)
}
