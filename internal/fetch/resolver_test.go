package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubRunner is a canned fallback client.
type stubRunner struct {
	body   []byte
	status int
	err    error
	calls  int
}

func (s *stubRunner) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	s.calls++
	return s.body, s.status, s.err
}

func TestResolver_Fetch_Primary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html>hello</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	runner := &stubRunner{}
	r := NewResolver(runner, Options{})

	result := r.Fetch(context.Background(), srv.URL, nil)

	assert.True(t, result.OK)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, "<html>hello</html>", result.Body)
	assert.Zero(t, runner.calls)
}

func TestResolver_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(nil, Options{})
	result := r.Fetch(context.Background(), srv.URL, nil)

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusNotFound, result.Status)
}

func TestResolver_Fetch_ChallengeTriggersFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Checking your browser before accessing")) //nolint:errcheck
	}))
	defer srv.Close()

	runner := &stubRunner{body: []byte("<html>real page</html>"), status: http.StatusOK}
	r := NewResolver(runner, Options{})

	result := r.Fetch(context.Background(), srv.URL, nil)

	assert.True(t, result.OK)
	assert.Equal(t, "<html>real page</html>", result.Body)
	assert.Equal(t, 1, runner.calls)
}

func TestResolver_Fetch_FallbackFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="g-recaptcha"></div>`)) //nolint:errcheck
	}))
	defer srv.Close()

	runner := &stubRunner{err: errors.New("curl: exit status 7")}
	r := NewResolver(runner, Options{})

	result := r.Fetch(context.Background(), srv.URL, nil)

	// Both strategies failed; the job gets an empty result, not an error.
	assert.False(t, result.OK)
	assert.Zero(t, result.Status)
	assert.Empty(t, result.Body)
}

func TestResolver_Fetch_UnreachableHostNoFallback(t *testing.T) {
	r := NewResolver(nil, Options{})

	result := r.Fetch(context.Background(), "http://127.0.0.1:1", nil)

	assert.False(t, result.OK)
	assert.Zero(t, result.Status)
}

func TestResolver_Fetch_HeaderOverride(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("ok page content")) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewResolver(nil, Options{UserAgent: "test-agent"})
	result := r.Fetch(context.Background(), srv.URL, map[string]string{"Accept-Language": "es"})

	assert.True(t, result.OK)
	assert.Equal(t, "es", gotLang)
}

func TestResolver_Fetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 100 {
			w.Write([]byte("0123456789")) //nolint:errcheck
		}
	}))
	defer srv.Close()

	r := NewResolver(nil, Options{MaxBody: 64})
	result := r.Fetch(context.Background(), srv.URL, nil)

	assert.True(t, result.OK)
	assert.Len(t, result.Body, 64)
}
