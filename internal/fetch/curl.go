package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// statusMarker is appended by curl after the body via --write-out so the
// numeric HTTP status can be recovered deterministically from the output
// stream. It is stripped before the body is returned.
const statusMarker = "\n===STATUS:"

// errOutputCapped aborts the external process once its output exceeds the
// configured buffer cap.
var errOutputCapped = eris.New("fetch: fallback output exceeds buffer cap")

// CurlRunner invokes the curl binary as a process-level HTTP client. Its
// network and TLS fingerprint differ from the Go runtime's, which gets past
// fingerprint-based bot defenses that reject net/http.
type CurlRunner struct {
	binPath string
	timeout time.Duration
	maxBody int64
}

// NewCurlRunner creates a CurlRunner. An empty binPath defaults to "curl";
// non-positive timeout/maxBody fall back to 15s and 10MB.
func NewCurlRunner(binPath string, timeout time.Duration, maxBody int64) *CurlRunner {
	if binPath == "" {
		binPath = "curl"
	}
	if timeout <= 0 || timeout > 15*time.Second {
		timeout = 15 * time.Second
	}
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}
	return &CurlRunner{binPath: binPath, timeout: timeout, maxBody: maxBody}
}

// cappedBuffer accumulates process output up to a byte limit, failing the
// write (and thereby the process) once the limit is exceeded. This bounds
// memory per concurrent task on pathological responses.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if int64(c.buf.Len())+int64(len(p)) > c.limit {
		return 0, errOutputCapped
	}
	return c.buf.Write(p)
}

// Fetch runs curl against the URL with the given header overrides and
// returns the body and HTTP status parsed from the output stream.
func (r *CurlRunner) Fetch(ctx context.Context, targetURL string, headers map[string]string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"--silent",
		"--location",
		"--compressed",
		"--max-time", strconv.Itoa(int(r.timeout.Seconds())),
		"--write-out", statusMarker + "%{http_code}===",
	}
	for key, value := range headers {
		args = append(args, "--header", fmt.Sprintf("%s: %s", key, value))
	}
	args = append(args, targetURL)

	cmd := exec.CommandContext(ctx, r.binPath, args...)

	stdout := &cappedBuffer{limit: r.maxBody}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, 0, eris.Wrapf(err, "fetch: curl failed for %s: %s", targetURL, strings.TrimSpace(stderr.String()))
	}

	body, status, err := splitStatusMarker(stdout.buf.Bytes())
	if err != nil {
		return nil, 0, eris.Wrapf(err, "fetch: curl output for %s", targetURL)
	}
	return body, status, nil
}

// splitStatusMarker strips the trailing status marker from curl output and
// parses the numeric HTTP status.
func splitStatusMarker(out []byte) ([]byte, int, error) {
	idx := bytes.LastIndex(out, []byte(statusMarker))
	if idx < 0 {
		return nil, 0, eris.New("status marker missing")
	}

	trailer := string(out[idx+len(statusMarker):])
	trailer = strings.TrimSuffix(strings.TrimSpace(trailer), "===")
	status, err := strconv.Atoi(strings.TrimSpace(trailer))
	if err != nil {
		return nil, 0, eris.Wrapf(err, "parse status %q", trailer)
	}
	return out[:idx], status, nil
}
