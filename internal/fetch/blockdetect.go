package fetch

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"strings"
	"syscall"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone        BlockType = ""
	BlockTLS         BlockType = "tls_fingerprint"
	BlockCloudflare  BlockType = "cloudflare"
	BlockCaptcha     BlockType = "captcha"
	BlockJSChallenge BlockType = "js_challenge"
)

// DetectTransportBlock classifies transport-level failures caused by
// fingerprint-based bot defenses. These show up as anomalous TLS-layer
// rejections (handshake aborts, resets mid-handshake, truncated responses),
// not as normal HTTP errors, and are the trigger for the fallback client.
func DetectTransportBlock(err error) (bool, BlockType) {
	if err == nil {
		return false, BlockNone
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true, BlockTLS
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true, BlockTLS
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true, BlockTLS
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"handshake failure",
		"tls: ",
		"connection reset by peer",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true, BlockTLS
		}
	}
	return false, BlockNone
}

// DetectResponseBlock checks a successful HTTP exchange for signs of
// fingerprint-based bot protection served as a challenge page.
func DetectResponseBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	// Challenge page markers.
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	// JS-only shell: tiny body that demands JavaScript.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSChallenge
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSChallenge
		}
	}

	return false, BlockNone
}
