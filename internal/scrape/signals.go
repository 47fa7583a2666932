package scrape

import (
	"regexp"
	"strings"
)

var (
	metaRe    = regexp.MustCompile(`(?is)<meta\s+[^>]*>`)
	attrRe    = regexp.MustCompile(`(?is)(name|property|content)\s*=\s*"([^"]*)"`)
	imgRe     = regexp.MustCompile(`(?is)<img[\s>]`)
	videoRe   = regexp.MustCompile(`(?is)<video[\s>]|youtube\.com/embed|player\.vimeo\.com`)
	h1Re      = regexp.MustCompile(`(?is)<h1[\s>]`)
	emailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	telHrefRe = regexp.MustCompile(`(?i)href\s*=\s*"(tel:|mailto:)`)
)

// Signals is the structural DOM view of a page used for site-quality scoring.
type Signals struct {
	MetaTags    map[string]string
	H1Count     int
	ImageCount  int
	VideoCount  int
	WordCount   int
	HasViewport bool
	HasContact  bool
	HasWhatsApp bool
}

// ExtractSignals derives the structural signals from raw HTML and its
// stripped text.
func ExtractSignals(html, text string) Signals {
	sig := Signals{
		MetaTags:   ParseMetaTags(html),
		H1Count:    len(h1Re.FindAllString(html, -1)),
		ImageCount: len(imgRe.FindAllString(html, -1)),
		VideoCount: len(videoRe.FindAllString(html, -1)),
		WordCount:  len(strings.Fields(text)),
	}

	if viewport, ok := sig.MetaTags["viewport"]; ok && strings.Contains(viewport, "width=device-width") {
		sig.HasViewport = true
	}

	sig.HasContact = telHrefRe.MatchString(html) ||
		emailRe.MatchString(text) ||
		phoneRe.MatchString(text)

	lower := strings.ToLower(html)
	sig.HasWhatsApp = strings.Contains(lower, "wa.me/") ||
		strings.Contains(lower, "api.whatsapp.com") ||
		strings.Contains(lower, "whatsapp://")

	return sig
}

// ParseMetaTags builds a name/property -> content map from the page's meta
// tags. Later duplicates win, matching browser behavior closely enough for
// scoring.
func ParseMetaTags(html string) map[string]string {
	tags := make(map[string]string)
	for _, tag := range metaRe.FindAllString(html, -1) {
		var name, content string
		for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
			switch strings.ToLower(m[1]) {
			case "name", "property":
				name = strings.ToLower(strings.TrimSpace(m[2]))
			case "content":
				content = strings.TrimSpace(m[2])
			}
		}
		if name != "" {
			tags[name] = content
		}
	}
	return tags
}
