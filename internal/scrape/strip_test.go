package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "My Shop", ExtractTitle(`<html><head><title>My Shop</title></head></html>`))
	assert.Equal(t, "Tom &co", ExtractTitle(`<title> Tom &amp;co </title>`))
	assert.Equal(t, "Multi", ExtractTitle("<TITLE>Multi</TITLE>"))
	assert.Empty(t, ExtractTitle(`<html><body>no title</body></html>`))
}

func TestStripHTML(t *testing.T) {
	html := `<html><head>
		<script>var x = "hidden";</script>
		<style>.a { color: red }</style>
	</head><body>
		<nav><a href="/">Home</a></nav>
		<h1>Welcome</h1>
		<p>Quality &quot;products&quot; since 1990</p>
		<footer>Copyright</footer>
	</body></html>`

	text := StripHTML(html)

	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, `Quality "products" since 1990`)
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "<")
}

func TestStripHTML_CollapsesWhitespace(t *testing.T) {
	text := StripHTML("a  \t  b")
	assert.Equal(t, "a b", text)
}

func TestExtractSignals(t *testing.T) {
	html := `<html><head>
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<meta name="description" content="Best widgets in town">
		<meta property="og:title" content="Widget Co">
	</head><body>
		<h1>Widgets</h1>
		<img src="a.jpg"><img src="b.jpg">
		<video src="demo.mp4"></video>
		<a href="https://wa.me/5215551234567">WhatsApp us</a>
		<a href="tel:+15550001111">Call</a>
	</body></html>`
	text := StripHTML(html)

	sig := ExtractSignals(html, text)

	assert.Equal(t, 1, sig.H1Count)
	assert.Equal(t, 2, sig.ImageCount)
	assert.Equal(t, 1, sig.VideoCount)
	assert.True(t, sig.HasViewport)
	assert.True(t, sig.HasContact)
	assert.True(t, sig.HasWhatsApp)
	assert.Equal(t, "Best widgets in town", sig.MetaTags["description"])
	assert.Equal(t, "Widget Co", sig.MetaTags["og:title"])
	assert.Positive(t, sig.WordCount)
}

func TestExtractSignals_BarePage(t *testing.T) {
	sig := ExtractSignals("<html><body>hi</body></html>", "hi")

	assert.Zero(t, sig.H1Count)
	assert.Zero(t, sig.ImageCount)
	assert.False(t, sig.HasViewport)
	assert.False(t, sig.HasContact)
	assert.False(t, sig.HasWhatsApp)
	assert.Equal(t, 1, sig.WordCount)
}
