package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Extractor implements qagen.Extractor at compile time.
var _ qagen.Extractor = (*trafilatura.Extractor)(nil)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and main content", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Getting Started - My Docs</title></head>
<body>
<nav><a href="/">Home</a><a href="/docs">Docs</a></nav>
<article>
<h1>Getting Started</h1>
<p>This is important documentation content that should be extracted into the corpus.</p>
<pre><code>qagen run https://docs.example.com</code></pre>
</article>
<footer>Copyright 2025</footer>
</body>
</html>`

		ext := trafilatura.NewExtractor()
		result, err := ext.Extract(html)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
		assert.Contains(t, result.ContentHTML, "important documentation content")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		ext := trafilatura.NewExtractor()
		_, err := ext.Extract("")

		require.Error(t, err)
		assert.Equal(t, qagen.EINVALID, qagen.ErrorCode(err))
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>T</title></head><body><article><p>Stable extraction output for identical documents.</p></article></body></html>`

		ext := trafilatura.NewExtractor()
		first, err := ext.Extract(html)
		require.NoError(t, err)
		second, err := ext.Extract(html)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
