package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("notes.txt"))
	assert.True(t, IsSupported("guide.md"))
	assert.True(t, IsSupported("page.HTML"))
	assert.True(t, IsSupported("page.htm"))
	assert.False(t, IsSupported("scan.pdf"))
	assert.False(t, IsSupported("data.json"))
	assert.False(t, IsSupported("noext"))
}

func TestReadDocument_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "doc.txt", "plain text content")

	text, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "plain text content", text)
}

func TestReadDocument_Markdown(t *testing.T) {
	dir := t.TempDir()
	md := "# PONV Prophylaxis\n\nGive **ondansetron** 4 mg IV.\n\n- reassess in 6h\n"
	path := writeTestFile(t, dir, "guide.md", md)

	text, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Contains(t, text, "PONV Prophylaxis")
	assert.Contains(t, text, "ondansetron 4 mg IV")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "- reassess")
}

func TestReadDocument_HTML(t *testing.T) {
	dir := t.TempDir()
	page := `<html><head><title>ignored</title><style>p{}</style></head>` +
		`<body><p>Chest tube output &gt; 450 ml/24h</p><script>x()</script></body></html>`
	path := writeTestFile(t, dir, "page.html", page)

	text, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Chest tube output > 450 ml/24h")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "x()")
	assert.NotContains(t, text, "ignored")
}

func TestReadDocument_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "scan.pdf", "%PDF-1.4")

	_, err := ReadDocument(path)
	assert.Error(t, err)
}

func TestReadDocument_MissingFile(t *testing.T) {
	_, err := ReadDocument(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
