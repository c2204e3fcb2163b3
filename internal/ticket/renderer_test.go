package ticket

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madmatrix/tickethub/internal/domain"
)

func testLayout() Layout {
	return Layout{
		Width:     850,
		Height:    480,
		EventName: "MADMATRIX",
		Tagline:   "NATIONAL LEVEL SYMPOSIUM",
		Dates:     "MAR 13-14",
		Year:      "2026",
		Campus:    "SIMATS",
		Venue:     "SIMATS ENGINEERING CAMPUS, CHENNAI",
		Organizer: "SIMATS ENGINEERING",
		LogoURL:   "https://example.com/logo.png",
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(testLayout(), QR{Mode: QRModeRemote, Payload: "https://www.madmatrix.site/", Size: 250})
	require.NoError(t, err)
	return r
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	var buf bytes.Buffer
	err := r.Render(&buf, domain.Ticket{Name: "Asha Rao", RegistrationNumber: "MM-042", Greeting: "Jack in."})
	require.NoError(t, err)

	html := buf.String()
	for _, want := range []string{
		`id="ticket"`,
		"width: 850px; height: 480px;",
		"ASHA RAO",
		"MM-042",
		"Jack in.",
		"AUTHORIZED PERSON",
		"YOUR PAYMENT HAS BEEN RECEIVED.",
		"THANKS FOR REGISTERING!",
		"VERIFIED_ENTRY",
		"VENUE: SIMATS ENGINEERING CAMPUS, CHENNAI",
		"MAR 13-14, 2026",
		"https://api.qrserver.com/v1/create-qr-code/?data=https%3A%2F%2Fwww.madmatrix.site%2F&amp;size=250x250",
		`onerror="this.dataset.failed='1'"`,
	} {
		assert.Contains(t, html, want)
	}
}

func TestRenderer_RenderEscapes(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, domain.Ticket{Name: "<script>x</script>", RegistrationNumber: "R1"}))

	assert.NotContains(t, buf.String(), "<script>x")
	assert.Contains(t, buf.String(), "&lt;SCRIPT&gt;")
}

func TestRenderer_OptionalParts(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, domain.Ticket{Name: "A", RegistrationNumber: "R1"}))

	assert.NotContains(t, buf.String(), `class="greeting"`)
	assert.NotContains(t, buf.String(), `class="bg"`)
}

func TestRenderer_RenderPage(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, PageData{Email: "a@b.c"}))

	html := buf.String()
	assert.Contains(t, html, "MADMATRIX<span>'26</span>")
	assert.Contains(t, html, `value="a@b.c"`)
	assert.Contains(t, html, "/api/lookup")
	assert.True(t, strings.Contains(html, "SIMATS ENGINEERING"))
}

func TestRenderer_RenderPageKeepsPageOnExportFailure(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(&buf, PageData{}))
	html := buf.String()

	// Downloads are fetched from script and saved from a blob, so a failed
	// export raises a dismissable notice instead of navigating to the error JSON.
	for _, format := range []string{"png", "jpeg", "pdf"} {
		assert.Contains(t, html, `data-format="`+format+`"`)
	}
	assert.NotContains(t, html, `href="/api/export`)
	assert.Contains(t, html, "URL.createObjectURL(blob)")
	assert.Contains(t, html, "a.download = filenameFrom(res")
	assert.Contains(t, html, `id="toast"`)
	assert.Contains(t, html, `data-dismiss="toast"`)
	assert.Contains(t, html, `data-dismiss="error"`)

	// One preview load per search.
	assert.Equal(t, 1, strings.Count(html, "preview.src ="))
}

func TestRenderer_LayoutAndSize(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	assert.Equal(t, testLayout(), r.Layout())
	w, h := r.Size()
	assert.Equal(t, 850, w)
	assert.Equal(t, 480, h)
}

func TestNewRenderer_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer(Layout{}, QR{})
	require.Error(t, err)
}

func TestShortYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "26", shortYear("2026"))
	assert.Equal(t, "7", shortYear("7"))
}
