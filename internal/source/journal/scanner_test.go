package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading_roundup/internal/domain"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestScanBody_Links(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "labelled link",
			body: "text [title](https://x/)",
			want: "https://x/",
		},
		{
			name: "angle bracket autolink",
			body: "see <https://a.example/path>",
			want: "https://a.example/path",
		},
		{
			name: "bare url in running text",
			body: "see https://b.example/post for details",
			want: "https://b.example/post",
		},
		{
			name: "link nested in emphasis",
			body: "*really* good: **[Foo](https://foo.example/)**",
			want: "https://foo.example/",
		},
		{
			name: "first link wins",
			body: "[a](https://a.example/) and [b](https://b.example/)",
			want: "https://a.example/",
		},
		{
			name: "relative link is skipped",
			body: "[local](/notes/x) then [abs](https://abs.example/)",
			want: "https://abs.example/",
		},
		{
			name: "link inside list item",
			body: "- item with [Bar](https://bar.example/a?b=c)",
			want: "https://bar.example/a?b=c",
		},
	}

	date := mustDate(t, "2024-03-15")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ScanBody(date, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.URL.String())
			assert.Equal(t, date, entry.SourceDate)
			assert.Equal(t, tt.body, entry.OriginalText)
			assert.Equal(t, tt.body, entry.BodyText)
			assert.Equal(t, domain.ReadUnknown, entry.Read)
		})
	}
}

func TestScanBody_MissingLink(t *testing.T) {
	for _, body := range []string{"", "just some words", "[dangling](relative/path)", "mail me at someone@example.com"} {
		_, err := ScanBody(mustDate(t, "2024-03-15"), body)
		assert.ErrorIs(t, err, ErrMissingLink, "body %q", body)
	}
}

func TestScanBody_MarkdownError(t *testing.T) {
	_, err := ScanBody(mustDate(t, "2024-03-15"), "bad \xff bytes https://x.example/")
	assert.ErrorIs(t, err, ErrMarkdown)
	assert.NotErrorIs(t, err, ErrMissingLink)
}

func TestScanBody_RescanOriginalLine(t *testing.T) {
	date := mustDate(t, "2024-03-15")
	entry, err := ScanBody(date, "check out [Foo](https://foo.example/)")
	require.NoError(t, err)

	entry.OriginalText = "- #reading check out [Foo](https://foo.example/)"
	again, err := ScanBody(date, entry.OriginalText)
	require.NoError(t, err)
	assert.Equal(t, entry.URL.String(), again.URL.String())
}
