package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestCompose_Exact(t *testing.T) {
	got := Compose(date(t, "2024-05-01"), []string{"[A](https://a/)", "[B](https://b/)"})

	want := "---\n" +
		"title: \"Reading Roundup, 2024-05-01\"\n" +
		"date: 2024-05-01\n" +
		"---\n" +
		"\n" +
		"[A](https://a/)\n\n" +
		"[B](https://b/)\n\n"
	assert.Equal(t, want, string(got))
}

func TestCompose_EmptyRoundup(t *testing.T) {
	got := Compose(date(t, "2024-05-01"), nil)
	assert.Equal(t, "---\ntitle: \"Reading Roundup, 2024-05-01\"\ndate: 2024-05-01\n---\n\n", string(got))
}

func TestCompose_FrontMatterIsYAML(t *testing.T) {
	got := Compose(date(t, "2023-12-31"), []string{"body"})

	parts := bytes.SplitN(got, []byte("---\n"), 3)
	require.Len(t, parts, 3)
	assert.Empty(t, parts[0])

	var meta struct {
		Title string `yaml:"title"`
		Date  string `yaml:"date"`
	}
	require.NoError(t, yaml.Unmarshal(parts[1], &meta))
	assert.Equal(t, "Reading Roundup, 2023-12-31", meta.Title)
	assert.Equal(t, "2023-12-31", meta.Date)
	assert.Equal(t, "\nbody\n\n", string(parts[2]))
}

func TestDocument(t *testing.T) {
	d := date(t, "2024-05-01")
	doc := Document(d, []string{"x"})

	assert.Equal(t, "2024-05-01.md", doc.FileName)
	assert.Equal(t, "text/markdown; charset=UTF-8", doc.MediaType)
	assert.Equal(t, d, doc.Date)
	assert.Equal(t, Compose(d, []string{"x"}), doc.Markdown)
}
