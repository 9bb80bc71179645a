// Package export renders roundups as standalone markdown documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"reading_roundup/internal/domain"
)

// MediaType is the content type of a composed roundup.
const MediaType = "text/markdown; charset=UTF-8"

// FileName is the download name of the roundup on date.
func FileName(date time.Time) string {
	return domain.FormatDate(date) + ".md"
}

// Compose renders a front-matter block followed by every body, each
// terminated by a blank line. Bodies are written in the given order.
func Compose(date time.Time, bodies []string) []byte {
	day := domain.FormatDate(date)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "---\ntitle: \"Reading Roundup, %s\"\ndate: %s\n---\n\n", day, day)
	for _, body := range bodies {
		buf.WriteString(body)
		buf.WriteString("\n\n")
	}
	return buf.Bytes()
}

// Document wraps a composed roundup for publishing.
func Document(date time.Time, bodies []string) *domain.RoundupDocument {
	return &domain.RoundupDocument{
		Date:      date,
		FileName:  FileName(date),
		MediaType: MediaType,
		Markdown:  Compose(date, bodies),
	}
}
