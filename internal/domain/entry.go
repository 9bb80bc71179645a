package domain

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DateLayout is the form of every calendar date in the system: note file
// stems, source dates and roundup dates.
const DateLayout = "2006-01-02"

// ErrNotFound reports a lookup of an entry that is not cataloged.
var ErrNotFound = errors.New("entry not found")

// ReadState is the tri-valued read marker of an entry.
type ReadState int

const (
	ReadUnknown ReadState = iota
	ReadToBeRead
	ReadDone
)

func (r ReadState) String() string {
	switch r {
	case ReadToBeRead:
		return "tbr"
	case ReadDone:
		return "read"
	default:
		return "unknown"
	}
}

func (r ReadState) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ReadState) UnmarshalText(text []byte) error {
	state, err := ParseReadState(string(text))
	if err != nil {
		return err
	}
	*r = state
	return nil
}

// ParseReadState accepts the text forms produced by String. The empty
// string is read as unknown.
func ParseReadState(s string) (ReadState, error) {
	switch s {
	case "", "unknown":
		return ReadUnknown, nil
	case "tbr":
		return ReadToBeRead, nil
	case "read":
		return ReadDone, nil
	}
	return ReadUnknown, fmt.Errorf("invalid read state %q", s)
}

// ReadingListEntry is a single cataloged item. URL is the natural key.
type ReadingListEntry struct {
	ID           int64
	URL          *url.URL
	SourceDate   time.Time
	OriginalText string
	BodyText     string
	Read         ReadState
}

func (e ReadingListEntry) String() string {
	return fmt.Sprintf("%s: %s -- %s", FormatDate(e.SourceDate), e.URL, e.BodyText)
}

// CatalogRow is an entry with the number of roundups it belongs to.
type CatalogRow struct {
	Entry    ReadingListEntry
	Roundups int
}

// RoundupRow is a candidate line of the roundup editor.
type RoundupRow struct {
	Entry    ReadingListEntry
	Roundups int
	Included bool
}

// RoundupDocument is an exported roundup ready for publishing.
type RoundupDocument struct {
	Date      time.Time
	FileName  string
	MediaType string
	Markdown  []byte
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the current local calendar date at midnight UTC.
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
