package journal

import (
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"reading_roundup/internal/domain"
)

// The parser holds no per-document state and is shared by all scans.
// Linkify turns bare URLs in running text into links; angle-bracket
// autolinks are part of the core dialect.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
)

// ScanBody extracts the first usable link from a tagged body and builds the
// entry for it. The entry's original text and body text are both the body
// and its read state is unknown; ScanFile overwrites both for journal lines.
func ScanBody(date time.Time, body string) (domain.ReadingListEntry, error) {
	source := []byte(body)
	document, err := parse(source)
	if err != nil {
		return domain.ReadingListEntry{}, markdownError(body)
	}

	link := findURL(document, source)
	if link == nil {
		return domain.ReadingListEntry{}, missingLink(body)
	}

	return domain.ReadingListEntry{
		URL:          link,
		SourceDate:   date,
		OriginalText: body,
		BodyText:     body,
		Read:         domain.ReadUnknown,
	}, nil
}

func parse(source []byte) (document ast.Node, err error) {
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("body is not valid UTF-8")
	}
	defer func() {
		if r := recover(); r != nil {
			document = nil
			err = fmt.Errorf("markdown parser panic: %v", r)
		}
	}()
	return markdown.Parser().Parse(text.NewReader(source)), nil
}

// findURL walks the tree in pre-order and returns the first link whose
// destination is an absolute URL. A link with an unusable destination is
// skipped along with its label.
func findURL(document ast.Node, source []byte) *url.URL {
	var found *url.URL
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var dest []byte
		switch node := n.(type) {
		case *ast.Link:
			dest = node.Destination
		case *ast.AutoLink:
			if node.AutoLinkType != ast.AutoLinkURL {
				return ast.WalkSkipChildren, nil
			}
			dest = node.URL(source)
		default:
			return ast.WalkContinue, nil
		}

		if u, ok := absoluteURL(string(dest)); ok {
			found = u
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return found
}

func absoluteURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, false
	}
	return u, true
}
