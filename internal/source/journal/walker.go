package journal

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"reading_roundup/internal/domain"
)

// tagPattern matches the first #reading, #read or #tbr on a line. Group 1 is
// the tag, group 2 the body that follows any spaces or colons.
var tagPattern = regexp.MustCompile(`^.*?#(reading|read|tbr)[ :]*(.*)$`)

const (
	noteExt      = ".md"
	maxLineBytes = 1 << 20
)

// Walker scans a tree of dated journal notes for tagged reading-list lines.
type Walker struct {
	logger *slog.Logger
}

func NewWalker(logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{logger: logger}
}

// ScanFiles collects the entries of every note under dir. Failures are
// isolated per file and per directory: a bad file contributes one error and
// no entries, an unreadable directory contributes one error and its
// children are skipped. Symlinks are neither followed nor scanned.
func (w *Walker) ScanFiles(dir string) ([]domain.ReadingListEntry, []error) {
	var (
		entries []domain.ReadingListEntry
		errs    []error
	)

	stack := []string{dir}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		w.logger.Debug("visiting directory", "path", current)
		children, err := os.ReadDir(current)
		if err != nil {
			errs = append(errs, &FileError{Path: current, Err: statIOError(err)})
			continue
		}

		for _, child := range children {
			path := filepath.Join(current, child.Name())
			mode := child.Type()

			switch {
			case mode.IsDir():
				stack = append(stack, path)
			case mode.IsRegular() && filepath.Ext(child.Name()) == noteExt:
				w.logger.Debug("scanning note", "path", path)
				found, err := w.ScanFile(path)
				if err != nil {
					errs = append(errs, &FileError{Path: path, Err: err})
					continue
				}
				entries = append(entries, found...)
			}
		}
	}

	return entries, errs
}

// ScanFile returns the entries of a single note. The file stem supplies the
// source date of every entry. The first line that fails to scan fails the
// whole file.
func (w *Walker) ScanFile(path string) ([]domain.ReadingListEntry, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || !utf8.ValidString(stem) {
		return nil, invalidFile(ReasonStemNotDecodable)
	}

	sourceDate, err := domain.ParseDate(stem)
	if err != nil {
		return nil, invalidFile(ReasonStemNotDate)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, scanIOError(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var entries []domain.ReadingListEntry
	for scanner.Scan() {
		line := scanner.Text()
		match := tagPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		entry, err := ScanBody(sourceDate, match[2])
		if err != nil {
			return nil, err
		}
		entry.OriginalText = line
		entry.Read = tagReadState(match[1])
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, scanIOError(err)
	}

	return entries, nil
}

func tagReadState(tag string) domain.ReadState {
	switch tag {
	case "read":
		return domain.ReadDone
	case "tbr":
		return domain.ReadToBeRead
	default:
		return domain.ReadUnknown
	}
}
