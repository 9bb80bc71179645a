package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"reading_roundup/internal/domain"
	"reading_roundup/internal/export"
	"reading_roundup/internal/service"
	"reading_roundup/internal/source/journal"
)

const (
	paramDate = "date"
	paramID   = "id"

	formNewRoundup = "new-roundup"
	formIncluded   = "article-included"
	formText       = "text"
	formBodyText   = "body_text"
	formRead       = "read"
)

type handlers struct {
	catalog Catalog
	syncer  Syncer
	logger  *slog.Logger
}

func (h *handlers) register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/roundups/", http.StatusFound)
	})
	r.Get("/healthz", h.healthz)

	r.Post("/update/", h.wrap(h.update))

	r.Route("/roundups", func(r chi.Router) {
		r.Get("/", h.wrap(h.listRoundups))
		r.Post("/", h.wrap(h.newRoundup))
		r.Get("/by-article/{id}/", h.wrap(h.roundupsByEntry))
		r.Get("/{date}/", h.wrap(h.getRoundup))
		r.Post("/{date}/", h.wrap(h.setRoundup))
		r.Get("/{date}/md", h.wrap(h.exportRoundup))
		r.Post("/{date}/publish", h.wrap(h.publishRoundup))
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.wrap(h.listEntries))
		r.Post("/", h.wrap(h.createEntry))
		r.Get("/{id}/", h.wrap(h.getEntry))
		r.Post("/{id}/", h.wrap(h.updateEntry))
	})
}

func (h *handlers) wrap(fn AppHandler) http.HandlerFunc {
	return MakeHandler(h.logger, fn)
}

type entryJSON struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	SourceDate   string `json:"source_date"`
	OriginalText string `json:"original_text"`
	BodyText     string `json:"body_text"`
	Read         string `json:"read"`
	Roundups     int    `json:"roundups"`
	Included     *bool  `json:"included,omitempty"`
}

func toEntryJSON(e domain.ReadingListEntry, roundups int) entryJSON {
	return entryJSON{
		ID:           e.ID,
		URL:          e.URL.String(),
		SourceDate:   domain.FormatDate(e.SourceDate),
		OriginalText: e.OriginalText,
		BodyText:     e.BodyText,
		Read:         e.Read.String(),
		Roundups:     roundups,
	}
}

type updateJSON struct {
	Found      int      `json:"found"`
	Added      int64    `json:"added"`
	Total      int64    `json:"total"`
	ScanErrors []string `json:"scan_errors"`
	Error      string   `json:"error,omitempty"`
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.FormatDate(d))
	}
	return out
}

func parseDateParam(r *http.Request) (time.Time, error) {
	raw := chi.URLParam(r, paramDate)
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, errBadRequest(fmt.Sprintf("invalid date %q", raw), err)
	}
	return d, nil
}

func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, paramID)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errBadRequest(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// update answers 500 when the scan or the store reported anything, with
// both in the body.
func (h *handlers) update(w http.ResponseWriter, r *http.Request) error {
	report, err := h.syncer.Sync(r.Context())
	if report == nil {
		return err
	}

	body := updateJSON{
		Found:      report.Found,
		Added:      report.Added(),
		Total:      report.After,
		ScanErrors: make([]string, 0, len(report.ScanErrors)),
	}
	for _, scanErr := range report.ScanErrors {
		body.ScanErrors = append(body.ScanErrors, scanErr.Error())
	}

	code := http.StatusOK
	if err != nil {
		h.logger.Error("update failed", "error", err)
		body.Error = "catalog update failed"
		code = http.StatusInternalServerError
	} else if len(report.ScanErrors) > 0 {
		code = http.StatusInternalServerError
	}

	respondJSON(w, code, body)
	return nil
}

func (h *handlers) listRoundups(w http.ResponseWriter, r *http.Request) error {
	dates, err := h.catalog.ListRoundups(r.Context())
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, formatDates(dates))
	return nil
}

func (h *handlers) newRoundup(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return errBadRequest("invalid form", err)
	}
	raw := r.PostForm.Get(formNewRoundup)
	d, err := domain.ParseDate(raw)
	if err != nil {
		return errBadRequest(fmt.Sprintf("invalid date %q", raw), err)
	}
	http.Redirect(w, r, "/roundups/"+domain.FormatDate(d)+"/", http.StatusSeeOther)
	return nil
}

func (h *handlers) roundupsByEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	dates, err := h.catalog.ListRoundupsByEntry(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, formatDates(dates))
	return nil
}

func (h *handlers) getRoundup(w http.ResponseWriter, r *http.Request) error {
	d, err := parseDateParam(r)
	if err != nil {
		return err
	}
	rows, err := h.catalog.GetRoundup(r.Context(), d)
	if err != nil {
		return err
	}

	out := make([]entryJSON, 0, len(rows))
	for _, row := range rows {
		e := toEntryJSON(row.Entry, row.Roundups)
		included := row.Included
		e.Included = &included
		out = append(out, e)
	}
	respondJSON(w, http.StatusOK, out)
	return nil
}

// setRoundup replaces the membership with the submitted ids, each kept
// once in submission order.
func (h *handlers) setRoundup(w http.ResponseWriter, r *http.Request) error {
	d, err := parseDateParam(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return errBadRequest("invalid form", err)
	}

	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(r.PostForm[formIncluded]))
	for _, raw := range r.PostForm[formIncluded] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errBadRequest(fmt.Sprintf("invalid id %q", raw), err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if err := h.catalog.SetRoundup(r.Context(), d, ids); err != nil {
		return err
	}
	http.Redirect(w, r, "/roundups/"+domain.FormatDate(d)+"/", http.StatusSeeOther)
	return nil
}

func (h *handlers) exportRoundup(w http.ResponseWriter, r *http.Request) error {
	d, err := parseDateParam(r)
	if err != nil {
		return err
	}
	doc, err := h.catalog.ComposeRoundupMarkdown(r.Context(), d)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", export.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(d)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
	return nil
}

func (h *handlers) publishRoundup(w http.ResponseWriter, r *http.Request) error {
	d, err := parseDateParam(r)
	if err != nil {
		return err
	}
	err = h.catalog.PublishRoundup(r.Context(), d)
	if errors.Is(err, service.ErrPublishingDisabled) {
		return newHTTPError(http.StatusServiceUnavailable, "publishing is disabled", err)
	}
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "published", "date": domain.FormatDate(d)})
	return nil
}

func (h *handlers) listEntries(w http.ResponseWriter, r *http.Request) error {
	rows, err := h.catalog.ListEntries(r.Context())
	if err != nil {
		return err
	}
	out := make([]entryJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEntryJSON(row.Entry, row.Roundups))
	}
	respondJSON(w, http.StatusOK, out)
	return nil
}

func isScanError(err error) bool {
	return errors.Is(err, journal.ErrMissingLink) || errors.Is(err, journal.ErrMarkdown)
}

func (h *handlers) createEntry(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return errBadRequest("invalid form", err)
	}
	text := strings.TrimSpace(r.PostForm.Get(formText))
	if text == "" {
		return errBadRequest("text is required", nil)
	}

	id, err := h.catalog.CreateEntry(r.Context(), text)
	if isScanError(err) {
		return errUnprocessable("text contains no usable link", err)
	}
	if err != nil {
		return err
	}
	http.Redirect(w, r, fmt.Sprintf("/articles/%d/", id), http.StatusSeeOther)
	return nil
}

func (h *handlers) getEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	row, err := h.catalog.GetEntry(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return errNotFound(fmt.Sprintf("entry %d not found", id), err)
	}
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, toEntryJSON(row.Entry, row.Roundups))
	return nil
}

func (h *handlers) updateEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return errBadRequest("invalid form", err)
	}
	read, err := domain.ParseReadState(r.PostForm.Get(formRead))
	if err != nil {
		return errBadRequest(err.Error(), err)
	}

	if err := h.catalog.UpdateEntry(r.Context(), id, r.PostForm.Get(formBodyText), read); err != nil {
		return err
	}
	http.Redirect(w, r, fmt.Sprintf("/articles/%d/", id), http.StatusSeeOther)
	return nil
}
