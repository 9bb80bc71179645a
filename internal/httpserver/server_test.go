package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reading_roundup/internal/config"
	"reading_roundup/internal/service"
	"reading_roundup/internal/source/journal"
	"reading_roundup/internal/storage/catalog"
	"reading_roundup/internal/storage/catalog/catalogtest"
)

type ServerTestSuite struct {
	suite.Suite
	dir     string
	catalog *service.CatalogService
	router  http.Handler
}

func (s *ServerTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	logger := slog.New(slog.DiscardHandler)
	db := catalogtest.Open(s.T())

	s.catalog = service.NewCatalogService(
		catalog.NewEntryStore(db),
		catalog.NewRoundupStore(db),
		catalog.NewTransactionManager(db),
		nil,
		logger,
	)
	syncer := service.NewSyncService(journal.New(journal.Config{Dir: s.dir}, logger), s.catalog, logger)
	s.router = NewRouter(config.HTTPConfig{RequestTimeout: 5 * time.Second}, s.catalog, syncer, logger)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *ServerTestSuite) writeNote(name, content string) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0o644))
}

func (s *ServerTestSuite) createEntry(text string) string {
	rec := s.do(http.MethodPost, "/articles/", url.Values{formText: {text}})
	s.Require().Equal(http.StatusSeeOther, rec.Code, rec.Body.String())
	return rec.Header().Get("Location")
}

func (s *ServerTestSuite) TestRootRedirects() {
	rec := s.do(http.MethodGet, "/", nil)
	s.Equal(http.StatusFound, rec.Code)
	s.Equal("/roundups/", rec.Header().Get("Location"))
}

func (s *ServerTestSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *ServerTestSuite) TestUpdate_Clean() {
	s.writeNote("2024-03-15.md", "- #reading check out [Foo](https://foo.example/)\n")

	rec := s.do(http.MethodPost, "/update/", nil)
	s.Equal(http.StatusOK, rec.Code)

	var body updateJSON
	s.decode(rec, &body)
	s.Equal(1, body.Found)
	s.Equal(int64(1), body.Added)
	s.Equal(int64(1), body.Total)
	s.Empty(body.ScanErrors)
}

func (s *ServerTestSuite) TestUpdate_ScanErrorsAnswer500WithCommittedEntries() {
	s.writeNote("2024-03-15.md", "#reading [Foo](https://foo.example/)\n")
	s.writeNote("README.md", "#reading [Bar](https://bar.example/)\n")

	rec := s.do(http.MethodPost, "/update/", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)

	var body updateJSON
	s.decode(rec, &body)
	s.Equal(int64(1), body.Added)
	s.Require().Len(body.ScanErrors, 1)
	s.Contains(body.ScanErrors[0], "README.md")
	s.Empty(body.Error)
}

func (s *ServerTestSuite) TestCreateAndGetEntry() {
	location := s.createEntry("read [Foo](https://foo.example/)")
	s.True(strings.HasPrefix(location, "/articles/"))

	rec := s.do(http.MethodGet, location, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var e entryJSON
	s.decode(rec, &e)
	s.Equal("https://foo.example/", e.URL)
	s.Equal("read [Foo](https://foo.example/)", e.BodyText)
	s.Equal("unknown", e.Read)
	s.Zero(e.Roundups)
	s.Nil(e.Included)
}

func (s *ServerTestSuite) TestCreateEntry_NoLink() {
	rec := s.do(http.MethodPost, "/articles/", url.Values{formText: {"nothing to see"}})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *ServerTestSuite) TestCreateEntry_EmptyText() {
	rec := s.do(http.MethodPost, "/articles/", url.Values{formText: {"  "}})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestUpdateEntry() {
	location := s.createEntry("[Foo](https://foo.example/)")

	rec := s.do(http.MethodPost, location, url.Values{formBodyText: {"edited"}, formRead: {"tbr"}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal(location, rec.Header().Get("Location"))

	var e entryJSON
	s.decode(s.do(http.MethodGet, location, nil), &e)
	s.Equal("edited", e.BodyText)
	s.Equal("tbr", e.Read)
}

func (s *ServerTestSuite) TestUpdateEntry_InvalidReadState() {
	location := s.createEntry("[Foo](https://foo.example/)")
	rec := s.do(http.MethodPost, location, url.Values{formBodyText: {"x"}, formRead: {"maybe"}})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestGetEntry_Errors() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/articles/42/", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/articles/abc/", nil).Code)
}

func (s *ServerTestSuite) TestRoundupFlow() {
	first := s.createEntry("A [a](https://a.example/)")
	second := s.createEntry("B [b](https://b.example/)")
	firstID := strings.Trim(strings.TrimPrefix(first, "/articles/"), "/")
	secondID := strings.Trim(strings.TrimPrefix(second, "/articles/"), "/")

	rec := s.do(http.MethodPost, "/roundups/", url.Values{formNewRoundup: {"2024-03-01"}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/roundups/2024-03-01/", rec.Header().Get("Location"))

	rec = s.do(http.MethodPost, "/roundups/2024-03-01/", url.Values{formIncluded: {secondID, firstID, secondID}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)

	var dates []string
	s.decode(s.do(http.MethodGet, "/roundups/", nil), &dates)
	s.Equal([]string{"2024-03-01"}, dates)

	var rows []entryJSON
	s.decode(s.do(http.MethodGet, "/roundups/2024-03-01/", nil), &rows)
	s.Require().Len(rows, 2)
	for _, row := range rows {
		s.Require().NotNil(row.Included)
		s.True(*row.Included)
		s.Equal(1, row.Roundups)
	}

	s.decode(s.do(http.MethodGet, "/roundups/by-article/"+firstID+"/", nil), &dates)
	s.Equal([]string{"2024-03-01"}, dates)

	rec = s.do(http.MethodGet, "/roundups/2024-03-01/md", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("text/markdown; charset=UTF-8", rec.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="2024-03-01.md"`, rec.Header().Get("Content-Disposition"))
	s.True(strings.HasPrefix(rec.Body.String(), "---\ntitle: \"Reading Roundup, 2024-03-01\"\ndate: 2024-03-01\n---\n\n"))
	s.Contains(rec.Body.String(), "A [a](https://a.example/)\n\n")
	s.Contains(rec.Body.String(), "B [b](https://b.example/)\n\n")

	rec = s.do(http.MethodPost, "/roundups/2024-03-01/", url.Values{formIncluded: {secondID}})
	s.Require().Equal(http.StatusSeeOther, rec.Code)

	var listed []entryJSON
	s.decode(s.do(http.MethodGet, "/articles/", nil), &listed)
	s.Require().Len(listed, 2)
	s.Equal("A [a](https://a.example/)", listed[0].BodyText)
	s.Equal(0, listed[0].Roundups)
}

func (s *ServerTestSuite) TestRoundup_BadInput() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/roundups/2024-13-01/", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/roundups/", url.Values{formNewRoundup: {"soon"}}).Code)
	s.Equal(http.StatusBadRequest,
		s.do(http.MethodPost, "/roundups/2024-03-01/", url.Values{formIncluded: {"x"}}).Code)
}

func (s *ServerTestSuite) TestPublish_Disabled() {
	rec := s.do(http.MethodPost, "/roundups/2024-03-01/publish", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"error":"publishing is disabled"}`, rec.Body.String())
}

func (s *ServerTestSuite) TestUpdate_CancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/update/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusInternalServerError, rec.Code)
}
