package encyclopedia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"go-toolchat/internal/tools/encyclopedia"
	"go-toolchat/pkg/models"
)

type upstream struct {
	search       func(w http.ResponseWriter, r *http.Request)
	summary      func(w http.ResponseWriter, r *http.Request)
	summaryPaths []string
}

func (u *upstream) start(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/w/api.php":
			u.search(w, r)
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			u.summaryPaths = append(u.summaryPaths, r.URL.EscapedPath())
			u.summary(w, r)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *encyclopedia.Client {
	return encyclopedia.New(encyclopedia.Config{BaseURL: srv.URL, Timeout: time.Second})
}

func writeJSON(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestLookupResolvesTitle(t *testing.T) {
	u := &upstream{
		search: writeJSON(`["real madrid", ["Real Madrid CF"], [""], ["https://en.wikipedia.org/wiki/Real_Madrid_CF"]]`),
		summary: writeJSON(`{
			"title": "Real Madrid CF",
			"description": "Spanish football club",
			"extract": "Real Madrid Club de Fútbol is a professional football club based in Madrid.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Real_Madrid_CF"}},
			"thumbnail": {"source": "https://upload.example/rm.png"}
		}`),
	}
	srv := u.start(t)

	var steps []string
	res := newClient(srv).Execute(context.Background(), models.Args{"query": "real madrid"}, func(s string) {
		steps = append(steps, s)
	})
	gt.True(t, res.OK)
	gt.NoError(t, res.Validate(models.ToolEncyclopedia))
	gt.Equal(t, res.Article.Title, "Real Madrid CF")
	gt.Equal(t, res.Article.Thumbnail, "https://upload.example/rm.png")
	gt.Equal(t, res.Article.Lang, "en")
	gt.Equal(t, u.summaryPaths[0], "/api/rest_v1/page/summary/Real_Madrid_CF")
	gt.A(t, steps).Length(2)
}

func TestLookupFallsBackToQuery(t *testing.T) {
	u := &upstream{
		search: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		summary: writeJSON(`{"extract": "Zanzibar is an archipelago."}`),
	}
	srv := u.start(t)

	res := newClient(srv).Execute(context.Background(), models.Args{"query": "Zanzibar Town"}, nil)
	gt.True(t, res.OK)
	gt.Equal(t, u.summaryPaths[0], "/api/rest_v1/page/summary/Zanzibar_Town")
	gt.Equal(t, res.Article.Title, "Zanzibar Town")
	gt.Equal(t, res.Article.URL, srv.URL+"/wiki/Zanzibar_Town")
	gt.Equal(t, res.Article.Thumbnail, "")
}

func TestLookupFailures(t *testing.T) {
	emptySearch := writeJSON(`["x", [], [], []]`)

	t.Run("not found", func(t *testing.T) {
		u := &upstream{search: emptySearch, summary: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}}
		res := newClient(u.start(t)).Execute(context.Background(), models.Args{"query": "Qwxyz"}, nil)
		gt.Equal(t, res.OK, false)
		gt.S(t, res.Error).Contains("couldn't find")
	})

	t.Run("server error", func(t *testing.T) {
		u := &upstream{search: emptySearch, summary: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}}
		res := newClient(u.start(t)).Execute(context.Background(), models.Args{"query": "Qwxyz"}, nil)
		gt.Equal(t, res.Error, "The encyclopedia service is unavailable right now.")
	})

	t.Run("empty extract", func(t *testing.T) {
		u := &upstream{search: emptySearch, summary: writeJSON(`{"title": "Qwxyz", "extract": "   "}`)}
		res := newClient(u.start(t)).Execute(context.Background(), models.Args{"query": "Qwxyz"}, nil)
		gt.Equal(t, res.OK, false)
		gt.Equal(t, res.Error, "That article has no summary available.")
	})

	t.Run("invalid language", func(t *testing.T) {
		u := &upstream{search: emptySearch, summary: writeJSON(`{}`)}
		res := newClient(u.start(t)).Execute(context.Background(), models.Args{"query": "Paris", "lang": "english"}, nil)
		gt.Equal(t, res.OK, false)
		gt.Equal(t, res.Error, "That language code is not valid.")
		gt.A(t, u.summaryPaths).Length(0)
	})
}

func TestValidLang(t *testing.T) {
	for _, ok := range []string{"en", "de", "pt-br", "PT-BR"} {
		gt.True(t, encyclopedia.ValidLang(ok))
	}
	for _, bad := range []string{"", "e", "eng", "en_us", "en-usa", "../x"} {
		gt.True(t, !encyclopedia.ValidLang(bad))
	}
}

func TestPageURL(t *testing.T) {
	gt.Equal(t, encyclopedia.PageURL("https://fr.wikipedia.org", "Tour Eiffel"), "https://fr.wikipedia.org/wiki/Tour_Eiffel")
	gt.Equal(t, encyclopedia.PageURL("https://en.wikipedia.org", "AC/DC"), "https://en.wikipedia.org/wiki/AC%2FDC")
}
