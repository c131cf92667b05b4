package offline_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/infrastructure/cachestorage"
	"github.com/bnema/candyland/internal/infrastructure/clients"
	"github.com/bnema/candyland/internal/infrastructure/network"
	"github.com/bnema/candyland/internal/offline"
)

type origin struct {
	*httptest.Server
	hits       atomic.Int64
	lastMethod atomic.Value
	lastBody   atomic.Value
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		switch r.URL.Path {
		case "/", "/index.html", "/actividades.html", "/examen.html", "/juego.html", "/offline.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, "page "+r.URL.Path)
		case "/styles.css", "/app.js", "/client.js", "/examen.js", "/manifest.json", "/img/badge.png":
			_, _ = io.WriteString(w, "asset "+r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		name := "guest"
		if c, err := r.Cookie("session"); err == nil {
			name = c.Value
			http.SetCookie(w, &http.Cookie{Name: "session", Value: c.Value})
		}
		if _, err := r.Cookie(offline.ClientCookie); err == nil {
			name += " (client cookie leaked)"
		}
		_, _ = io.WriteString(w, "hello "+name)
	})
	mux.HandleFunc("/private.json", func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		w.Header().Set("Cache-Control", "private, max-age=60")
		_, _ = io.WriteString(w, `{"score":9}`)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		o.lastMethod.Store(r.Method)
		o.lastBody.Store(string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	o.Server = httptest.NewServer(mux)
	t.Cleanup(o.Close)
	return o
}

type proxyFixture struct {
	origin  *origin
	reg     *offline.Registration
	clients *clients.Registry
	handler *offline.Handler
}

func newProxyFixture(t *testing.T, activate bool) *proxyFixture {
	t.Helper()
	o := newOrigin(t)
	storage := cachestorage.NewMemory()
	registry := clients.NewRegistry()
	reg := offline.NewRegistration(storage)

	if activate {
		w, err := offline.NewWorker(offline.DefaultConfig(o.URL+"/"), offline.Deps{
			Storage: storage,
			Network: network.NewFetcher(),
			Clients: registry,
		})
		require.NoError(t, err)
		require.NoError(t, reg.Update(testContext(), w))
	}

	h, err := offline.NewHandler(reg, o.URL+"/", registry)
	require.NoError(t, err)
	return &proxyFixture{origin: o, reg: reg, clients: registry, handler: h}
}

func (f *proxyFixture) do(method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body).WithContext(testContext())
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

var htmlAccept = http.Header{"Accept": []string{"text/html,application/xhtml+xml"}}

func TestHandler_ServesPrecachedAssetsWithoutOrigin(t *testing.T) {
	f := newProxyFixture(t, true)
	hits := f.origin.hits.Load()

	rec := f.do(http.MethodGet, "/styles.css", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asset /styles.css", rec.Body.String())
	assert.Equal(t, "precache", rec.Header().Get(offline.SourceHeader))
	assert.Equal(t, "17", rec.Header().Get("Content-Length"))
	assert.Equal(t, hits, f.origin.hits.Load())
}

func TestHandler_RuntimeFetchSurvivesOriginOutage(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodGet, "/img/badge.png", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "network", rec.Header().Get(offline.SourceHeader))

	f.origin.Close()

	rec = f.do(http.MethodGet, "/img/badge.png", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dynamic", rec.Header().Get(offline.SourceHeader))
	assert.Equal(t, "asset /img/badge.png", rec.Body.String())
}

func TestHandler_OfflineNavigationGetsOfflinePage(t *testing.T) {
	f := newProxyFixture(t, true)
	f.origin.Close()

	rec := f.do(http.MethodGet, "/lecciones/raices.html", nil, htmlAccept)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "offline", rec.Header().Get(offline.SourceHeader))
	assert.Equal(t, "page /offline.html", rec.Body.String())
}

func TestHandler_OfflineSubresourceFails(t *testing.T) {
	f := newProxyFixture(t, true)
	f.origin.Close()

	rec := f.do(http.MethodGet, "/img/photo.jpg", nil, http.Header{"Accept": []string{"image/*"}})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Header().Get(offline.SourceHeader))
}

func TestHandler_NonGetPassesThrough(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodPost, "/api/subscribe", strings.NewReader(`{"endpoint":"x"}`), nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get(offline.SourceHeader))
	assert.Equal(t, http.MethodPost, f.origin.lastMethod.Load())
	assert.Equal(t, `{"endpoint":"x"}`, f.origin.lastBody.Load())

	// A later GET for the same URL must not find anything cached from the POST.
	rec = f.do(http.MethodGet, "/api/subscribe", nil, nil)
	assert.Equal(t, "network", rec.Header().Get(offline.SourceHeader))
}

func TestHandler_PassThroughWhenOriginDown(t *testing.T) {
	f := newProxyFixture(t, true)
	f.origin.Close()

	rec := f.do(http.MethodPut, "/api/subscribe", strings.NewReader("{}"), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_NoActiveWorkerProxiesEverything(t *testing.T) {
	f := newProxyFixture(t, false)

	rec := f.do(http.MethodGet, "/index.html", nil, htmlAccept)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page /index.html", rec.Body.String())
	assert.Empty(t, rec.Header().Get(offline.SourceHeader))
}

func TestHandler_TracksNavigationClients(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodGet, "/juego.html", nil, htmlAccept)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, offline.ClientCookie, cookies[0].Name)
	id := cookies[0].Value

	header := htmlAccept.Clone()
	header.Set("Cookie", offline.ClientCookie+"="+id)
	rec = f.do(http.MethodGet, "/examen.html", nil, header)
	assert.Empty(t, rec.Result().Cookies())

	tracked := f.clients.Clients()
	require.Len(t, tracked, 1)
	assert.Equal(t, id, tracked[0].ID)
	assert.Equal(t, f.origin.URL+"/examen.html", tracked[0].URL)

	// Subresources are not page sessions.
	f.do(http.MethodGet, "/app.js", nil, nil)
	assert.Len(t, f.clients.Clients(), 1)
}

func TestHandler_Status(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodGet, offline.ControlPrefix+"status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status offline.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.NotNil(t, status.Active)
	assert.Equal(t, "v5", status.Active.Version)
	assert.Equal(t, "dynamic-v1", status.Active.Dynamic)

	rec = f.do(http.MethodPost, offline.ControlPrefix+"status", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_NotificationClick(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodGet, "/examen.html", nil, htmlAccept)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, offline.ControlPrefix+"notificationclick",
		strings.NewReader(`{"data":{"url":"/examen.html"}}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res offline.ClickResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, offline.ClickFocus, res.Action)

	rec = f.do(http.MethodPost, offline.ControlPrefix+"notificationclick", strings.NewReader(`{}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, offline.ClickOpen, res.Action)
	assert.Equal(t, f.origin.URL+"/", res.URL)

	rec = f.do(http.MethodPost, offline.ControlPrefix+"notificationclick", strings.NewReader(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, offline.ControlPrefix+"notificationclick", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_NotificationClickWithoutWorker(t *testing.T) {
	f := newProxyFixture(t, false)
	rec := f.do(http.MethodPost, offline.ControlPrefix+"notificationclick", strings.NewReader(`{}`), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewHandler_RejectsRelativeScope(t *testing.T) {
	_, err := offline.NewHandler(offline.NewRegistration(cachestorage.NewMemory()), "/relative", nil)
	assert.Error(t, err)
}

func TestHandler_UserSpecificResponsesStayOutOfDynamicCache(t *testing.T) {
	f := newProxyFixture(t, true)

	rec := f.do(http.MethodGet, "/me", nil, http.Header{"Cookie": []string{"session=alice"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello alice", rec.Body.String())
	assert.Equal(t, "network", rec.Header().Get(offline.SourceHeader))

	rec = f.do(http.MethodGet, "/me", nil, nil)
	assert.Equal(t, "hello guest", rec.Body.String())
	assert.Equal(t, "network", rec.Header().Get(offline.SourceHeader))
	assert.Empty(t, rec.Header().Values("Set-Cookie"))

	f.do(http.MethodGet, "/private.json", nil, nil)
	hits := f.origin.hits.Load()
	rec = f.do(http.MethodGet, "/private.json", nil, nil)
	assert.Equal(t, "network", rec.Header().Get(offline.SourceHeader))
	assert.Equal(t, hits+1, f.origin.hits.Load())
}

func TestHandler_ClientCookieIsNotForwardedOrTreatedAsCredential(t *testing.T) {
	f := newProxyFixture(t, true)
	cookie := http.Header{"Cookie": []string{offline.ClientCookie + "=abc"}}

	rec := f.do(http.MethodGet, "/img/badge.png", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodGet, "/img/badge.png", nil, cookie)
	assert.Equal(t, "dynamic", rec.Header().Get(offline.SourceHeader))

	rec = f.do(http.MethodGet, "/me", nil, cookie)
	assert.Equal(t, "hello guest", rec.Body.String())
}
