package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

const (
	// ControlPrefix is the path prefix of the proxy's own endpoints.
	ControlPrefix = "/__candyland/"

	// ClientCookie identifies a page session across navigations.
	ClientCookie = "candyland_client"

	// SourceHeader reports where an intercepted response came from.
	SourceHeader = "X-Candyland-Source"
)

// ClientTracker records page sessions seen by the proxy.
type ClientTracker interface {
	// Track records that client id is showing url and returns the id to use,
	// assigning a new one when id is empty or unknown.
	Track(ctx context.Context, id, url string) (string, error)
}

// Handler serves an origin through the registration's active worker. GET
// requests are intercepted; every other method, and every request made while no
// worker is active, is proxied to the origin untouched.
type Handler struct {
	reg     *Registration
	scope   *url.URL
	clients ClientTracker
	proxy   *httputil.ReverseProxy
}

// NewHandler creates a proxy handler for the origin at scope.
func NewHandler(reg *Registration, scope string, clients ClientTracker) (*Handler, error) {
	u, err := url.Parse(scope)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("scope %q must be an absolute URL", scope)
	}

	h := &Handler{reg: reg, scope: u, clients: clients}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = u.Scheme
			pr.Out.URL.Host = u.Host
			pr.Out.Host = u.Host
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromContext(r.Context()).Warn().Err(err).Str("method", r.Method).Msg("pass-through request failed")
			http.Error(w, "origin unreachable", http.StatusBadGateway)
		},
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case ControlPrefix + "status":
		h.serveStatus(w, r)
		return
	case ControlPrefix + "notificationclick":
		h.serveNotificationClick(w, r)
		return
	}

	if !Intercepts(r.Method) {
		h.proxy.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()
	req := h.toRequest(r)
	result, err := h.reg.Fetch(ctx, req)
	if errors.Is(err, ErrNoActiveWorker) {
		h.proxy.ServeHTTP(w, r)
		return
	}
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			http.Error(w, "offline: network request failed", http.StatusBadGateway)
			return
		}
		logging.FromContext(ctx).Error().Err(err).Str("url", req.URL).Msg("interception failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if req.AcceptsHTML() {
		h.trackClient(w, r, req.URL)
	}
	writeResponse(w, result)
}

func (h *Handler) toRequest(r *http.Request) *entity.Request {
	ref := &url.URL{Path: r.URL.Path, RawPath: r.URL.RawPath, RawQuery: r.URL.RawQuery}
	header := r.Header.Clone()
	dropClientCookie(header, r.Cookies())
	return &entity.Request{
		Method: r.Method,
		URL:    h.scope.ResolveReference(ref).String(),
		Header: header,
	}
}

// dropClientCookie removes the proxy's own client cookie; the origin never set
// it and it must not make a request look credentialed.
func dropClientCookie(header http.Header, cookies []*http.Cookie) {
	kept := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == ClientCookie {
			continue
		}
		kept = append(kept, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	if len(kept) == 0 {
		header.Del("Cookie")
		return
	}
	header.Set("Cookie", strings.Join(kept, "; "))
}

func (h *Handler) trackClient(w http.ResponseWriter, r *http.Request, pageURL string) {
	if h.clients == nil {
		return
	}
	var current string
	if c, err := r.Cookie(ClientCookie); err == nil {
		current = c.Value
	}
	id, err := h.clients.Track(r.Context(), current, pageURL)
	if err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Msg("failed to track client")
		return
	}
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     ClientCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func writeResponse(w http.ResponseWriter, result *FetchResult) {
	resp := result.Response
	header := w.Header()
	for k, values := range resp.Header {
		if k == "Content-Length" {
			continue
		}
		for _, v := range values {
			header.Add(k, v)
		}
	}
	header.Set(SourceHeader, string(result.Source))
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.Status())
}

type notificationClickRequest struct {
	Data map[string]any `json:"data"`
}

func (h *Handler) serveNotificationClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body notificationClickRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	result, err := h.reg.NotificationClick(r.Context(), NotificationClick{Data: body.Data})
	if errors.Is(err, ErrNoActiveWorker) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("notification click failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
