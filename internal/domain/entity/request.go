package entity

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request is the part of an outgoing request that the offline worker looks at.
// URL is absolute once the request has been resolved against the origin.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// NewRequest creates a request with an empty header set.
func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: method,
		URL:    rawURL,
		Header: make(http.Header),
	}
}

// IsGet reports whether the request uses the GET method.
func (r *Request) IsGet() bool {
	return strings.EqualFold(r.Method, http.MethodGet)
}

// AcceptsHTML reports whether the Accept header asks for an HTML document.
// A request without an Accept header is treated as not HTML.
func (r *Request) AcceptsHTML() bool {
	if r.Header == nil {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	return strings.Contains(accept, "text/html")
}

// HasCredentials reports whether the request carries cookies or an
// Authorization header, so its response may be specific to one user.
func (r *Request) HasCredentials() bool {
	if r.Header == nil {
		return false
	}
	return r.Header.Get("Cookie") != "" || r.Header.Get("Authorization") != ""
}

// Key returns the normalized cache key: upper-case method, a space, and the URL
// without its fragment.
func (r *Request) Key() string {
	return RequestKey(r.Method, r.URL)
}

// RequestKey normalizes a method and URL into a cache key.
func RequestKey(method, rawURL string) string {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return method + " " + rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	return method + " " + u.String()
}

// Response is a stored response snapshot.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Shared reports whether the response may be stored in a cache that answers
// every client: it sets no cookie and is neither private nor no-store.
func (r *Response) Shared() bool {
	if len(r.Header.Values("Set-Cookie")) > 0 {
		return false
	}
	for _, v := range r.Header.Values("Cache-Control") {
		for _, directive := range strings.Split(v, ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(directive), "=")
			switch strings.ToLower(name) {
			case "private", "no-store":
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy so one copy can be handed to the caller while the
// other is persisted.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		Status:   r.Status,
		Header:   r.Header.Clone(),
		StoredAt: r.StoredAt,
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	return c
}
