package http

import (
	"net/http"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/propagation"
)

type transport struct {
	engine *b3.Engine
	rt     http.RoundTripper
}

// TransportOption allows one to configure optional transport configuration.
type TransportOption func(*transport)

// RoundTripper adds the Transport RoundTripper to wrap.
func RoundTripper(rt http.RoundTripper) TransportOption {
	return func(t *transport) {
		if rt != nil {
			t.rt = rt
		}
	}
}

// NewTransport returns a new RoundTripper which wraps every outbound request
// in a B3 sub-span.
func NewTransport(e *b3.Engine, options ...TransportOption) (http.RoundTripper, error) {
	if e == nil {
		return nil, ErrValidEngineRequired
	}

	t := &transport{
		engine: e,
		rt:     http.DefaultTransport,
	}

	for _, option := range options {
		option(t)
	}

	return t, nil
}

// RoundTrip satisfies the RoundTripper interface. The sub-span stays open
// until the response headers are received.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	headers, ctx := t.engine.StartSubspanFromContext(req.Context(), nil)
	defer t.engine.EndSubspan(ctx)

	// a RoundTripper must not modify the request it was handed
	req = req.Clone(ctx)
	for _, name := range b3.HeaderNames {
		req.Header.Del(name)
	}
	propagation.InjectHTTP(req.Header, headers)

	return t.rt.RoundTrip(req)
}
