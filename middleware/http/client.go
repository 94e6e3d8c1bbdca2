package http

import (
	"errors"
	"net/http"

	b3 "github.com/openzipkin/b3-go"
)

// ErrValidEngineRequired error
var ErrValidEngineRequired = errors.New("valid engine required")

// NewClient returns client with its Transport wrapped for B3 propagation. A
// nil client is replaced by a fresh http.Client.
func NewClient(e *b3.Engine, client *http.Client, options ...TransportOption) (*http.Client, error) {
	if e == nil {
		return nil, ErrValidEngineRequired
	}

	if client == nil {
		client = &http.Client{}
	}

	options = append(options, RoundTripper(client.Transport))
	transport, err := NewTransport(e, options...)
	if err != nil {
		return nil, err
	}
	client.Transport = transport

	return client, nil
}
