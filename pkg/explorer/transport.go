package explorer

import "context"

// Request is a single outbound call made on behalf of an adapter. A nil Body
// means GET, otherwise Body is JSON encoded and POSTed.
type Request struct {
	URL         string
	Method      string
	Body        any
	ForceHTTP   bool
	BearerToken string
}

// Transport performs requests and returns the raw response body. Non-success
// statuses must be reported as errors.
type Transport interface {
	Perform(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

func (f TransportFunc) Perform(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}
