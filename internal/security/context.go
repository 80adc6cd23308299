package security

import "context"

type clientKey struct{}

// Client is the network origin of the request being served.
type Client struct {
	IP        string
	UserAgent string
}

func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// EventSink is the ingestion side of the Monitor, for producers that should
// not depend on the rest of it.
type EventSink interface {
	LogEvent(ctx context.Context, typ EventType, details Details) (string, error)
}
