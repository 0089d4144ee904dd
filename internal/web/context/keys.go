// Package context stores per-request values shared between middleware and
// handlers
package context

import (
	"context"

	"github.com/conduit-lang/delivery/internal/delivery"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	accessKey
	apiKeyValidKey
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRequestID adds the request ID to the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetAccess returns the access rules of the request. Requests that did not pass
// through the authentication middleware are anonymous and see published
// content only.
func GetAccess(ctx context.Context) delivery.Access {
	if access, ok := ctx.Value(accessKey).(delivery.Access); ok {
		return access
	}
	return delivery.Access{}
}

// SetAccess stores the access rules of the request
func SetAccess(ctx context.Context, access delivery.Access) context.Context {
	return context.WithValue(ctx, accessKey, access)
}

// HasValidAPIKey reports whether the request carried a valid Api-Key header
func HasValidAPIKey(ctx context.Context) bool {
	valid, _ := ctx.Value(apiKeyValidKey).(bool)
	return valid
}

// SetValidAPIKey records that the request carried a valid Api-Key header
func SetValidAPIKey(ctx context.Context, valid bool) context.Context {
	return context.WithValue(ctx, apiKeyValidKey, valid)
}
