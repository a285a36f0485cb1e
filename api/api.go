// Package api defines the request and response bodies of the tagq HTTP
// service.  All bodies are JSON.
package api

import (
	"context"
	"encoding/json"

	"github.com/jeremymatt/photo-manager/schema"
)

const RequestIDHeader = "X-Request-ID"

const MediaTypeJSON = "application/json"

type contextKey string

const requestIDKey contextKey = RequestIDHeader

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// Error is the body of every error response.  Column is the 1-based
// position in the query of a syntax, type or unknown field error.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"error"`
	Column  int    `json:"column,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

// Query strategies.
const (
	StrategyBatch  = "batch"
	StrategyDirect = "direct"
)

type QueryRequest struct {
	Query string `json:"query"`
	// Strategy is StrategyBatch (the default) or StrategyDirect.
	Strategy string `json:"strategy,omitempty"`
}

type QueryResponse struct {
	// Canonical is the normalized query text.  It is empty for the empty
	// query, which matches every image.
	Canonical string   `json:"canonical"`
	Strategy  string   `json:"strategy"`
	IDs       []int64  `json:"ids"`
	Paths     []string `json:"paths"`
	Count     int      `json:"count"`
}

type ASTRequest struct {
	Query     string `json:"query"`
	Normalize bool   `json:"normalize,omitempty"`
}

type ASTResponse struct {
	AST       json.RawMessage `json:"ast"`
	Canonical string          `json:"canonical"`
}

type Tag struct {
	ID     int64  `json:"id"`
	Path   string `json:"path"`
	Parent int64  `json:"parent,omitempty"`
}

type TagPostRequest struct {
	Path string `json:"path"`
}

type ImagePostRequest struct {
	Path   string         `json:"path"`
	Fields map[string]any `json:"fields,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
}

type ImagePostResponse struct {
	ID int64 `json:"id"`
}

type FieldsResponse struct {
	Fields []schema.Field `json:"fields"`
}

type StatusResponse struct {
	OK      bool   `json:"ok"`
	Dialect string `json:"dialect"`
	Images  int    `json:"images"`
	Tags    int    `json:"tags"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
