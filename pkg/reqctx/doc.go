// Package reqctx carries per-request values (request metadata and the
// caller's opaque credential) through context.Context without exposing the
// context keys themselves.
package reqctx
