// Package mbot drives an mBot over a Link.
//
// A Driver owns one Link. A background reader decodes response frames
// and resolves the pending request carrying the same id; commands are
// written by the caller's goroutine.
package mbot
