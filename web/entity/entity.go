// Package entity defines shared response types for the web layer.
package entity

// Msg is the envelope for JSON API responses.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}
