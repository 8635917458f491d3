// Package textutil provides text helpers for display titles and
// filesystem-safe names.
package textutil
