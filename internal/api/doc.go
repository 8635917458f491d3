// Package api translates internal queue models into transport DTOs and
// exposes the intake, cancellation, status, and debug operations the HTTP
// layer and CLI serve. DTOs use camelCase JSON tags; internal enums travel
// as lowercase strings.
package api
