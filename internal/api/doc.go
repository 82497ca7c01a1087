// Package api contains the HTTP handlers, request/response models, and
// error mapping for the JSON API. Handlers translate between the wire
// format and the service layer; every error leaving this package carries
// a stable machine-readable code.
package api
