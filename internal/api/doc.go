// Package api contains the HTTP handlers, request/response models, and
// error mapping for the adaptive assessment API. Handlers translate
// between the wire format and the service layer; sanitized messages go to
// clients while full (redacted) errors go to the logs.
package api
