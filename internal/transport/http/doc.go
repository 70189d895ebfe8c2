// Package http contains the chi HTTP handlers. Handlers bind and validate
// requests, delegate to the service layer, and render either JSON via
// go-chi/render or RFC 7807 problem responses through the shared error
// handler.
package http
