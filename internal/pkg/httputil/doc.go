// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls so every endpoint shares one JSON format and one error envelope.
// The envelope's "detail" key is what the portal front-end reads.
package httputil
