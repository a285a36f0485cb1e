// Package service provides the HTTP API of a photo catalog: tag queries run
// by either strategy, syntax tree inspection, and tag and image
// maintenance.
//
// Schemes: http
// Consumes:
// - application/json
// Produces:
// - application/json
// Version: v1.0.0
// swagger:meta
package service
