// Package shell contains the imperative glue shared by all command and query handlers:
// retry with exponential backoff, handler results, observability helpers, queue promotion
// and post-commit notification dispatch.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'application' layer.
package shell
