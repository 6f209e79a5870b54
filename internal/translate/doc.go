// Package translate drives the full translation protocol for one source
// text: estimate a batch size, invoke the active backend, persist every
// recovered language immediately, shrink the batch or drop to per-language
// requests on partial failure, and fail over between backends until the
// unit is complete or no backend remains usable.
package translate
