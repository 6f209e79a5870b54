// Package backend provides the two translation backends (OpenAI and Gemini)
// behind a common interface, the shared availability pool that tracks which
// backends remain usable for the run, and the invoker that issues a single
// rate-limited, circuit-broken translation request.
package backend
