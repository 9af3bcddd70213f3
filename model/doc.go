// Package model defines the language model boundary: an implementation
// receives the full message history and returns exactly one assistant turn
// together with the shell actions extracted from it and the cost of the
// call. Concrete adapters live in the anthropic and openai subpackages;
// MockModel provides a scripted implementation for tests.
package model
