// Package environment defines the command execution boundary. An
// Environment takes one extracted action, runs it and returns the raw
// output with its metadata (return code, duration, truncation flag).
// LocalEnvironment runs commands through a shell on the local machine;
// alternative backends (containers, remote VMs) implement the same
// interface.
package environment
