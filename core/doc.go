// Package core contains the shared data model used across the agent,
// model and environment packages: conversation messages, extracted
// actions and raw execution output. It has no dependencies on the other
// project packages so every layer can exchange these types freely.
package core
