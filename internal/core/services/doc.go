// Package services implements the driving port interfaces.
// Services contain the core decision and ingestion logic and
// orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO; routing, validation and the
// parsing guards are deterministic functions with no I/O at all.
package services
