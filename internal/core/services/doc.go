// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Outside the ports they only import
// small helpers (uuid, x/sync) and the text packages they orchestrate.
package services
