// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - InterfaceClass: A kind of data interface, described by its schemas
//   - DataInterface: An interface bound to one source, proposing metadata and writing content
//   - DocumentWriter: The write surface data interfaces see
//   - DocumentTarget: The shared output of a run (SQLite file or in-memory document)
//   - TargetOpener: Opens targets according to their mode
//
// # Import Rules
//
//   - Can Import: domain and schema packages only
//   - Cannot Import: Any adapter or data interface package
package driven
