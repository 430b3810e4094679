// Package services implements the driving port interfaces.
// Services contain the core conversion logic: instantiating data interfaces,
// merging their metadata and driving them into one shared target through the
// driven ports (adapters).
//
// Services are pure Go with no CGO dependencies.
package services
