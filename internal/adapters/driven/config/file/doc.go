// Package file provides file-based configuration adapters.
//
// Adapters:
//   - RunFile: TOML or YAML description of one conversion run (output target,
//     ordered data interfaces, metadata override)
package file
