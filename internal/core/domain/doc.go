// Package domain defines the core entities of a conversion run.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - SourceData: Ordered plugin name to raw configuration mapping
//   - Metadata: The nested metadata tree merged across plugins
//   - Document: The unified output every plugin writes into
//   - TargetDescriptor: Where and how the output is opened
//   - OptionDimensions: Joint vs independent conversion options
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, go-cmp (content comparison)
//   - Cannot Import: Any internal/ package
package domain
