// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage. Dotted keys such as
//     "llm.model" map to nested tables in the file.
package file
