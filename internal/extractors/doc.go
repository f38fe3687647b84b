// Package extractors provides implementations of the Extractor interface
// for various document formats. Each extractor reads the pages of files
// with specific extensions.
//
// Extractors are registered with a Registry at startup.
package extractors
