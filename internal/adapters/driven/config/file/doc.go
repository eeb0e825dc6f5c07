// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration with filter tuning hot reload
//   - TemplateStore: user-editable comment templates
package file
