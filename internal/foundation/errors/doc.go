// Package errors provides the classified error type used across gardenbuild.
//
// A ClassifiedError carries a category (config, content, plugin, build, ...),
// a severity, a user-facing hint and structured context. The CLI adapter maps
// categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "front matter is not valid YAML").
//		WithContext("file", relPath).
//		WithHint("check the block between the --- delimiters").
//		Build()
package errors
