package errors

import "fmt"

// SyntaxError represents an annotation comment that could not be parsed
type SyntaxError struct {
	*BaseError
	Text string // the offending annotation text
}

// NewSyntaxError creates a syntax error for annotation text at loc
func NewSyntaxError(text string, loc SourceLocation, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError: Wrap(SyntaxErrorCode, fmt.Sprintf("invalid annotation %q", text), cause).
			WithLocation(loc).
			WithSuggestion("Annotations look like //anno:Name or //anno:Name(param=value, list=[a, b])"),
		Text: text,
	}
}

// WrapLoadError wraps an error raised while loading Go sources
func WrapLoadError(item string, cause error) *BaseError {
	return Wrap(LoadErrorCode, fmt.Sprintf("failed to load %s", item), cause).
		WithContext("item", item)
}

// WrapManifestError wraps an error raised while reading an expectation manifest
func WrapManifestError(path string, cause error) *BaseError {
	return Wrap(ManifestErrorCode, fmt.Sprintf("invalid manifest %s", path), cause).
		WithContext("path", path)
}

// LoadErrorAt creates a load error pinned to a source location
func LoadErrorAt(loc SourceLocation, format string, args ...interface{}) *BaseError {
	return Newf(LoadErrorCode, format, args...).WithLocation(loc)
}
