package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BenchError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found: "+path).
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BenchError {
	return New(CategoryValidation, SeverityFatal, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Input errors

// ResultNotFound reports a result summary or timing file that does not exist.
func ResultNotFound(label, path string) *BenchError {
	return New(CategoryNotFound, SeverityError, fmt.Sprintf("%s result file does not exist: %s", label, path)).
		WithContext("path", path)
}

func ParseFailed(path string, cause error) *BenchError {
	return Wrap(cause, CategoryParse, SeverityFatal, "malformed JSON input").
		WithContext("path", path)
}

// Recorder errors

func InvalidNumCalls(tag string, n int) *BenchError {
	return New(CategoryValidation, SeverityFatal, fmt.Sprintf("num_calls must be positive, got %d", n)).
		WithContext("tag", tag)
}

func DeviceSyncFailed(phase string, cause error) *BenchError {
	return Wrap(cause, CategoryDevice, SeverityFatal, "device synchronization failed").
		WithContext("phase", phase)
}

func NoAccelerator() *BenchError {
	return New(CategoryDevice, SeverityError, "no accelerator allocator is active")
}

// Filesystem errors

func FileSystemError(operation, path string, cause error) *BenchError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, operation+" failed").
		WithContext("path", path)
}

func ArchiveError(operation string, cause error) *BenchError {
	return Wrap(cause, CategoryArchive, SeverityError, "archive "+operation+" failed")
}

// Internal errors

func InternalError(message string, cause error) *BenchError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
