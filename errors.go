package extsort

import "github.com/bsm/extsort/internal/errs"

// The engine reports failures using a small set of typed errors, matching
// the taxonomy every layer of the pipeline can raise:
//
//   - SerializationError / DeserializationError wrap codec failures.
//   - ComparisonError wraps a panic recovered from a caller comparator.
//   - IOError wraps a temp-file or working-directory filesystem failure.
//   - ConfigError reports an invalid Config value caught before Sort starts.
//
// Input errors (an error value read from the input channel) are not
// wrapped: they abort the sort and surface verbatim, since the caller
// already knows their shape.
type (
	SerializationError   = errs.SerializationError
	DeserializationError = errs.DeserializationError
	ComparisonError      = errs.ComparisonError
	IOError              = errs.IOError
	ConfigError          = errs.ConfigError
)

var (
	// NewSerializationError creates a SerializationError.
	NewSerializationError = errs.NewSerializationError
	// NewDeserializationError creates a DeserializationError.
	NewDeserializationError = errs.NewDeserializationError
	// NewComparisonError creates a ComparisonError.
	NewComparisonError = errs.NewComparisonError
	// NewIOError creates an IOError.
	NewIOError = errs.NewIOError
	// NewConfigError creates a ConfigError.
	NewConfigError = errs.NewConfigError
)
