package sampler

import "errors"

// Load-path and lookup errors. Runtime rendering never returns an error by
// construction; these are only ever surfaced from the non-realtime control
// API (sample loading, key-map queries used by tests and tooling).
var (
	// ErrInvalidSample is returned when a SampleDescriptor violates the
	// sample data model's invariants (bad channel count, empty buffer,
	// malformed start/end/loop points).
	ErrInvalidSample = errors.New("sampler: invalid sample descriptor")

	// ErrKeyMapInvalid is returned by lookups made before a successful
	// KeyMap.Build call, or after KeyMap.Invalidate cleared the map. Note events received in this state are silently dropped by the
	// engine; this error exists for callers that want to observe why.
	ErrKeyMapInvalid = errors.New("sampler: key map has not been built")

	// ErrNoSampleMapped is returned when a lookup finds a non-empty bucket
	// but no buffer in it matches the requested velocity.
	ErrNoSampleMapped = errors.New("sampler: no sample mapped to key/velocity")
)
