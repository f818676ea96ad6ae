package advisor

import "errors"

// ErrMalformedInput rejects a turn carrying neither free text nor structured
// fields. Surfaced to the caller; no session state is mutated.
var ErrMalformedInput = errors.New("malformed input: message or structured fields required")
