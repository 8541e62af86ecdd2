package cookie

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when no enabled cookie remains below its failure
// threshold. It is the only pool error callers are expected to act on;
// collection jobs abort with a dedicated exit code when they see it.
var ErrEmptyPool = errors.New("cookie pool has no usable entries")

// ErrAllCandidatesFailed is returned by TryWithFallback when every selected
// candidate failed live use. It wraps ErrEmptyPool so callers can treat both
// as "no usable credential" with a single errors.Is check.
var ErrAllCandidatesFailed = fmt.Errorf("all cookie candidates failed: %w", ErrEmptyPool)
