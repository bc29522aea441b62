package numexpr

import "numexpr/internal/errors"

func lastError() (string, bool) { return errors.Last() }

// recordLast sets the thread-local diagnostic slot from err (which may
// be nil, clearing it) and returns err unchanged, so call sites can
// write `return recordLast(err)` at every Compile/Evaluate return path.
func recordLast(err error) error {
	errors.SetLast(err)
	return err
}
