package codec

import "fmt"

// InvalidDiscriminantError reports an enumerated field holding a value outside
// its known set.
type InvalidDiscriminantError struct {
	Type  string
	Value int64
}

func (e *InvalidDiscriminantError) Error() string {
	return fmt.Sprintf("invalid discriminant for %s: %d", e.Type, e.Value)
}
