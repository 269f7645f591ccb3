package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("aurora: invalid config")
	ErrNotFound      = fmt.Errorf("aurora: not found")
	ErrInvalidParams = fmt.Errorf("aurora: invalid params")
	ErrInternal      = fmt.Errorf("aurora: internal error")
	ErrContract      = fmt.Errorf("aurora: response does not match contract")
	ErrCompletion    = fmt.Errorf("aurora: completion failed")
)
