package worker

import "fmt"

type panicError struct {
	value any
}

func (err *panicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", err.value)
}
