package payment

import "fmt"

// UnsupportedTypeError is returned when a payment method has no PTYP tag.
type UnsupportedTypeError struct {
	Method Method
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported payment type: %s", e.Method)
}
