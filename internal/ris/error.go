package ris

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ServerError is a non-2xx answer from the risk endpoint.
type ServerError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *ServerError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Unable to log in. Unauthorized request.(401)"
	case http.StatusInternalServerError:
		return "Unable to log in. There was an error logging in.(500)"
	case http.StatusNotImplemented:
		return "Unable to log in. Unauthorized request(using certificate).(501)"
	case http.StatusNotFound:
		return "Unable to connect. The service was not available.(404)"
	case http.StatusServiceUnavailable:
		return "Unable to connect. The service was not available.(503)"
	case http.StatusGatewayTimeout:
		return "Unable to connect. Timeout request.(504)"
	default:
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Status)
	}
}

// NetworkError means the risk endpoint could not be reached.
type NetworkError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NetworkError) Error() string {
	if e.IsTimeout() {
		return fmt.Sprintf("TIMEOUT = %d.", e.Timeout.Milliseconds())
	}
	return fmt.Sprintf("Unable to contact server %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) IsTimeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
