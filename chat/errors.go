package chat

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

var (
	ErrIndexRequired      = errors.New("vector index is required")
	ErrProviderRequired   = errors.New("model provider is required")
	ErrRepositoryRequired = errors.New("thread repository is required")
)

const connectivityReply = "Sorry, I could not reach a required service. " +
	"Check that the model endpoint is running, the vector index credentials " +
	"are correct, and the observability endpoint (if configured) is reachable, " +
	"then try again."

// userFacingError maps an internal failure to the reply shown to the
// user. Connectivity failures get a message that names what to check;
// everything else gets a generic apology carrying the error text.
func userFacingError(err error) string {
	if isConnectivityError(err) {
		return connectivityReply
	}
	return fmt.Sprintf("Sorry, an error occurred while processing your request: %v", err)
}

func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	// gRPC and HTTP clients wrap dial failures as plain strings.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "Unavailable")
}
