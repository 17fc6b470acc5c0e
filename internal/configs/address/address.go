package address

import (
	"errors"
	"fmt"
	"strings"
)

// Supported scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeGRPC  = "grpc"
)

// ErrUnsupportedScheme is returned when an address uses an unknown or unsupported scheme.
var ErrUnsupportedScheme = errors.New("unsupported address scheme")

// Address holds the scheme and actual network address of the collector.
// The zero Address means no collector is configured.
type Address struct {
	Scheme  string
	Address string
}

// New parses the full input address and returns separated scheme/address.
// Default scheme is "http" if not specified. An empty input yields the zero Address.
func New(input string) (Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Address{}, nil
	}

	scheme, addr, found := strings.Cut(input, "://")
	if !found {
		return Address{Scheme: SchemeHTTP, Address: input}, nil
	}

	switch scheme {
	case SchemeHTTP, SchemeHTTPS, SchemeGRPC:
	default:
		return Address{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	if addr == "" {
		return Address{}, fmt.Errorf("empty host in address %q", input)
	}

	return Address{Scheme: scheme, Address: addr}, nil
}

// IsZero reports whether no collector address was given.
func (a Address) IsZero() bool {
	return a.Address == ""
}

// URL returns the address with its scheme, suitable as an HTTP base URL.
func (a Address) URL() string {
	if a.IsZero() {
		return ""
	}
	return a.Scheme + "://" + a.Address
}
