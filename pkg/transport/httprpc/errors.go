package httprpc

import "errors"

var (
	ErrNotAdvertised = errors.New("httprpc: node has no base URL yet")
	ErrBadAddress    = errors.New("httprpc: unsupported address")
	ErrNoRegistry    = errors.New("httprpc: node serves no registry")
	ErrBadResponse   = errors.New("httprpc: malformed response")
)
