// Package identity extracts the caller identity established by the
// upstream authentication layer.
package identity

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoIdentity is returned when the request carries no identity.
var ErrNoIdentity = errors.New("identity: request is not authenticated")

// Identity is the authenticated caller as asserted upstream.
type Identity struct {
	Email string
	Name  string
}

// Resolver returns the caller of r.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// HeaderResolver reads the identity from request headers set by a trusted
// proxy. NameHeader is optional.
type HeaderResolver struct {
	EmailHeader string
	NameHeader  string
}

// NewHeaderResolver returns a resolver for emailHeader, reading the display
// name from "<emailHeader>-Name" when present.
func NewHeaderResolver(emailHeader string) HeaderResolver {
	if emailHeader == "" {
		emailHeader = "X-User-Email"
	}
	return HeaderResolver{EmailHeader: emailHeader, NameHeader: emailHeader + "-Name"}
}

// Resolve implements Resolver.
func (h HeaderResolver) Resolve(r *http.Request) (Identity, error) {
	email := strings.TrimSpace(r.Header.Get(h.EmailHeader))
	if email == "" {
		return Identity{}, ErrNoIdentity
	}
	id := Identity{Email: email}
	if h.NameHeader != "" {
		id.Name = strings.TrimSpace(r.Header.Get(h.NameHeader))
	}
	return id, nil
}

// Static always resolves to the same identity, for single-user
// deployments and tests.
type Static Identity

// Resolve implements Resolver.
func (s Static) Resolve(*http.Request) (Identity, error) {
	if s.Email == "" {
		return Identity{}, ErrNoIdentity
	}
	return Identity(s), nil
}
