package store

// Capability carries the write token that authorizes mutating calls to the
// document store. It is constructed once from configuration and threaded
// explicitly into the save pipeline, which checks it once per save attempt
// before any network call.
type Capability struct {
	token string
}

// NewCapability wraps a write token. An empty token yields an unauthorized
// capability.
func NewCapability(token string) Capability {
	return Capability{token: token}
}

// Authorized reports whether write access is available.
func (c Capability) Authorized() bool {
	return c.token != ""
}

// Token returns the raw token ("" when unauthorized).
func (c Capability) Token() string {
	return c.token
}
