package market

// =============================================================================
// AUTHORIZER - Injected privilege predicate
// =============================================================================

// Authorizer decides which identities may run administrative operations
// (adding products, restocking, repricing). The engine asks one question;
// hosts own the policy behind it.
type Authorizer interface {
	IsPrivileged(id Identity) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(id Identity) bool

func (f AuthorizerFunc) IsPrivileged(id Identity) bool { return f(id) }

// SingleOwner returns an Authorizer that privileges exactly one identity.
func SingleOwner(owner Identity) Authorizer {
	return AuthorizerFunc(func(id Identity) bool { return id == owner })
}
