package apirouter

import "github.com/abiibaabi/grr/internal/core/domain"

// Caller is the router's view of who is acting.
type Caller struct {
	// ID is recorded in CreatedBy fields and audit logs.
	ID   string
	Name string
	Role domain.Role

	// Raw marks an operator-declared identity that was never verified.
	Raw bool
}

// CallerFromAPIKey builds a caller from a verified API key.
func CallerFromAPIKey(k *domain.APIKey) Caller {
	return Caller{
		ID:   k.ActorID(),
		Name: k.Name,
		Role: k.Role,
	}
}

// CallerFromPrincipal builds a caller from a raw principal.
// Raw access is trusted operator access and is evaluated as admin.
func CallerFromPrincipal(p domain.RawPrincipal) Caller {
	return Caller{
		ID:   p.ActorID(),
		Name: p.Username(),
		Role: domain.RoleAdmin,
		Raw:  true,
	}
}

// Kind is "raw" or "apikey", used as a metric label.
func (c Caller) Kind() string {
	if c.Raw {
		return "raw"
	}
	return "apikey"
}
