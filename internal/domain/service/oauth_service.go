package service

import "context"

// ExternalPrincipal is the claim bag an external provider vouches for after a
// successful handshake.
type ExternalPrincipal struct {
	Provider   string // Provider name, e.g. "google"
	ProviderID string // Provider subject id
	Email      string
	GivenName  string
	FamilyName string
	PictureURL string
}

// DisplayName joins the given and family names.
func (p *ExternalPrincipal) DisplayName() string {
	switch {
	case p.GivenName == "":
		return p.FamilyName
	case p.FamilyName == "":
		return p.GivenName
	default:
		return p.GivenName + " " + p.FamilyName
	}
}

// ExternalIdentityVerifier turns a raw provider credential into a verified principal.
type ExternalIdentityVerifier interface {
	// Verify checks credential with the provider and returns the principal it names.
	Verify(ctx context.Context, credential string) (*ExternalPrincipal, error)

	// Provider returns the provider name used for the identity auth source.
	Provider() string
}
