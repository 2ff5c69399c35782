package entity

import "strings"

// AuthSource records how an identity was created: "LOCAL" or "EXTERNAL:<provider>".
type AuthSource string

const (
	// AuthSourceLocal marks identities registered with email and password.
	AuthSourceLocal AuthSource = "LOCAL"

	externalPrefix = "EXTERNAL:"
)

// Known external providers.
const (
	ProviderGoogle = "google"
)

// ExternalAuthSource returns the auth source for provider.
func ExternalAuthSource(provider string) AuthSource {
	return AuthSource(externalPrefix + strings.ToLower(strings.TrimSpace(provider)))
}

// String returns the string representation of the AuthSource.
func (s AuthSource) String() string {
	return string(s)
}

// IsLocal reports whether s is the local password source.
func (s AuthSource) IsLocal() bool {
	return s == AuthSourceLocal
}

// IsExternal reports whether s names an external provider.
func (s AuthSource) IsExternal() bool {
	return s.Provider() != ""
}

// Provider returns the provider name of an external source, or "".
func (s AuthSource) Provider() string {
	provider, ok := strings.CutPrefix(string(s), externalPrefix)
	if !ok {
		return ""
	}

	return provider
}
