package security

import "time"

// Test issuer and audience used by NewTestTokenProvider.
const (
	TestIssuer   = "devspaces-test"
	TestAudience = "devspaces-test-api"
)

// NewTestTokenProvider returns a TokenProvider over a freshly generated ES256 pair.
// For tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	keys, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(keys, TestIssuer, TestAudience, 15*time.Minute), nil
}
