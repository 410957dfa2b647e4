package domain

// Claim is a single name/value assertion about a caller. Duplicate names are
// allowed across a claim set (a key may grant several rights).
type Claim struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// APIKey is a pre-shared secret identifying a calling system. Keys are
// provisioned out-of-band and are read-only to this service. A disabled key
// still exists but grants no rights.
type APIKey struct {
	Secret  string
	Enabled bool
	Rights  []Claim
}
