package models

// Session is the locally cached authenticated identity.
//
// Subject is immutable for the lifetime of the session. OwnerID starts out
// as a locally minted placeholder when the identity was resolved offline and
// is replaced exactly once, when the remote store confirms a stable
// identifier and local data is migrated to it.
type Session struct {
	OwnerID     string `json:"owner_id"`
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`

	// Placeholder marks OwnerID as locally generated, not yet confirmed
	// by the remote store.
	Placeholder bool `json:"placeholder"`

	CachedAt int64 `json:"cached_at"`
}
