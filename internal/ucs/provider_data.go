package ucs

// ProviderData bundles the shared session and the device profile base DN for
// Terraform resources and data sources.
type ProviderData struct {
	Session Session
	BaseDN  string
}

// NewProviderData creates a new provider data instance.
func NewProviderData(session Session, baseDN string) *ProviderData {
	return &ProviderData{
		Session: session,
		BaseDN:  baseDN,
	}
}
