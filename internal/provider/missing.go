package provider

import "context"

// MissingProvider stands in for a provider whose credential could not be
// resolved. It keeps the server bootable and turns every call into
// ErrNotConfigured.
type MissingProvider struct {
	name string
}

// Missing returns a placeholder for the named provider.
func Missing(name string) *MissingProvider {
	return &MissingProvider{name: name}
}

func (m *MissingProvider) Name() string { return m.name }

func (m *MissingProvider) Ready() error {
	return &UpstreamError{Provider: m.name, Kind: ErrNotConfigured}
}

func (m *MissingProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return nil, m.Ready()
}
