package dns

import "context"

// ProviderType identifies a DNS provider implementation
type ProviderType string

const (
	ProviderCloudflare ProviderType = "cloudflare"
	ProviderAliyun     ProviderType = "aliyun"
)

// Record is a DNS record as seen by a provider.
// Name is the fully qualified record name.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// RecordPatch carries the fields to change on an existing record
type RecordPatch struct {
	Name    *string
	Type    *string
	Value   *string
	TTL     *int
	Proxied *bool
}

// Complete reports whether the patch alone describes a full record
func (p RecordPatch) Complete() bool {
	return p.Name != nil && p.Type != nil && p.Value != nil
}

// Apply returns base with the patch fields overlaid
func (p RecordPatch) Apply(base Record) Record {
	if p.Name != nil {
		base.Name = *p.Name
	}
	if p.Type != nil {
		base.Type = *p.Type
	}
	if p.Value != nil {
		base.Value = *p.Value
	}
	if p.TTL != nil {
		base.TTL = *p.TTL
	}
	if p.Proxied != nil {
		base.Proxied = *p.Proxied
	}
	return base
}

// RecordFilter narrows ListRecords results; empty fields match everything
type RecordFilter struct {
	Type string
	Name string
}

// Provider defines the uniform record API every DNS backend implements.
// domain is always the root domain (zone) the record lives under.
type Provider interface {
	Type() ProviderType

	CreateRecord(ctx context.Context, domain string, record Record) (Record, error)
	UpdateRecord(ctx context.Context, domain, recordID string, patch RecordPatch) (Record, error)
	DeleteRecord(ctx context.Context, domain, recordID string) error
	GetRecord(ctx context.Context, domain, recordID string) (Record, error)
	ListRecords(ctx context.Context, domain string, filter RecordFilter) ([]Record, error)

	// ListDomains returns the zones visible to the credentials.
	// Failures are logged by the implementation and yield an empty list.
	ListDomains(ctx context.Context) []string

	// ValidateCredentials returns false when the provider rejects the credentials
	ValidateCredentials(ctx context.Context) (bool, error)
}

// Matches reports whether r passes the filter
func (f RecordFilter) Matches(r Record) bool {
	if f.Type != "" && f.Type != r.Type {
		return false
	}
	if f.Name != "" && f.Name != r.Name {
		return false
	}
	return true
}
