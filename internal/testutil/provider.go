package testutil

import (
	"context"
	"fmt"
	"sync"

	"go_subdns/internal/dns"
)

// FakeProvider is an in-memory dns.Provider that records every call
type FakeProvider struct {
	mu sync.Mutex

	Kind    dns.ProviderType
	Records map[string]dns.Record
	Domains []string
	Calls   []string
	nextID  int

	// Valid is returned by ValidateCredentials
	Valid bool

	CreateErr   error
	UpdateErr   error
	DeleteErr   error
	GetErr      error
	ListErr     error
	ValidateErr error
}

// NewFakeProvider returns a provider that accepts its credentials
func NewFakeProvider(kind dns.ProviderType) *FakeProvider {
	return &FakeProvider{
		Kind:    kind,
		Records: map[string]dns.Record{},
		Domains: []string{"example.com"},
		Valid:   true,
	}
}

func (f *FakeProvider) record(op string) {
	f.Calls = append(f.Calls, op)
}

// CallCount returns how often op was invoked
func (f *FakeProvider) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// Record returns a stored record by id
func (f *FakeProvider) Record(id string) (dns.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Records[id]
	return r, ok
}

func (f *FakeProvider) Type() dns.ProviderType { return f.Kind }

func (f *FakeProvider) CreateRecord(ctx context.Context, domain string, record dns.Record) (dns.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if f.CreateErr != nil {
		return dns.Record{}, dns.WrapOp(f.Kind, "create_record", f.CreateErr)
	}
	f.nextID++
	record.ID = fmt.Sprintf("fake-%d", f.nextID)
	f.Records[record.ID] = record
	return record, nil
}

func (f *FakeProvider) UpdateRecord(ctx context.Context, domain, recordID string, patch dns.RecordPatch) (dns.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update")
	if f.UpdateErr != nil {
		return dns.Record{}, dns.WrapOp(f.Kind, "update_record", f.UpdateErr)
	}
	base, ok := f.Records[recordID]
	if !ok {
		return dns.Record{}, dns.WrapOp(f.Kind, "update_record", dns.ErrRecordNotFound)
	}
	updated := patch.Apply(base)
	f.Records[recordID] = updated
	return updated, nil
}

func (f *FakeProvider) DeleteRecord(ctx context.Context, domain, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if f.DeleteErr != nil {
		return dns.WrapOp(f.Kind, "delete_record", f.DeleteErr)
	}
	delete(f.Records, recordID)
	return nil
}

func (f *FakeProvider) GetRecord(ctx context.Context, domain, recordID string) (dns.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get")
	if f.GetErr != nil {
		return dns.Record{}, dns.WrapOp(f.Kind, "get_record", f.GetErr)
	}
	r, ok := f.Records[recordID]
	if !ok {
		return dns.Record{}, dns.WrapOp(f.Kind, "get_record", dns.ErrRecordNotFound)
	}
	return r, nil
}

func (f *FakeProvider) ListRecords(ctx context.Context, domain string, filter dns.RecordFilter) ([]dns.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	if f.ListErr != nil {
		return nil, dns.WrapOp(f.Kind, "list_records", f.ListErr)
	}
	out := make([]dns.Record, 0, len(f.Records))
	for _, r := range f.Records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeProvider) ListDomains(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list_domains")
	out := make([]string, len(f.Domains))
	copy(out, f.Domains)
	return out
}

func (f *FakeProvider) ValidateCredentials(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("validate")
	if f.ValidateErr != nil {
		return false, dns.WrapOp(f.Kind, "validate_credentials", f.ValidateErr)
	}
	return f.Valid, nil
}

// FakeFactory hands out fake providers and remembers the credentials it saw
type FakeFactory struct {
	mu        sync.Mutex
	Providers map[dns.ProviderType]*FakeProvider
	LastCreds map[string]string
	Err       error
}

// NewFakeFactory returns a factory with one fake per supported provider type
func NewFakeFactory() *FakeFactory {
	return &FakeFactory{Providers: map[dns.ProviderType]*FakeProvider{
		dns.ProviderCloudflare: NewFakeProvider(dns.ProviderCloudflare),
		dns.ProviderAliyun:     NewFakeProvider(dns.ProviderAliyun),
	}}
}

// Build has the signature of providers.Factory
func (f *FakeFactory) Build(providerType string, creds map[string]string) (dns.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	t, err := dns.ParseProviderType(providerType)
	if err != nil {
		return nil, err
	}
	f.LastCreds = make(map[string]string, len(creds))
	for k, v := range creds {
		f.LastCreds[k] = v
	}
	return f.Providers[t], nil
}

// Fake returns the provider handed out for t
func (f *FakeFactory) Fake(t dns.ProviderType) *FakeProvider {
	return f.Providers[t]
}
