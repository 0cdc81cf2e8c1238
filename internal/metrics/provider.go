package metrics

import (
	"context"
	"time"

	"go_subdns/internal/dns"
)

// Result label values
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// instrumented records call counts and latency around a dns.Provider
type instrumented struct {
	next dns.Provider
	name string
}

// InstrumentProvider wraps p so every call is recorded
func InstrumentProvider(p dns.Provider) dns.Provider {
	return &instrumented{next: p, name: string(p.Type())}
}

func (m *instrumented) observe(op string, start time.Time, err error) {
	result := ResultOK
	switch {
	case err != nil && dns.IsTimeout(err):
		result = ResultTimeout
	case err != nil:
		result = ResultError
	}
	ProviderCalls.WithLabelValues(m.name, op, result).Inc()
	ProviderCallDuration.WithLabelValues(m.name, op).Observe(time.Since(start).Seconds())
}

func (m *instrumented) Type() dns.ProviderType {
	return m.next.Type()
}

func (m *instrumented) CreateRecord(ctx context.Context, domain string, record dns.Record) (dns.Record, error) {
	start := time.Now()
	rec, err := m.next.CreateRecord(ctx, domain, record)
	m.observe("create_record", start, err)
	return rec, err
}

func (m *instrumented) UpdateRecord(ctx context.Context, domain, recordID string, patch dns.RecordPatch) (dns.Record, error) {
	start := time.Now()
	rec, err := m.next.UpdateRecord(ctx, domain, recordID, patch)
	m.observe("update_record", start, err)
	return rec, err
}

func (m *instrumented) DeleteRecord(ctx context.Context, domain, recordID string) error {
	start := time.Now()
	err := m.next.DeleteRecord(ctx, domain, recordID)
	m.observe("delete_record", start, err)
	return err
}

func (m *instrumented) GetRecord(ctx context.Context, domain, recordID string) (dns.Record, error) {
	start := time.Now()
	rec, err := m.next.GetRecord(ctx, domain, recordID)
	m.observe("get_record", start, err)
	return rec, err
}

func (m *instrumented) ListRecords(ctx context.Context, domain string, filter dns.RecordFilter) ([]dns.Record, error) {
	start := time.Now()
	recs, err := m.next.ListRecords(ctx, domain, filter)
	m.observe("list_records", start, err)
	return recs, err
}

func (m *instrumented) ListDomains(ctx context.Context) []string {
	start := time.Now()
	domains := m.next.ListDomains(ctx)
	m.observe("list_domains", start, nil)
	return domains
}

func (m *instrumented) ValidateCredentials(ctx context.Context) (bool, error) {
	start := time.Now()
	ok, err := m.next.ValidateCredentials(ctx)
	m.observe("validate_credentials", start, err)
	return ok, err
}
