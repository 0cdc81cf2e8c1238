package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cf "github.com/cloudflare/cloudflare-go/v4"
	cfdns "github.com/cloudflare/cloudflare-go/v4/dns"
	"github.com/cloudflare/cloudflare-go/v4/option"
	"github.com/cloudflare/cloudflare-go/v4/zones"
	"github.com/sirupsen/logrus"

	"go_subdns/internal/dns"
)

const defaultTTL = 300

// ErrCredentialShape is returned when neither supported credential shape is complete
var ErrCredentialShape = fmt.Errorf("%w: Cloudflare credentials must include either apiToken or (apiKey + email)", dns.ErrMissingCredentials)

// Options tunes the underlying SDK client
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logrus.Entry
}

// Provider implements dns.Provider on the Cloudflare v4 API
type Provider struct {
	client *cf.Client
	logger *logrus.Entry

	mu    sync.Mutex
	zones map[string]string // root domain -> zone id
}

// New builds a client from either an API token or a global key plus email.
// The credential map is not retained.
func New(creds map[string]string, opts Options) (*Provider, error) {
	token := strings.TrimSpace(creds["apiToken"])
	key := strings.TrimSpace(creds["apiKey"])
	email := strings.TrimSpace(creds["email"])

	// 自动重试关闭，失败由调用方决定如何处理
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	switch {
	case token != "":
		reqOpts = append(reqOpts, option.WithAPIToken(token))
	case key != "" && email != "":
		reqOpts = append(reqOpts, option.WithAPIKey(key), option.WithAPIEmail(email))
	default:
		return nil, ErrCredentialShape
	}

	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Provider{
		client: cf.NewClient(reqOpts...),
		logger: logger.WithField("provider", string(dns.ProviderCloudflare)),
		zones:  make(map[string]string),
	}, nil
}

// Type implements dns.Provider
func (p *Provider) Type() dns.ProviderType {
	return dns.ProviderCloudflare
}

func (p *Provider) zoneID(ctx context.Context, domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))

	p.mu.Lock()
	id, ok := p.zones[domain]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	res, err := p.client.Zones.List(ctx, zones.ZoneListParams{
		Name:    cf.F(domain),
		PerPage: cf.F(1.0),
	})
	if err != nil {
		return "", err
	}
	if len(res.Result) == 0 {
		return "", fmt.Errorf("%w: %s", dns.ErrZoneNotFound, domain)
	}

	id = res.Result[0].ID
	p.mu.Lock()
	p.zones[domain] = id
	p.mu.Unlock()
	return id, nil
}

func recordParam(r dns.Record) (cfdns.RecordUnionParam, error) {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	switch strings.ToUpper(r.Type) {
	case "A":
		return cfdns.ARecordParam{
			Type:    cf.F(cfdns.ARecordType("A")),
			Name:    cf.F(r.Name),
			Content: cf.F(r.Value),
			TTL:     cf.F(cfdns.TTL(ttl)),
			Proxied: cf.F(r.Proxied),
		}, nil
	case "AAAA":
		return cfdns.AAAARecordParam{
			Type:    cf.F(cfdns.AAAARecordType("AAAA")),
			Name:    cf.F(r.Name),
			Content: cf.F(r.Value),
			TTL:     cf.F(cfdns.TTL(ttl)),
			Proxied: cf.F(r.Proxied),
		}, nil
	case "CNAME":
		return cfdns.CNAMERecordParam{
			Type:    cf.F(cfdns.CNAMERecordType("CNAME")),
			Name:    cf.F(r.Name),
			Content: cf.F(r.Value),
			TTL:     cf.F(cfdns.TTL(ttl)),
			Proxied: cf.F(r.Proxied),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported record type: %s", r.Type)
	}
}

func toRecord(r *cfdns.RecordResponse) dns.Record {
	return dns.Record{
		ID:      r.ID,
		Name:    r.Name,
		Type:    string(r.Type),
		Value:   fmt.Sprint(r.Content),
		TTL:     int(r.TTL),
		Proxied: r.Proxied,
	}
}

// CreateRecord implements dns.Provider
func (p *Provider) CreateRecord(ctx context.Context, domain string, record dns.Record) (dns.Record, error) {
	zoneID, err := p.zoneID(ctx, domain)
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "create_record", err)
	}

	param, err := recordParam(record)
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "create_record", err)
	}

	res, err := p.client.DNS.Records.New(ctx, cfdns.RecordNewParams{
		ZoneID: cf.F(zoneID),
		Record: param,
	})
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "create_record", err)
	}
	return toRecord(res), nil
}

// UpdateRecord implements dns.Provider
func (p *Provider) UpdateRecord(ctx context.Context, domain, recordID string, patch dns.RecordPatch) (dns.Record, error) {
	zoneID, err := p.zoneID(ctx, domain)
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "update_record", err)
	}

	var base dns.Record
	if !patch.Complete() {
		if base, err = p.GetRecord(ctx, domain, recordID); err != nil {
			return dns.Record{}, err
		}
	}
	merged := patch.Apply(base)

	param, err := recordParam(merged)
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "update_record", err)
	}

	res, err := p.client.DNS.Records.Update(ctx, recordID, cfdns.RecordUpdateParams{
		ZoneID: cf.F(zoneID),
		Record: param,
	})
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "update_record", err)
	}
	return toRecord(res), nil
}

// DeleteRecord implements dns.Provider
func (p *Provider) DeleteRecord(ctx context.Context, domain, recordID string) error {
	zoneID, err := p.zoneID(ctx, domain)
	if err != nil {
		return dns.WrapOp(dns.ProviderCloudflare, "delete_record", err)
	}

	_, err = p.client.DNS.Records.Delete(ctx, recordID, cfdns.RecordDeleteParams{
		ZoneID: cf.F(zoneID),
	})
	return dns.WrapOp(dns.ProviderCloudflare, "delete_record", err)
}

// GetRecord implements dns.Provider
func (p *Provider) GetRecord(ctx context.Context, domain, recordID string) (dns.Record, error) {
	zoneID, err := p.zoneID(ctx, domain)
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "get_record", err)
	}

	res, err := p.client.DNS.Records.Get(ctx, recordID, cfdns.RecordGetParams{
		ZoneID: cf.F(zoneID),
	})
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			err = fmt.Errorf("%w: %s", dns.ErrRecordNotFound, recordID)
		}
		return dns.Record{}, dns.WrapOp(dns.ProviderCloudflare, "get_record", err)
	}
	return toRecord(res), nil
}

// ListRecords implements dns.Provider
func (p *Provider) ListRecords(ctx context.Context, domain string, filter dns.RecordFilter) ([]dns.Record, error) {
	zoneID, err := p.zoneID(ctx, domain)
	if err != nil {
		return nil, dns.WrapOp(dns.ProviderCloudflare, "list_records", err)
	}

	records := make([]dns.Record, 0)
	iter := p.client.DNS.Records.ListAutoPaging(ctx, cfdns.RecordListParams{
		ZoneID: cf.F(zoneID),
	})
	for iter.Next() {
		current := iter.Current()
		rec := toRecord(&current)
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, dns.WrapOp(dns.ProviderCloudflare, "list_records", err)
	}
	return records, nil
}

// ListDomains implements dns.Provider
func (p *Provider) ListDomains(ctx context.Context) []string {
	names := make([]string, 0)
	iter := p.client.Zones.ListAutoPaging(ctx, zones.ZoneListParams{})
	for iter.Next() {
		zone := iter.Current()
		names = append(names, zone.Name)

		p.mu.Lock()
		p.zones[zone.Name] = zone.ID
		p.mu.Unlock()
	}
	if err := iter.Err(); err != nil {
		p.logger.WithError(err).Warn("failed to list zones")
		return []string{}
	}
	return names
}

// ValidateCredentials implements dns.Provider
func (p *Provider) ValidateCredentials(ctx context.Context) (bool, error) {
	_, err := p.client.Zones.List(ctx, zones.ZoneListParams{PerPage: cf.F(1.0)})
	if err == nil {
		return true, nil
	}
	if isStatus(err, http.StatusUnauthorized) || isStatus(err, http.StatusForbidden) || isStatus(err, http.StatusBadRequest) {
		return false, nil
	}
	return false, dns.WrapOp(dns.ProviderCloudflare, "validate_credentials", err)
}

func isStatus(err error, status int) bool {
	var apiErr *cf.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
