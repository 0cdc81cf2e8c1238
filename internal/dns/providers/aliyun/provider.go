package aliyun

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdkerrors "github.com/aliyun/alibaba-cloud-sdk-go/sdk/errors"
	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/alidns"
	"github.com/sirupsen/logrus"

	"go_subdns/internal/dns"
)

const (
	defaultRegion   = "cn-hangzhou"
	defaultEndpoint = "alidns.cn-hangzhou.aliyuncs.com"
	defaultTTL      = 600
	pageSize        = 100
)

// ErrCredentialShape is returned when the access key pair is incomplete
var ErrCredentialShape = fmt.Errorf("%w: Aliyun credentials must include accessKeyId and accessKeySecret", dns.ErrMissingCredentials)

// api is the subset of *alidns.Client used by the provider
type api interface {
	AddDomainRecord(*alidns.AddDomainRecordRequest) (*alidns.AddDomainRecordResponse, error)
	UpdateDomainRecord(*alidns.UpdateDomainRecordRequest) (*alidns.UpdateDomainRecordResponse, error)
	DeleteDomainRecord(*alidns.DeleteDomainRecordRequest) (*alidns.DeleteDomainRecordResponse, error)
	DescribeDomainRecordInfo(*alidns.DescribeDomainRecordInfoRequest) (*alidns.DescribeDomainRecordInfoResponse, error)
	DescribeDomainRecords(*alidns.DescribeDomainRecordsRequest) (*alidns.DescribeDomainRecordsResponse, error)
	DescribeDomains(*alidns.DescribeDomainsRequest) (*alidns.DescribeDomainsResponse, error)
}

// Options tunes the underlying SDK client
type Options struct {
	// Endpoint overrides the API host, e.g. for tests
	Endpoint string
	// Scheme is "https" unless overridden
	Scheme  string
	Timeout time.Duration
	Logger  *logrus.Entry
}

// Provider implements dns.Provider on the Alibaba Cloud DNS API
type Provider struct {
	client   api
	endpoint string
	scheme   string
	logger   *logrus.Entry
}

// New builds a client from an access key pair. The credential map is not retained.
func New(creds map[string]string, opts Options) (*Provider, error) {
	keyID := strings.TrimSpace(creds["accessKeyId"])
	secret := strings.TrimSpace(creds["accessKeySecret"])
	if keyID == "" || secret == "" {
		return nil, ErrCredentialShape
	}

	client, err := alidns.NewClientWithAccessKey(defaultRegion, keyID, secret)
	if err != nil {
		return nil, fmt.Errorf("create alidns client: %w", err)
	}
	if opts.Timeout > 0 {
		client.SetConnectTimeout(opts.Timeout)
		client.SetReadTimeout(opts.Timeout)
	}

	return newWithAPI(client, opts), nil
}

func newWithAPI(client api, opts Options) *Provider {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "https"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Provider{
		client:   client,
		endpoint: endpoint,
		scheme:   scheme,
		logger:   logger.WithField("provider", string(dns.ProviderAliyun)),
	}
}

// Type implements dns.Provider
func (p *Provider) Type() dns.ProviderType {
	return dns.ProviderAliyun
}

func ttlOrDefault(ttl int) int {
	if ttl <= 0 {
		return defaultTTL
	}
	return ttl
}

// CreateRecord implements dns.Provider.
// The zone and RR are derived from the record name, not from domain.
func (p *Provider) CreateRecord(ctx context.Context, domain string, record dns.Record) (dns.Record, error) {
	zone, rr := dns.SplitLastTwoLabels(record.Name)

	req := alidns.CreateAddDomainRecordRequest()
	req.Domain = p.endpoint
	req.Scheme = p.scheme
	req.DomainName = zone
	req.RR = rr
	req.Type = strings.ToUpper(record.Type)
	req.Value = record.Value
	req.TTL = requests.NewInteger(ttlOrDefault(record.TTL))

	resp, err := dns.RunWithContext(ctx, func() (*alidns.AddDomainRecordResponse, error) {
		return p.client.AddDomainRecord(req)
	})
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderAliyun, "create_record", err)
	}

	return dns.Record{
		ID:      resp.RecordId,
		Name:    dns.ToFQDN(zone, rr),
		Type:    req.Type,
		Value:   record.Value,
		TTL:     ttlOrDefault(record.TTL),
		Proxied: false,
	}, nil
}

// UpdateRecord implements dns.Provider
func (p *Provider) UpdateRecord(ctx context.Context, domain, recordID string, patch dns.RecordPatch) (dns.Record, error) {
	var base dns.Record
	if !patch.Complete() {
		existing, err := p.GetRecord(ctx, domain, recordID)
		if err != nil {
			return dns.Record{}, err
		}
		base = existing
	}
	merged := patch.Apply(base)
	merged.ID = recordID
	merged.TTL = ttlOrDefault(merged.TTL)
	merged.Proxied = false

	_, rr := dns.SplitLastTwoLabels(merged.Name)

	req := alidns.CreateUpdateDomainRecordRequest()
	req.Domain = p.endpoint
	req.Scheme = p.scheme
	req.RecordId = recordID
	req.RR = rr
	req.Type = strings.ToUpper(merged.Type)
	req.Value = merged.Value
	req.TTL = requests.NewInteger(merged.TTL)

	_, err := dns.RunWithContext(ctx, func() (*alidns.UpdateDomainRecordResponse, error) {
		return p.client.UpdateDomainRecord(req)
	})
	if err != nil {
		return dns.Record{}, dns.WrapOp(dns.ProviderAliyun, "update_record", err)
	}
	return merged, nil
}

// DeleteRecord implements dns.Provider
func (p *Provider) DeleteRecord(ctx context.Context, domain, recordID string) error {
	req := alidns.CreateDeleteDomainRecordRequest()
	req.Domain = p.endpoint
	req.Scheme = p.scheme
	req.RecordId = recordID

	_, err := dns.RunWithContext(ctx, func() (*alidns.DeleteDomainRecordResponse, error) {
		return p.client.DeleteDomainRecord(req)
	})
	return dns.WrapOp(dns.ProviderAliyun, "delete_record", err)
}

// GetRecord implements dns.Provider
func (p *Provider) GetRecord(ctx context.Context, domain, recordID string) (dns.Record, error) {
	req := alidns.CreateDescribeDomainRecordInfoRequest()
	req.Domain = p.endpoint
	req.Scheme = p.scheme
	req.RecordId = recordID

	resp, err := dns.RunWithContext(ctx, func() (*alidns.DescribeDomainRecordInfoResponse, error) {
		return p.client.DescribeDomainRecordInfo(req)
	})
	if err != nil {
		if isStatus(err, http.StatusNotFound) || hasCode(err, "DomainRecordNotBelongToUser") {
			err = fmt.Errorf("%w: %s", dns.ErrRecordNotFound, recordID)
		}
		return dns.Record{}, dns.WrapOp(dns.ProviderAliyun, "get_record", err)
	}

	return dns.Record{
		ID:    resp.RecordId,
		Name:  dns.ToFQDN(resp.DomainName, resp.RR),
		Type:  resp.Type,
		Value: resp.Value,
		TTL:   int(resp.TTL),
	}, nil
}

// ListRecords implements dns.Provider
func (p *Provider) ListRecords(ctx context.Context, domain string, filter dns.RecordFilter) ([]dns.Record, error) {
	records := make([]dns.Record, 0)

	for page := 1; ; page++ {
		req := alidns.CreateDescribeDomainRecordsRequest()
		req.Domain = p.endpoint
		req.Scheme = p.scheme
		req.DomainName = domain
		req.PageNumber = requests.NewInteger(page)
		req.PageSize = requests.NewInteger(pageSize)
		if filter.Type != "" {
			req.TypeKeyWord = filter.Type
		}

		resp, err := dns.RunWithContext(ctx, func() (*alidns.DescribeDomainRecordsResponse, error) {
			return p.client.DescribeDomainRecords(req)
		})
		if err != nil {
			return nil, dns.WrapOp(dns.ProviderAliyun, "list_records", err)
		}

		items := resp.DomainRecords.Record
		for _, item := range items {
			rec := dns.Record{
				ID:    item.RecordId,
				Name:  dns.ToFQDN(domain, item.RR),
				Type:  item.Type,
				Value: item.Value,
				TTL:   int(item.TTL),
			}
			if filter.Matches(rec) {
				records = append(records, rec)
			}
		}

		if len(items) < pageSize || int64(page*pageSize) >= resp.TotalCount {
			break
		}
	}
	return records, nil
}

// ListDomains implements dns.Provider
func (p *Provider) ListDomains(ctx context.Context) []string {
	names := make([]string, 0)

	for page := 1; ; page++ {
		req := alidns.CreateDescribeDomainsRequest()
		req.Domain = p.endpoint
		req.Scheme = p.scheme
		req.PageNumber = requests.NewInteger(page)
		req.PageSize = requests.NewInteger(pageSize)

		resp, err := dns.RunWithContext(ctx, func() (*alidns.DescribeDomainsResponse, error) {
			return p.client.DescribeDomains(req)
		})
		if err != nil {
			p.logger.WithError(err).Warn("failed to list domains")
			return []string{}
		}

		items := resp.Domains.Domain
		for _, d := range items {
			names = append(names, d.DomainName)
		}
		if len(items) < pageSize || int64(page*pageSize) >= resp.TotalCount {
			break
		}
	}
	return names
}

// ValidateCredentials implements dns.Provider
func (p *Provider) ValidateCredentials(ctx context.Context) (bool, error) {
	req := alidns.CreateDescribeDomainsRequest()
	req.Domain = p.endpoint
	req.Scheme = p.scheme
	req.PageSize = requests.NewInteger(1)

	_, err := dns.RunWithContext(ctx, func() (*alidns.DescribeDomainsResponse, error) {
		return p.client.DescribeDomains(req)
	})
	if err == nil {
		return true, nil
	}
	if isStatus(err, http.StatusBadRequest) || isStatus(err, http.StatusUnauthorized) || isStatus(err, http.StatusForbidden) || isStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return false, dns.WrapOp(dns.ProviderAliyun, "validate_credentials", err)
}

func isStatus(err error, status int) bool {
	var serverErr *sdkerrors.ServerError
	return errors.As(err, &serverErr) && serverErr.HttpStatus() == status
}

func hasCode(err error, code string) bool {
	var serverErr *sdkerrors.ServerError
	return errors.As(err, &serverErr) && serverErr.ErrorCode() == code
}
