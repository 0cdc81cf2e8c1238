package aliyun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	sdkerrors "github.com/aliyun/alibaba-cloud-sdk-go/sdk/errors"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/alidns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_subdns/internal/dns"
	"go_subdns/internal/logger"
)

type fakeRecord struct {
	RecordId   string
	DomainName string
	RR         string
	Type       string
	Value      string
	TTL        int64
}

// fakeAlidns stores records in memory and mimics alidns responses
type fakeAlidns struct {
	mu        sync.Mutex
	nextID    int
	records   map[string]*fakeRecord
	domains   []string
	authError bool
	delay     time.Duration
	lastAdd   *alidns.AddDomainRecordRequest
}

func newFake() *fakeAlidns {
	return &fakeAlidns{nextID: 1000, records: map[string]*fakeRecord{}, domains: []string{"example.com", "example.org"}}
}

func decode(target any, v any) {
	data, _ := json.Marshal(v)
	_ = json.Unmarshal(data, target)
}

func authErr() error {
	return sdkerrors.NewServerError(http.StatusForbidden, `{"Code":"InvalidAccessKeyId.NotFound","Message":"Specified access key is not found."}`, "")
}

func (f *fakeAlidns) AddDomainRecord(req *alidns.AddDomainRecordRequest) (*alidns.AddDomainRecordResponse, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authError {
		return nil, authErr()
	}
	f.lastAdd = req
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	ttl, _ := req.TTL.GetValue()
	f.records[id] = &fakeRecord{RecordId: id, DomainName: req.DomainName, RR: req.RR, Type: req.Type, Value: req.Value, TTL: int64(ttl)}

	resp := &alidns.AddDomainRecordResponse{}
	decode(resp, map[string]any{"RequestId": "req", "RecordId": id})
	return resp, nil
}

func (f *fakeAlidns) UpdateDomainRecord(req *alidns.UpdateDomainRecordRequest) (*alidns.UpdateDomainRecordResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[req.RecordId]
	if !ok {
		return nil, sdkerrors.NewServerError(http.StatusBadRequest, `{"Code":"DomainRecordNotBelongToUser"}`, "")
	}
	ttl, _ := req.TTL.GetValue()
	rec.RR, rec.Type, rec.Value, rec.TTL = req.RR, req.Type, req.Value, int64(ttl)

	resp := &alidns.UpdateDomainRecordResponse{}
	decode(resp, map[string]any{"RequestId": "req", "RecordId": req.RecordId})
	return resp, nil
}

func (f *fakeAlidns) DeleteDomainRecord(req *alidns.DeleteDomainRecordRequest) (*alidns.DeleteDomainRecordResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, req.RecordId)
	return &alidns.DeleteDomainRecordResponse{}, nil
}

func (f *fakeAlidns) DescribeDomainRecordInfo(req *alidns.DescribeDomainRecordInfoRequest) (*alidns.DescribeDomainRecordInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[req.RecordId]
	if !ok {
		return nil, sdkerrors.NewServerError(http.StatusBadRequest, `{"Code":"DomainRecordNotBelongToUser"}`, "")
	}
	resp := &alidns.DescribeDomainRecordInfoResponse{}
	decode(resp, rec)
	return resp, nil
}

func (f *fakeAlidns) DescribeDomainRecords(req *alidns.DescribeDomainRecordsRequest) (*alidns.DescribeDomainRecordsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*fakeRecord, 0)
	for _, rec := range f.records {
		if rec.DomainName == req.DomainName && (req.TypeKeyWord == "" || req.TypeKeyWord == rec.Type) {
			list = append(list, rec)
		}
	}
	resp := &alidns.DescribeDomainRecordsResponse{}
	decode(resp, map[string]any{"TotalCount": len(list), "DomainRecords": map[string]any{"Record": list}})
	return resp, nil
}

func (f *fakeAlidns) DescribeDomains(req *alidns.DescribeDomainsRequest) (*alidns.DescribeDomainsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authError {
		return nil, authErr()
	}
	items := make([]map[string]any, 0, len(f.domains))
	for _, d := range f.domains {
		items = append(items, map[string]any{"DomainName": d})
	}
	resp := &alidns.DescribeDomainsResponse{}
	decode(resp, map[string]any{"TotalCount": len(items), "Domains": map[string]any{"Domain": items}})
	return resp, nil
}

func newTestProvider(fake *fakeAlidns) *Provider {
	return newWithAPI(fake, Options{Logger: logger.Discard()})
}

func TestNew_RequiresKeyPair(t *testing.T) {
	_, err := New(map[string]string{"accessKeyId": "LTAI"}, Options{})
	assert.ErrorIs(t, err, dns.ErrMissingCredentials)

	p, err := New(map[string]string{"accessKeyId": "LTAI", "accessKeySecret": "secret"}, Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, dns.ProviderAliyun, p.Type())
}

func TestProvider_CreateRecord_SplitsName(t *testing.T) {
	fake := newFake()
	p := newTestProvider(fake)

	rec, err := p.CreateRecord(context.Background(), "example.com", dns.Record{
		Name: "blog.example.com", Type: "A", Value: "1.2.3.4", Proxied: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "example.com", fake.lastAdd.DomainName)
	assert.Equal(t, "blog", fake.lastAdd.RR)
	assert.Equal(t, "blog.example.com", rec.Name)
	assert.Equal(t, defaultTTL, rec.TTL)
	assert.False(t, rec.Proxied)
	assert.NotEmpty(t, rec.ID)
}

func TestProvider_CreateRecord_Apex(t *testing.T) {
	fake := newFake()
	p := newTestProvider(fake)

	_, err := p.CreateRecord(context.Background(), "example.com", dns.Record{Name: "example.com", Type: "A", Value: "1.2.3.4", TTL: 120})
	require.NoError(t, err)
	assert.Equal(t, "@", fake.lastAdd.RR)
}

func TestProvider_UpdateGetListDelete(t *testing.T) {
	fake := newFake()
	p := newTestProvider(fake)
	ctx := context.Background()

	created, err := p.CreateRecord(ctx, "example.com", dns.Record{Name: "app.example.com", Type: "CNAME", Value: "origin.example.net"})
	require.NoError(t, err)

	value := "edge.example.net"
	proxied := true
	updated, err := p.UpdateRecord(ctx, "example.com", created.ID, dns.RecordPatch{Value: &value, Proxied: &proxied})
	require.NoError(t, err)
	assert.Equal(t, "edge.example.net", updated.Value)
	assert.Equal(t, "CNAME", updated.Type)
	assert.False(t, updated.Proxied)

	got, err := p.GetRecord(ctx, "example.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", got.Name)
	assert.Equal(t, "edge.example.net", got.Value)

	list, err := p.ListRecords(ctx, "example.com", dns.RecordFilter{Type: "CNAME"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, p.DeleteRecord(ctx, "example.com", created.ID))
	_, err = p.GetRecord(ctx, "example.com", created.ID)
	assert.ErrorIs(t, err, dns.ErrRecordNotFound)
}

func TestProvider_ListDomains(t *testing.T) {
	fake := newFake()
	assert.Equal(t, []string{"example.com", "example.org"}, newTestProvider(fake).ListDomains(context.Background()))

	fake.authError = true
	domains := newTestProvider(fake).ListDomains(context.Background())
	assert.NotNil(t, domains)
	assert.Empty(t, domains)
}

func TestProvider_ValidateCredentials(t *testing.T) {
	fake := newFake()
	ok, err := newTestProvider(fake).ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	fake.authError = true
	ok, err = newTestProvider(fake).ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_Timeout(t *testing.T) {
	fake := newFake()
	fake.delay = 200 * time.Millisecond
	p := newTestProvider(fake)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.CreateRecord(ctx, "example.com", dns.Record{Name: "slow.example.com", Type: "A", Value: "1.1.1.1"})
	assert.ErrorIs(t, err, dns.ErrProviderTimeout)
	assert.ErrorIs(t, err, dns.ErrProviderFailed)
}
