package providers

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go_subdns/internal/dns"
	"go_subdns/internal/dns/providers/aliyun"
	"go_subdns/internal/dns/providers/cloudflare"
	"go_subdns/internal/metrics"
)

// Options is shared by every client the factory builds
type Options struct {
	Timeout time.Duration
	Logger  *logrus.Entry

	CloudflareBaseURL string
	AliyunEndpoint    string
	AliyunScheme      string
}

// Factory builds a provider client from a provider type and decrypted credentials
type Factory func(providerType string, creds map[string]string) (dns.Provider, error)

// NewFactory returns a Factory bound to opts
func NewFactory(opts Options) Factory {
	return func(providerType string, creds map[string]string) (dns.Provider, error) {
		return New(providerType, creds, opts)
	}
}

// New selects the implementation for providerType. It performs no network I/O.
func New(providerType string, creds map[string]string, opts Options) (dns.Provider, error) {
	t, err := dns.ParseProviderType(providerType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, providerType)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	var p dns.Provider
	switch t {
	case dns.ProviderCloudflare:
		p, err = cloudflare.New(creds, cloudflare.Options{
			BaseURL: opts.CloudflareBaseURL,
			Timeout: opts.Timeout,
			Logger:  logger,
		})
	case dns.ProviderAliyun:
		p, err = aliyun.New(creds, aliyun.Options{
			Endpoint: opts.AliyunEndpoint,
			Scheme:   opts.AliyunScheme,
			Timeout:  opts.Timeout,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("%w: %s", dns.ErrUnsupportedProvider, providerType)
	}
	if err != nil {
		return nil, err
	}

	return metrics.InstrumentProvider(p), nil
}
