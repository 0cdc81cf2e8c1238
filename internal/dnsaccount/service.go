package dnsaccount

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/crypto"
	"go_subdns/internal/dns"
	"go_subdns/internal/dns/providers"
	"go_subdns/internal/model"
)

// Catalog tells whether a provider type accepts new accounts
type Catalog interface {
	IsEnabled(ctx context.Context, t dns.ProviderType) (bool, error)
}

// CreateParams represents parameters for creating a DNS account
type CreateParams struct {
	Name         string
	ProviderType string
	Credentials  map[string]string
	IsDefault    bool
}

// UpdateParams represents parameters for updating a DNS account.
// Replacement credentials are re-encrypted without a live validation call.
type UpdateParams struct {
	Name        *string
	Credentials map[string]string
	IsActive    *bool
	IsDefault   *bool
}

// Account is the API view of a DNS account; credentials never leave the service
type Account struct {
	model.DNSAccount
	AvailableDomainCount int64 `json:"available_domain_count"`
	DomainCount          int64 `json:"domain_count"`
}

// Service manages DNS provider accounts and is the only reader of their credentials
type Service struct {
	db      *gorm.DB
	codec   *crypto.Codec
	factory providers.Factory
	catalog Catalog
	timeout time.Duration
	logger  *logrus.Entry
}

// NewService creates a DNS account service
func NewService(db *gorm.DB, codec *crypto.Codec, factory providers.Factory, catalog Catalog, timeout time.Duration, logger *logrus.Entry) *Service {
	return &Service{
		db:      db,
		codec:   codec,
		factory: factory,
		catalog: catalog,
		timeout: timeout,
		logger:  logger.WithField("component", "dnsaccount"),
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func trimCredentials(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func wipe(m map[string]string) {
	for k := range m {
		delete(m, k)
	}
}

// Create validates the credentials against the provider, then stores them encrypted
func (s *Service) Create(ctx context.Context, params CreateParams) (*model.DNSAccount, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	t, err := dns.ParseProviderType(params.ProviderType)
	if err != nil {
		return nil, apperr.Validation("unsupported DNS provider: " + params.ProviderType)
	}
	enabled, err := s.catalog.IsEnabled(ctx, t)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, apperr.Validation("DNS provider is disabled: " + string(t))
	}

	creds := trimCredentials(params.Credentials)
	defer wipe(creds)
	if d, _ := dns.Describe(t); !d.CheckCredentials(creds) {
		return nil, apperr.Validation("incomplete credentials for provider " + string(t))
	}

	client, err := s.factory(string(t), creds)
	if err != nil {
		return nil, apperr.Credential("invalid credentials", err)
	}

	vctx, cancel := s.withTimeout(ctx)
	defer cancel()
	valid, err := client.ValidateCredentials(vctx)
	if err != nil {
		s.logger.WithError(err).WithField("provider", t).Warn("credential validation failed")
		if dns.IsTimeout(err) {
			return nil, apperr.Wrap(apperr.KindProviderTimeout, "provider timeout", err)
		}
		return nil, apperr.Credential("invalid credentials", err)
	}
	if !valid {
		return nil, apperr.Credential("invalid credentials", nil)
	}

	encrypted, err := s.codec.EncryptCredentials(creds)
	if err != nil {
		return nil, apperr.Internal("failed to encrypt credentials", err)
	}

	account := &model.DNSAccount{
		Name:                 name,
		ProviderType:         string(t),
		EncryptedCredentials: encrypted,
		IsActive:             true,
		IsDefault:            params.IsDefault,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if account.IsDefault {
			if err := tx.Model(&model.DNSAccount{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, apperr.Internal("failed to create DNS account", err)
	}

	s.logger.WithFields(logrus.Fields{"account_id": account.ID, "provider": t}).Info("DNS account created")
	return account, nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, id int) (*model.DNSAccount, error) {
	var account model.DNSAccount
	if err := db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("DNS account not found")
		}
		return nil, apperr.Internal("failed to load DNS account", err)
	}
	return &account, nil
}

// Update changes name, credentials, active or default flags
func (s *Service) Update(ctx context.Context, id int, params UpdateParams) (*model.DNSAccount, error) {
	account, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if params.Credentials != nil {
		creds := trimCredentials(params.Credentials)
		defer wipe(creds)
		t, err := dns.ParseProviderType(account.ProviderType)
		if err != nil {
			return nil, apperr.Internal("stored provider type is unsupported", err)
		}
		if d, _ := dns.Describe(t); !d.CheckCredentials(creds) {
			return nil, apperr.Validation("incomplete credentials for provider " + string(t))
		}
		encrypted, err := s.codec.EncryptCredentials(creds)
		if err != nil {
			return nil, apperr.Internal("failed to encrypt credentials", err)
		}
		updates["encrypted_credentials"] = encrypted
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if params.IsDefault != nil {
		updates["is_default"] = *params.IsDefault
	}
	if len(updates) == 0 {
		return account, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if params.IsDefault != nil && *params.IsDefault {
			if err := tx.Model(&model.DNSAccount{}).Where("id <> ? AND is_default = ?", id, true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.DNSAccount{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, apperr.Internal("failed to update DNS account", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":          id,
		"credentials_changed": params.Credentials != nil,
	}).Info("DNS account updated")
	return s.load(ctx, s.db, id)
}

// Delete removes an account that no available domain or subdomain references
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(ctx, tx, id); err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&model.AvailableDomain{}).Where("dns_account_id = ?", id).Count(&refs).Error; err != nil {
			return apperr.Internal("failed to count references", err)
		}
		if refs == 0 {
			if err := tx.Model(&model.Domain{}).Where("dns_account_id = ?", id).Count(&refs).Error; err != nil {
				return apperr.Internal("failed to count references", err)
			}
		}
		if refs > 0 {
			return apperr.Conflict("DNS account has references")
		}

		if err := tx.Delete(&model.DNSAccount{}, id).Error; err != nil {
			return apperr.Internal("failed to delete DNS account", err)
		}
		s.logger.WithField("account_id", id).Info("DNS account deleted")
		return nil
	})
}

func (s *Service) counts(ctx context.Context, ids []int) (map[int]int64, map[int]int64, error) {
	type countRow struct {
		DNSAccountID int
		Total        int64
	}
	avail := map[int]int64{}
	domains := map[int]int64{}
	if len(ids) == 0 {
		return avail, domains, nil
	}

	var rows []countRow
	if err := s.db.WithContext(ctx).Model(&model.AvailableDomain{}).
		Select("dns_account_id, COUNT(*) AS total").
		Where("dns_account_id IN ?", ids).
		Group("dns_account_id").Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		avail[r.DNSAccountID] = r.Total
	}

	rows = nil
	if err := s.db.WithContext(ctx).Model(&model.Domain{}).
		Select("dns_account_id, COUNT(*) AS total").
		Where("dns_account_id IN ?", ids).
		Group("dns_account_id").Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		domains[r.DNSAccountID] = r.Total
	}
	return avail, domains, nil
}

// List returns every account with reference counts
func (s *Service) List(ctx context.Context) ([]Account, error) {
	var accounts []model.DNSAccount
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&accounts).Error; err != nil {
		return nil, apperr.Internal("failed to list DNS accounts", err)
	}

	ids := make([]int, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	avail, domains, err := s.counts(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to count references", err)
	}

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Account{DNSAccount: a, AvailableDomainCount: avail[a.ID], DomainCount: domains[a.ID]})
	}
	return out, nil
}

// Get returns one account with reference counts
func (s *Service) Get(ctx context.Context, id int) (*Account, error) {
	account, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	avail, domains, err := s.counts(ctx, []int{id})
	if err != nil {
		return nil, apperr.Internal("failed to count references", err)
	}
	return &Account{DNSAccount: *account, AvailableDomainCount: avail[id], DomainCount: domains[id]}, nil
}

// build decrypts the stored credentials and hands them to the factory.
// The plaintext map is cleared before returning.
func (s *Service) build(account *model.DNSAccount) (dns.Provider, error) {
	creds, err := s.codec.DecryptCredentials(account.EncryptedCredentials)
	if err != nil {
		s.logger.WithField("account_id", account.ID).Error("failed to decrypt DNS account credentials")
		return nil, apperr.Credential("failed to decrypt DNS account credentials", err)
	}
	defer wipe(creds)

	client, err := s.factory(account.ProviderType, creds)
	if err != nil {
		return nil, apperr.Credential("failed to build DNS provider client", err)
	}
	return client, nil
}

// ProviderFor returns a ready client for an active account
func (s *Service) ProviderFor(ctx context.Context, accountID int) (dns.Provider, error) {
	account, err := s.load(ctx, s.db, accountID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Credential("DNS account not found", err)
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, apperr.Credential("DNS account is disabled", nil)
	}
	return s.build(account)
}

// ListProviderDomains returns the zones visible to an account's credentials
func (s *Service) ListProviderDomains(ctx context.Context, id int) ([]string, error) {
	account, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	client, err := s.build(account)
	if err != nil {
		return nil, err
	}

	lctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return client.ListDomains(lctx), nil
}
