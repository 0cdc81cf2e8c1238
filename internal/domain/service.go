package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_subdns/internal/apperr"
	"go_subdns/internal/dns"
	"go_subdns/internal/domainutil"
	"go_subdns/internal/metrics"
	"go_subdns/internal/model"
)

const maxLastErrorLength = 512

var errEmptyRecordID = errors.New("provider returned an empty record id")

// ProviderResolver turns a DNS account into a ready provider client
type ProviderResolver interface {
	ProviderFor(ctx context.Context, accountID int) (dns.Provider, error)
}

// Blocklist rejects reserved subdomain labels
type Blocklist interface {
	Check(ctx context.Context, subdomain string) error
}

// Policy supplies the status new records start in
type Policy interface {
	DefaultDomainStatus(ctx context.Context) (model.DomainStatus, error)
}

// CreateParams represents parameters for creating a subdomain record
type CreateParams struct {
	AvailableDomainID int
	Subdomain         string
	RecordType        string
	Value             string
	TTL               *int
	Proxied           *bool
}

// UpdateParams represents the fields a user may change on an active record
type UpdateParams struct {
	Value   *string
	Proxied *bool
}

// Service owns the subdomain record lifecycle
type Service struct {
	db        *gorm.DB
	resolver  ProviderResolver
	blocklist Blocklist
	policy    Policy
	timeout   time.Duration
	logger    *logrus.Entry
}

// NewService creates a domain lifecycle service
func NewService(db *gorm.DB, resolver ProviderResolver, blocklist Blocklist, policy Policy, timeout time.Duration, logger *logrus.Entry) *Service {
	return &Service{
		db:        db,
		resolver:  resolver,
		blocklist: blocklist,
		policy:    policy,
		timeout:   timeout,
		logger:    logger.WithField("component", "domain"),
	}
}

func (s *Service) providerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// providerError classifies a failed provider call
func providerError(err error) error {
	if dns.IsTimeout(err) {
		return apperr.Wrap(apperr.KindProviderTimeout, "provider timeout", err)
	}
	return apperr.Wrap(apperr.KindProvider, "provider operation failed", err)
}

func truncate(msg string) string {
	if utf8.RuneCountInString(msg) <= maxLastErrorLength {
		return msg
	}
	return string([]rune(msg)[:maxLastErrorLength])
}

func supportsProxy(providerType string) bool {
	t, err := dns.ParseProviderType(providerType)
	if err != nil {
		return false
	}
	d, _ := dns.Describe(t)
	return d.SupportsProxy
}

func validTTL(ttl int) bool {
	// 1 表示由服务商自动决定
	return ttl == 1 || (ttl >= 60 && ttl <= 86400)
}

func recordTransition(status model.DomainStatus) {
	metrics.DomainTransitions.WithLabelValues(string(status)).Inc()
}

// Create registers a subdomain for userID. Under the active policy the provider
// record is created first; a provider failure is persisted as a rejected row
// rather than returned.
func (s *Service) Create(ctx context.Context, userID int, params CreateParams) (*model.Domain, error) {
	subdomain := strings.TrimSpace(params.Subdomain)
	label, err := domainutil.NormalizeLabel(subdomain)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	recordType := strings.ToUpper(strings.TrimSpace(params.RecordType))
	value, err := domainutil.ValidateRecordValue(recordType, params.Value)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	ttl := model.DefaultRecordTTL
	if params.TTL != nil && *params.TTL != 0 {
		if !validTTL(*params.TTL) {
			return nil, apperr.Validation("ttl must be 1 or between 60 and 86400")
		}
		ttl = *params.TTL
	}

	// 1. 根域名必须存在且启用
	var avail model.AvailableDomain
	err = s.db.WithContext(ctx).Preload("DNSAccount").
		Where("id = ? AND is_active = ?", params.AvailableDomainID, true).
		First(&avail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Available domain not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load available domain", err)
	}

	// 2. 黑名单
	if err := s.blocklist.Check(ctx, subdomain); err != nil {
		return nil, err
	}

	// 3. 配额
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	var owned int64
	if err := s.db.WithContext(ctx).Model(&model.Domain{}).Where("user_id = ?", userID).Count(&owned).Error; err != nil {
		return nil, apperr.Internal("failed to count domains", err)
	}
	if owned >= int64(user.Quota) {
		return nil, apperr.Validation("Domain quota exceeded")
	}

	// 4. 同一根域名下唯一
	var dup int64
	if err := s.db.WithContext(ctx).Model(&model.Domain{}).
		Where("LOWER(subdomain) = ? AND available_domain_id = ?", label, avail.ID).
		Count(&dup).Error; err != nil {
		return nil, apperr.Internal("failed to check subdomain", err)
	}
	if dup > 0 {
		return nil, apperr.Validation("Subdomain already exists")
	}

	// 5. 默认状态策略
	status, err := s.policy.DefaultDomainStatus(ctx)
	if err != nil {
		return nil, err
	}

	proxied := params.Proxied != nil && *params.Proxied
	providerType := ""
	if avail.DNSAccount != nil {
		providerType = avail.DNSAccount.ProviderType
	}
	if !supportsProxy(providerType) {
		proxied = false
	}

	row := &model.Domain{
		UserID:            userID,
		AvailableDomainID: avail.ID,
		DNSAccountID:      avail.DNSAccountID,
		Subdomain:         subdomain,
		FullName:          label + "." + avail.Domain,
		RecordType:        recordType,
		Value:             value,
		TTL:               ttl,
		Proxied:           proxied,
		Status:            model.DomainStatusPending,
		Version:           1,
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "full_name": row.FullName})

	var remote *dns.Record
	var client dns.Provider
	if status == model.DomainStatusActive {
		client, err = s.resolver.ProviderFor(ctx, avail.DNSAccountID)
		if err != nil {
			return nil, err
		}

		pctx, cancel := s.providerCtx(ctx)
		rec, err := client.CreateRecord(pctx, avail.Domain, dns.Record{
			Name:    row.FullName,
			Type:    recordType,
			Value:   value,
			TTL:     ttl,
			Proxied: proxied,
		})
		cancel()

		if err == nil && rec.ID == "" {
			err = errEmptyRecordID
		}
		if err != nil {
			log.WithError(err).Warn("provider create failed, record rejected")
			row.Status = model.DomainStatusRejected
			row.LastError = truncate(err.Error())
		} else {
			remote = &rec
			row.Status = model.DomainStatusActive
			row.ProviderRecordID = &rec.ID
		}
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if remote != nil {
			s.compensate(ctx, client, avail.Domain, remote.ID, log)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Validation("Subdomain already exists")
		}
		return nil, apperr.Internal("failed to save domain", err)
	}

	recordTransition(row.Status)
	log.WithField("status", row.Status).Info("domain created")
	row.AvailableDomain = &avail
	return row, nil
}

// compensate removes a remote record whose local row could not be written
func (s *Service) compensate(ctx context.Context, client dns.Provider, zone, recordID string, log *logrus.Entry) {
	cctx, cancel := s.providerCtx(context.WithoutCancel(ctx))
	defer cancel()
	if err := client.DeleteRecord(cctx, zone, recordID); err != nil {
		log.WithError(err).WithField("record_id", recordID).Error("failed to roll back remote record")
		return
	}
	log.WithField("record_id", recordID).Warn("remote record rolled back")
}

func (s *Service) load(ctx context.Context, id int) (*model.Domain, error) {
	var row model.Domain
	if err := s.db.WithContext(ctx).Preload("AvailableDomain").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Domain not found")
		}
		return nil, apperr.Internal("failed to load domain", err)
	}
	if row.AvailableDomain == nil {
		return nil, apperr.Internal("domain has no parent available domain", nil)
	}
	return &row, nil
}

func (s *Service) loadOwned(ctx context.Context, userID, id int) (*model.Domain, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.UserID != userID {
		return nil, apperr.NotFound("Domain not found")
	}
	return row, nil
}

// save writes fields guarded by the version the row was read at
func (s *Service) save(ctx context.Context, row *model.Domain, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	res := s.db.WithContext(ctx).Model(&model.Domain{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(fields)
	if res.Error != nil {
		return apperr.Internal("failed to save domain", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("domain was modified concurrently")
	}
	return nil
}

// pushValue sends the full merged record to the provider
func (s *Service) pushValue(ctx context.Context, row *model.Domain, value string, proxied bool) error {
	client, err := s.resolver.ProviderFor(ctx, row.DNSAccountID)
	if err != nil {
		return err
	}

	pctx, cancel := s.providerCtx(ctx)
	defer cancel()

	name, typ, ttl := row.FullName, row.RecordType, row.TTL
	_, err = client.UpdateRecord(pctx, row.AvailableDomain.Domain, *row.ProviderRecordID, dns.RecordPatch{
		Name:    &name,
		Type:    &typ,
		Value:   &value,
		TTL:     &ttl,
		Proxied: &proxied,
	})
	if err != nil {
		s.logger.WithError(err).WithField("domain_id", row.ID).Warn("provider update failed")
		return providerError(err)
	}
	return nil
}

// Update changes value or proxied on an active record owned by userID.
// Nothing local changes unless the provider accepted the update.
func (s *Service) Update(ctx context.Context, userID, id int, params UpdateParams) (*model.Domain, error) {
	if params.Value == nil && params.Proxied == nil {
		return nil, apperr.Validation("nothing to update")
	}

	row, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if row.Status != model.DomainStatusActive {
		return nil, apperr.Conflict("Only active domains can be updated")
	}
	if !row.HasRemoteRecord() {
		return nil, apperr.Conflict("Domain has no remote DNS record")
	}

	value := row.Value
	if params.Value != nil {
		if value, err = domainutil.ValidateRecordValue(row.RecordType, *params.Value); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	proxied := row.Proxied
	if params.Proxied != nil {
		proxied = *params.Proxied
	}
	var account model.DNSAccount
	if err := s.db.WithContext(ctx).Select("provider_type").First(&account, row.DNSAccountID).Error; err == nil && !supportsProxy(account.ProviderType) {
		proxied = false
	}

	if err := s.pushValue(ctx, row, value, proxied); err != nil {
		return nil, err
	}
	if err := s.save(ctx, row, map[string]interface{}{"value": value, "proxied": proxied, "last_error": ""}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"domain_id": id, "user_id": userID}).Info("domain updated")
	return s.load(ctx, id)
}

// Delete removes a record owned by userID. A failed remote delete is logged
// and the local row is removed anyway.
func (s *Service) Delete(ctx context.Context, userID, id int) error {
	row, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, row)
}

func (s *Service) remove(ctx context.Context, row *model.Domain) error {
	log := s.logger.WithFields(logrus.Fields{"domain_id": row.ID, "full_name": row.FullName})

	if row.HasRemoteRecord() {
		// 账号停用或凭证无法解密时同样只记录日志，本地记录照常删除
		if err := s.deleteRemote(ctx, row); err != nil {
			log.WithError(err).Warn("provider delete failed, removing local record anyway")
		}
	}

	res := s.db.WithContext(ctx).Where("id = ? AND version = ?", row.ID, row.Version).Delete(&model.Domain{})
	if res.Error != nil {
		return apperr.Internal("failed to delete domain", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("domain was modified concurrently")
	}

	log.Info("domain deleted")
	return nil
}

func (s *Service) deleteRemote(ctx context.Context, row *model.Domain) error {
	client, err := s.resolver.ProviderFor(ctx, row.DNSAccountID)
	if err != nil {
		return err
	}
	pctx, cancel := s.providerCtx(ctx)
	defer cancel()
	return client.DeleteRecord(pctx, row.AvailableDomain.Domain, *row.ProviderRecordID)
}

// AdminSetStatus moves a record through the status machine. Activating a
// pending record creates it at the provider; a failure there lands the
// record in rejected instead of failing the call.
func (s *Service) AdminSetStatus(ctx context.Context, id int, target model.DomainStatus) (*model.Domain, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return nil, err
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := CheckTransition(row.Status, target)
	if err != nil {
		return nil, err
	}
	if !changed {
		return row, nil
	}

	log := s.logger.WithFields(logrus.Fields{"domain_id": id, "full_name": row.FullName, "target": target})
	fields := map[string]interface{}{"status": target}

	var client dns.Provider
	var createdID string
	if target == model.DomainStatusActive && !row.HasRemoteRecord() {
		client, createdID, err = s.createRemote(ctx, row)
		if err != nil {
			log.WithError(err).Warn("activation failed, record rejected")
			fields["status"] = model.DomainStatusRejected
			fields["last_error"] = truncate(err.Error())
		} else {
			fields["provider_record_id"] = createdID
			fields["last_error"] = ""
		}
	}

	if err := s.save(ctx, row, fields); err != nil {
		if createdID != "" {
			s.compensate(ctx, client, row.AvailableDomain.Domain, createdID, log)
		}
		return nil, err
	}

	final := fields["status"].(model.DomainStatus)
	recordTransition(final)
	log.WithField("status", final).Info("domain status changed")
	return s.load(ctx, id)
}

func (s *Service) createRemote(ctx context.Context, row *model.Domain) (dns.Provider, string, error) {
	client, err := s.resolver.ProviderFor(ctx, row.DNSAccountID)
	if err != nil {
		return nil, "", err
	}

	pctx, cancel := s.providerCtx(ctx)
	defer cancel()
	rec, err := client.CreateRecord(pctx, row.AvailableDomain.Domain, dns.Record{
		Name:    row.FullName,
		Type:    row.RecordType,
		Value:   row.Value,
		TTL:     row.TTL,
		Proxied: row.Proxied,
	})
	if err != nil {
		return nil, "", err
	}
	if rec.ID == "" {
		return nil, "", errEmptyRecordID
	}
	return client, rec.ID, nil
}

// AdminSetValue overrides the value of any record that exists at the provider
func (s *Service) AdminSetValue(ctx context.Context, id int, value string) (*model.Domain, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.HasRemoteRecord() {
		return nil, apperr.Conflict("Domain has no remote DNS record")
	}

	normalized, err := domainutil.ValidateRecordValue(row.RecordType, value)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if err := s.pushValue(ctx, row, normalized, row.Proxied); err != nil {
		return nil, err
	}
	if err := s.save(ctx, row, map[string]interface{}{"value": normalized, "last_error": ""}); err != nil {
		return nil, err
	}

	s.logger.WithField("domain_id", id).Info("domain value overridden by admin")
	return s.load(ctx, id)
}
