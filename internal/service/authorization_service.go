package service

import (
	"context"
	"fmt"

	"guildlink/internal/audit"
	"guildlink/internal/cache"
	"guildlink/internal/featureflags"
	"guildlink/internal/models"
	"guildlink/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// AuthorizationService decides whether a member may join the guild and performs the join.
type AuthorizationService struct {
	consents ConsentStore
	catalog  RoleCatalog
	guild    GuildGateway
	locker   IdentityLocker
	sink     audit.Sink
	flags    *featureflags.Manager
}

// NewAuthorizationService returns a new AuthorizationService. A nil locker serializes
// members in process only; a nil sink drops audit events.
func NewAuthorizationService(
	consents ConsentStore,
	catalog RoleCatalog,
	guild GuildGateway,
	locker IdentityLocker,
	sink audit.Sink,
	flags *featureflags.Manager,
) *AuthorizationService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if sink == nil {
		sink = audit.Multi{}
	}
	return &AuthorizationService{
		consents: consents,
		catalog:  catalog,
		guild:    guild,
		locker:   locker,
		sink:     sink,
		flags:    flags,
	}
}

// ReconcileReport lists the chat accounts that were linked to the member under another chat id
// and the result of removing each one from the guild.
type ReconcileReport struct {
	Outcomes []Outcome[models.Consentment]
}

// Removed returns the chat ids that left the guild.
func (r ReconcileReport) Removed() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o.Item.ChatID)
		}
	}
	return out
}

// Failed returns the chat ids whose removal failed.
func (r ReconcileReport) Failed() []string {
	var out []string
	for _, o := range Failures(r.Outcomes) {
		out = append(out, o.Item.ChatID)
	}
	return out
}

// RevokeReport is the result of Revoke.
type RevokeReport struct {
	VID     int64    `json:"vid"`
	Revoked int      `json:"revoked"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

// CheckStatus rejects suspended, inactive and otherwise non-active accounts.
func (s *AuthorizationService) CheckStatus(ctx context.Context, m *models.Member) error {
	var event string
	switch m.Status.Kind() {
	case models.StatusKindActive:
		return nil
	case models.StatusKindSuspended:
		event = models.EventAccountSuspended
	case models.StatusKindInactive:
		event = models.EventAccountInactive
	default:
		event = models.EventAccountNotActive
	}

	s.emit(ctx, models.NewAuditEvent(event, models.AuditLevelWarning, m, map[string]any{
		"status": int(m.Status),
	}))
	return &models.AccountInactiveError{Reason: m.StatusReason()}
}

// Authorize links the member's bound chat account to the guild.
//
// Account status failures are returned as *models.AccountInactiveError. Every other failure,
// including faults of the collaborators, is returned as models.ErrPermissionDenied; the
// detail is only recorded as an audit event.
func (s *AuthorizationService) Authorize(ctx context.Context, m *models.Member) (c *models.Consentment, err error) {
	span, ctx := observability.NewSpan(ctx, "authorization.authorize")
	defer span.End()
	span.Member(m.VID, m.ChatID)

	outcome := observability.OutcomeLinked
	defer func() {
		observability.AuthorizationsTotal.WithLabelValues(outcome).Inc()
	}()

	if err := s.CheckStatus(ctx, m); err != nil {
		outcome = observability.OutcomeAccountInactive
		span.SetError(err)
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = observability.OutcomeFault
			c, err = nil, s.contain(ctx, m, fmt.Errorf("panic: %v", r))
			span.SetError(err)
		}
	}()

	catalog, err := s.catalog.Roles(ctx)
	if err != nil {
		outcome = observability.OutcomeFault
		return nil, s.contain(ctx, m, fmt.Errorf("load role catalog: %w", err))
	}

	roles := ResolveRoles(catalog, m)
	if !s.eligible(ctx, m, roles) {
		outcome = observability.OutcomeIneligible
		return nil, models.ErrPermissionDenied
	}
	span.AddAttributes(attribute.StringSlice("member.roles", models.RoleSuffixes(roles)))

	c, err = s.link(ctx, m, roles)
	if err != nil {
		outcome = observability.OutcomeFault
		span.SetError(err)
		return nil, s.contain(ctx, m, err)
	}
	return c, nil
}

func (s *AuthorizationService) eligible(ctx context.Context, m *models.Member, roles []models.Role) bool {
	if len(roles) == 0 {
		s.emit(ctx, models.NewAuditEvent(models.EventRolesEmpty, models.AuditLevelWarning, m, nil))
		return false
	}
	if m.TotalHours() <= models.MinimumHours {
		s.emit(ctx, models.NewAuditEvent(models.EventNotEnoughHours, models.AuditLevelWarning, m, map[string]any{
			"hours": m.TotalHours(),
		}))
		return false
	}
	return true
}

// link runs reconciliation and commit while holding the member's lock.
func (s *AuthorizationService) link(ctx context.Context, m *models.Member, roles []models.Role) (*models.Consentment, error) {
	release, err := s.locker.Lock(ctx, m.VID)
	if err != nil {
		return nil, fmt.Errorf("lock member: %w", err)
	}
	defer release()

	g, err := s.guild.ResolveGuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve guild: %w", err)
	}

	if _, err := s.Reconcile(ctx, m, g); err != nil {
		return nil, err
	}
	return s.commit(ctx, m, roles, g)
}

// Reconcile deactivates the member's current consentment and removes every other chat
// account linked to the member from the guild. Removal failures are collected in the report
// and never returned; only consent store errors are.
func (s *AuthorizationService) Reconcile(ctx context.Context, m *models.Member, g *models.Guild) (ReconcileReport, error) {
	var report ReconcileReport

	// Linked accounts must be read before RemoveActive deactivates them.
	var linked []models.Consentment
	hasOther, err := s.consents.HasOtherActiveLink(ctx, m.VID, m.ChatID)
	if err != nil {
		return report, fmt.Errorf("check linked accounts: %w", err)
	}
	if hasOther {
		if linked, err = s.consents.OtherActiveLinks(ctx, m.VID, m.ChatID); err != nil {
			return report, fmt.Errorf("list linked accounts: %w", err)
		}
	}

	if err := s.consents.RemoveActive(ctx, m.VID); err != nil {
		return report, fmt.Errorf("remove active consentment: %w", err)
	}

	report.Outcomes = s.removeFromGuild(ctx, m, linked, g)
	return report, nil
}

func (s *AuthorizationService) commit(ctx context.Context, m *models.Member, roles []models.Role, g *models.Guild) (*models.Consentment, error) {
	event, err := m.SetRoles(roles)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, event)

	if err := s.guild.AddMember(ctx, m, g); err != nil {
		return nil, fmt.Errorf("add member to guild: %w", err)
	}
	s.emit(ctx, models.NewAuditEvent(models.EventJoinServer, models.AuditLevelInfo, m, map[string]any{
		"guild":   g.ID,
		"chat_id": m.ChatID,
	}))

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		name, err := s.guild.RoleName(ctx, g, r)
		if err != nil {
			return nil, fmt.Errorf("resolve role name %q: %w", r.Suffix, err)
		}
		names = append(names, name)
	}

	c := models.NewConsentment(m, names)
	if err := s.consents.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create consentment: %w", err)
	}
	return c, nil
}

// Revoke deactivates the member's consentment and removes the linked chat accounts from the
// guild. Removal failures are reported but not returned unless strict_revoke is enabled.
func (s *AuthorizationService) Revoke(ctx context.Context, vid int64) (RevokeReport, error) {
	span, ctx := observability.NewSpan(ctx, "authorization.revoke", observability.AttrVID.Int64(vid))
	defer span.End()

	report := RevokeReport{VID: vid, Removed: []string{}, Failed: []string{}}

	release, err := s.locker.Lock(ctx, vid)
	if err != nil {
		span.SetError(err)
		return report, models.NewInternalError(fmt.Errorf("lock member: %w", err))
	}
	defer release()

	links, err := s.consents.ActiveLinks(ctx, vid)
	if err != nil {
		span.SetError(err)
		return report, err
	}
	if err := s.consents.RemoveActive(ctx, vid); err != nil {
		span.SetError(err)
		return report, err
	}
	report.Revoked = len(links)

	var outcomes []Outcome[models.Consentment]
	if len(links) > 0 {
		g, gErr := s.guild.ResolveGuild(ctx)
		if gErr != nil {
			for _, l := range links {
				outcomes = append(outcomes, Outcome[models.Consentment]{Item: l, Err: gErr})
			}
		} else {
			outcomes = s.removeFromGuild(ctx, &models.Member{VID: vid}, links, g)
		}
	}

	for _, o := range outcomes {
		if o.Err != nil {
			report.Failed = append(report.Failed, o.Item.ChatID)
		} else {
			report.Removed = append(report.Removed, o.Item.ChatID)
		}
	}

	s.emit(ctx, models.AuditEvent{
		Event: models.EventLinkRevoked,
		Level: models.AuditLevelInfo,
		VID:   vid,
		Fields: map[string]any{
			"revoked": report.Revoked,
			"removed": report.Removed,
			"failed":  report.Failed,
		},
	})

	if joined := JoinErrors(outcomes); joined != nil && s.flags.Enabled(featureflags.StrictRevoke, vid) {
		span.SetError(joined)
		return report, models.NewInternalError(joined)
	}
	return report, nil
}

// removeFromGuild kicks each distinct chat id of links from the guild and records the results.
func (s *AuthorizationService) removeFromGuild(ctx context.Context, m *models.Member, links []models.Consentment, g *models.Guild) []Outcome[models.Consentment] {
	seen := make(map[string]bool, len(links))
	targets := make([]models.Consentment, 0, len(links))
	for _, l := range links {
		if l.ChatID == "" || seen[l.ChatID] {
			continue
		}
		seen[l.ChatID] = true
		targets = append(targets, l)
	}

	outcomes := AttemptEach(ctx, targets, func(ctx context.Context, l models.Consentment) error {
		return s.guild.RemoveMember(ctx, l.ChatID, g)
	})

	for _, o := range outcomes {
		observability.RecordRemoval(o.Err)
		level := models.AuditLevelInfo
		fields := map[string]any{"chat_id": o.Item.ChatID}
		if o.Err != nil {
			level = models.AuditLevelWarning
			fields["error"] = o.Err.Error()
		}
		s.emit(ctx, models.AuditEvent{
			Event:    models.EventLinkedAccountDrop,
			Level:    level,
			VID:      m.VID,
			Nickname: o.Item.Nickname,
			Fields:   fields,
		})
	}
	return outcomes
}

// contain records an unexpected fault and hides it behind ErrPermissionDenied.
func (s *AuthorizationService) contain(ctx context.Context, m *models.Member, cause error) error {
	s.emit(ctx, models.NewAuditEvent(models.EventChatException, models.AuditLevelCritical, m, map[string]any{
		"error": cause.Error(),
	}))
	return models.ErrPermissionDenied
}

// emit forwards event to the sink. A panicking sink is ignored.
func (s *AuthorizationService) emit(ctx context.Context, event models.AuditEvent) {
	defer func() { _ = recover() }()
	s.sink.Emit(ctx, event)
}
