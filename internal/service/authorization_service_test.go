package service

import (
	"context"
	"errors"
	"testing"

	"guildlink/internal/audit"
	"guildlink/internal/featureflags"
	"guildlink/internal/gateway"
	"guildlink/internal/models"
	"guildlink/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogStub struct {
	rolesFn func(context.Context) ([]models.Role, error)
}

func (s *catalogStub) Roles(ctx context.Context) ([]models.Role, error) {
	return s.rolesFn(ctx)
}

type lockerStub struct {
	lockFn func(context.Context, int64) (func(), error)
}

func (s *lockerStub) Lock(ctx context.Context, vid int64) (func(), error) {
	return s.lockFn(ctx, vid)
}

type fixture struct {
	svc      *AuthorizationService
	store    *testutil.ConsentStoreStub
	guild    *testutil.GuildStub
	recorder *audit.Recorder
}

func newFixture(t *testing.T, catalog RoleCatalog, flags string) *fixture {
	t.Helper()
	f := &fixture{
		store:    testutil.NewConsentStoreStub(),
		guild:    &testutil.GuildStub{Guild: testutil.Guild("XE", models.MemberSuffix, "DIR:ADIR", "TC", "WM")},
		recorder: &audit.Recorder{},
	}
	if catalog == nil {
		catalog = testutil.StaticCatalog{models.MemberSuffix, "DIR:ADIR", "TC", "WM"}
	}
	f.svc = NewAuthorizationService(f.store, catalog, f.guild, nil, f.recorder, featureflags.NewManager(flags))
	return f
}

func member(p models.Profile, chatID string) *models.Member {
	m := models.NewMember(p)
	m.BindChat(chatID, "chat-token")
	return m
}

func failingCatalog(t *testing.T) RoleCatalog {
	return &catalogStub{rolesFn: func(context.Context) ([]models.Role, error) {
		t.Fatal("role catalog must not be read")
		return nil, nil
	}}
}

func TestAuthorize_StatusGate(t *testing.T) {
	tests := []struct {
		name   string
		status models.AccountStatus
		reason string
		event  string
	}{
		{"suspended", models.AccountStatusSuspended, models.ReasonSuspended, models.EventAccountSuspended},
		{"inactive", models.AccountStatusInactive, models.ReasonInactive, models.EventAccountInactive},
		{"unknown status", models.AccountStatus(7), models.ReasonNotActive, models.EventAccountNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, failingCatalog(t), "")
			p := testutil.ActiveProfile(100, 50)
			p.Rating = int(tt.status)
			m := member(p, "c1")

			c, err := f.svc.Authorize(context.Background(), m)
			assert.Nil(t, c)

			var inactive *models.AccountInactiveError
			require.True(t, errors.As(err, &inactive))
			assert.Equal(t, tt.reason, inactive.Reason)
			assert.Equal(t, m.StatusReason(), inactive.Reason)
			assert.False(t, models.IsPermissionDenied(err))

			assert.Equal(t, []string{tt.event}, f.recorder.Names())
			assert.Empty(t, f.guild.Added)
			assert.Empty(t, f.store.Active(100))
			assert.Nil(t, m.Roles())
		})
	}
}

func TestCheckStatus_ActiveVariants(t *testing.T) {
	f := newFixture(t, nil, "")
	for _, status := range []models.AccountStatus{models.AccountStatusActive, models.AccountStatusActive11, models.AccountStatusActive12} {
		p := testutil.ActiveProfile(1, 10)
		p.Rating = int(status)
		assert.NoError(t, f.svc.CheckStatus(context.Background(), models.NewMember(p)))
	}
	assert.Empty(t, f.recorder.Names())
}

func TestAuthorize_EmptyRolesIsDenied(t *testing.T) {
	f := newFixture(t, testutil.StaticCatalog{"DIR", "TC"}, "")
	m := member(testutil.ActiveProfile(200, 100), "c1")

	c, err := f.svc.Authorize(context.Background(), m)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Equal(t, []string{models.EventRolesEmpty}, f.recorder.Names())
	assert.Empty(t, f.store.Active(200))
	assert.Empty(t, f.guild.Added)
}

func TestAuthorize_NotEnoughHoursIsDenied(t *testing.T) {
	for _, hours := range []float64{0, 4.99, 5} {
		f := newFixture(t, nil, "")
		m := member(testutil.ActiveProfile(300, hours), "c1")

		_, err := f.svc.Authorize(context.Background(), m)
		assert.ErrorIs(t, err, models.ErrPermissionDenied, "hours=%v", hours)
		assert.Equal(t, []string{models.EventNotEnoughHours}, f.recorder.Names())
		assert.Empty(t, f.store.Active(300))
	}
}

func TestAuthorize_Success(t *testing.T) {
	f := newFixture(t, nil, "")
	m := member(testutil.StaffProfile(400, 5.01, "ADIR"), "c1")

	c, err := f.svc.Authorize(context.Background(), m)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.True(t, c.Active)
	assert.Equal(t, int64(400), c.VID)
	assert.Equal(t, "c1", c.ChatID)
	assert.Equal(t, m.GenerateNickname(), c.Nickname)
	assert.Equal(t, "XE Member:XE DIR:ADIR", c.Roles)
	assert.Equal(t, []string{models.MemberSuffix, "DIR:ADIR"}, models.RoleSuffixes(m.Roles()))

	assert.Equal(t, []string{"c1"}, f.guild.Added)
	assert.Empty(t, f.guild.Removed)
	assert.Equal(t, []string{models.EventAssignRoles, models.EventJoinServer}, f.recorder.Names())

	ev, ok := f.recorder.Find(models.EventAssignRoles)
	require.True(t, ok)
	assert.Equal(t, []string{models.MemberSuffix, "DIR:ADIR"}, ev.Fields["roles"])
}

func TestAuthorize_ReplacesPriorConsentment(t *testing.T) {
	f := newFixture(t, nil, "")
	f.store.Seed(models.Consentment{VID: 500, ChatID: "c1", Active: true})

	_, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(500, 20), "c1"))
	require.NoError(t, err)

	active := f.store.Active(500)
	require.Len(t, active, 1)
	assert.Equal(t, "c1", active[0].ChatID)
	assert.Empty(t, f.guild.Removed, "re-linking the same chat account must not kick it")

	all, err := f.store.ListByVID(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAuthorize_RemovesLinkedAccountBestEffort(t *testing.T) {
	f := newFixture(t, nil, "")
	f.store.Seed(models.Consentment{VID: 42, ChatID: "A", Active: true})
	f.guild.RemoveMemberFn = func(context.Context, string, *models.Guild) error {
		return errors.New("gateway timeout")
	}

	c, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(42, 20), "B"))
	require.NoError(t, err)
	assert.Equal(t, "B", c.ChatID)

	assert.Equal(t, []string{"A"}, f.guild.Removed)
	active := f.store.Active(42)
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].ChatID)

	ev, ok := f.recorder.Find(models.EventLinkedAccountDrop)
	require.True(t, ok)
	assert.Equal(t, models.AuditLevelWarning, ev.Level)
	_, critical := f.recorder.Find(models.EventChatException)
	assert.False(t, critical)
}

func TestReconcile_CollectsOutcomes(t *testing.T) {
	f := newFixture(t, nil, "")
	// Rows left over from before the unique index existed.
	f.store.Seed(
		models.Consentment{VID: 42, ChatID: "A", Active: true},
		models.Consentment{VID: 42, ChatID: "C", Active: true},
		models.Consentment{VID: 42, ChatID: "A", Active: true},
	)
	f.guild.RemoveMemberFn = func(_ context.Context, chatID string, _ *models.Guild) error {
		if chatID == "A" {
			return errors.New("missing permissions")
		}
		return nil
	}

	report, err := f.svc.Reconcile(context.Background(), member(testutil.ActiveProfile(42, 20), "B"), f.guild.Guild)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, report.Removed())
	assert.Equal(t, []string{"A"}, report.Failed())
	assert.Len(t, report.Outcomes, 2)
	assert.Empty(t, f.store.Active(42))
}

func TestReconcile_StoreErrorIsReturned(t *testing.T) {
	f := newFixture(t, nil, "")
	f.store.Err = errors.New("db down")

	_, err := f.svc.Reconcile(context.Background(), member(testutil.ActiveProfile(42, 20), "B"), f.guild.Guild)
	assert.Error(t, err)
	assert.Empty(t, f.guild.Removed)
}

func TestAuthorize_GatewayFaultIsContained(t *testing.T) {
	f := newFixture(t, nil, "")
	f.guild.AddMemberFn = func(context.Context, *models.Member, *models.Guild) error {
		return &gateway.APIError{Operation: "guild.add_member", Status: 500, Body: "boom"}
	}
	m := member(testutil.ActiveProfile(600, 20), "c1")

	c, err := f.svc.Authorize(context.Background(), m)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	var apiErr *gateway.APIError
	assert.False(t, errors.As(err, &apiErr))

	ev, ok := f.recorder.Find(models.EventChatException)
	require.True(t, ok)
	assert.Equal(t, models.AuditLevelCritical, ev.Level)
	assert.Equal(t, m.GenerateNickname(), ev.Nickname)
	assert.Contains(t, ev.Fields["error"], "boom")
	assert.Empty(t, f.store.Active(600))
}

func TestAuthorize_FaultsBecomePermissionDenied(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fixture)
	}{
		{"guild lookup", func(f *fixture) {
			f.guild.ResolveGuildFn = func(context.Context) (*models.Guild, error) { return nil, errors.New("dns") }
		}},
		{"role name", func(f *fixture) {
			f.guild.RoleNameFn = func(context.Context, *models.Guild, models.Role) (string, error) {
				return "", errors.New("rate limited")
			}
		}},
		{"consent store", func(f *fixture) { f.store.Err = errors.New("db down") }},
		{"panic", func(f *fixture) {
			f.guild.AddMemberFn = func(context.Context, *models.Member, *models.Guild) error { panic("nil guild") }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, "")
			tt.setup(f)

			_, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(700, 20), "c1"))
			assert.Same(t, models.ErrPermissionDenied, err)
			_, ok := f.recorder.Find(models.EventChatException)
			assert.True(t, ok)
		})
	}
}

func TestAuthorize_CatalogFailure(t *testing.T) {
	f := newFixture(t, &catalogStub{rolesFn: func(context.Context) ([]models.Role, error) {
		return nil, errors.New("redis and db down")
	}}, "")

	_, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(800, 20), "c1"))
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Equal(t, []string{models.EventChatException}, f.recorder.Names())
}

func TestAuthorize_LockFailure(t *testing.T) {
	f := newFixture(t, nil, "")
	f.svc.locker = &lockerStub{lockFn: func(context.Context, int64) (func(), error) {
		return nil, errors.New("lock timeout")
	}}

	_, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(900, 20), "c1"))
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Empty(t, f.guild.Added)
}

func TestAuthorize_HoldsLockDuringCommit(t *testing.T) {
	f := newFixture(t, nil, "")
	locked, released := 0, 0
	f.svc.locker = &lockerStub{lockFn: func(_ context.Context, vid int64) (func(), error) {
		assert.Equal(t, int64(901), vid)
		locked++
		return func() { released++ }, nil
	}}
	f.guild.AddMemberFn = func(context.Context, *models.Member, *models.Guild) error {
		assert.Equal(t, 1, locked)
		assert.Equal(t, 0, released)
		return nil
	}

	_, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(901, 20), "c1"))
	require.NoError(t, err)
	assert.Equal(t, 1, released)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t, nil, "")
	f.store.Seed(models.Consentment{VID: 42, ChatID: "A", Active: true, Nickname: "Ana - 42"})

	report, err := f.svc.Revoke(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, RevokeReport{VID: 42, Revoked: 1, Removed: []string{"A"}, Failed: []string{}}, report)
	assert.Empty(t, f.store.Active(42))
	assert.Equal(t, []string{"A"}, f.guild.Removed)
	assert.Contains(t, f.recorder.Names(), models.EventLinkRevoked)
}

func TestRevoke_NothingLinked(t *testing.T) {
	f := newFixture(t, nil, "")
	f.guild.ResolveGuildFn = func(context.Context) (*models.Guild, error) {
		t.Fatal("guild must not be resolved")
		return nil, nil
	}

	report, err := f.svc.Revoke(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Revoked)
}

func TestRevoke_RemovalFailures(t *testing.T) {
	seed := func(f *fixture) {
		f.store.Seed(models.Consentment{VID: 42, ChatID: "A", Active: true})
		f.guild.RemoveMemberFn = func(context.Context, string, *models.Guild) error {
			return errors.New("gateway down")
		}
	}

	t.Run("best effort by default", func(t *testing.T) {
		f := newFixture(t, nil, "")
		seed(f)

		report, err := f.svc.Revoke(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, report.Failed)
		assert.Empty(t, f.store.Active(42))
	})

	t.Run("strict_revoke returns the failures", func(t *testing.T) {
		f := newFixture(t, nil, "strict_revoke=on")
		seed(f)

		report, err := f.svc.Revoke(context.Background(), 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway down")
		assert.Equal(t, []string{"A"}, report.Failed)
		assert.Empty(t, f.store.Active(42), "the consentment is revoked even when the guild removal fails")
	})

	t.Run("guild lookup failure fails every removal", func(t *testing.T) {
		f := newFixture(t, nil, "")
		seed(f)
		f.guild.ResolveGuildFn = func(context.Context) (*models.Guild, error) { return nil, errors.New("dns") }

		report, err := f.svc.Revoke(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, report.Failed)
		assert.Empty(t, f.guild.Removed)
	})
}

func TestRevoke_StoreError(t *testing.T) {
	f := newFixture(t, nil, "")
	f.store.Err = errors.New("db down")

	_, err := f.svc.Revoke(context.Background(), 42)
	assert.Error(t, err)
}

type panickingSink struct{}

func (panickingSink) Emit(context.Context, models.AuditEvent) { panic("sink down") }

func TestAuthorize_SinkPanicDoesNotChangeOutcome(t *testing.T) {
	f := newFixture(t, nil, "")
	f.svc.sink = panickingSink{}

	c, err := f.svc.Authorize(context.Background(), member(testutil.ActiveProfile(1000, 20), "c1"))
	require.NoError(t, err)
	assert.True(t, c.Active)
}
