package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/database/testutil"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/requestctx"
	"github.com/strivetech/saiplatform/pkg/mail"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedUser(t *testing.T, db *gorm.DB, email, name string) *models.User {
	t.Helper()

	subject := "auth|" + uuid.NewString()
	user := &models.User{
		Email:      email,
		Name:       name,
		Role:       models.UserRoleEmployee,
		ExternalID: &subject,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedMembership(t *testing.T, db *gorm.DB, userID, orgID string, role models.MemberRole, joinedAt time.Time) *models.OrganizationMember {
	t.Helper()

	member := &models.OrganizationMember{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		JoinedAt:       joinedAt,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func seedOrganization(t *testing.T, db *gorm.DB, name, slug string) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: name, Slug: slug}
	require.NoError(t, db.Create(org).Error)
	return org
}

func actorContext(user *models.User) context.Context {
	return requestctx.WithActor(context.Background(), requestctx.Actor{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// fixedClock returns successive instants one minute apart so joined_at and
// created_at orderings are deterministic.
func fixedClock(start time.Time) func() time.Time {
	var (
		mu   sync.Mutex
		next = start
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current := next
		next = next.Add(time.Minute)
		return current
	}
}

type invalidation struct {
	route string
	scope string
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []invalidation
}

func (r *recordingInvalidator) Invalidate(_ context.Context, route, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, invalidation{route: route, scope: scope})
}

func (r *recordingInvalidator) routes(scope string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var routes []string
	for _, call := range r.calls {
		if call.scope == scope {
			routes = append(routes, call.route)
		}
	}
	return routes
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []InviteNotice
	err     error
}

func (n *recordingNotifier) NotifyInvite(_ context.Context, notice InviteNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) sent() []InviteNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]InviteNotice(nil), n.notices...)
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	errFor   func(mail.Message) error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errFor != nil {
		if err := m.errFor(msg); err != nil {
			return err
		}
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

type organizationFixture struct {
	db       *gorm.DB
	orgs     *OrganizationService
	queries  *OrganizationQueries
	activity *ActivityService
	views    *recordingInvalidator
	notifier *recordingNotifier
}

func newOrganizationFixture(t *testing.T) *organizationFixture {
	t.Helper()

	db := openServiceTestDB(t)
	activity, err := NewActivityService(db)
	require.NoError(t, err)

	views := &recordingInvalidator{}
	notifier := &recordingNotifier{}
	orgs, err := NewOrganizationService(db, nil, activity, views, notifier)
	require.NoError(t, err)
	orgs.now = fixedClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	t.Cleanup(orgs.Wait)

	queries, err := NewOrganizationQueries(db)
	require.NoError(t, err)

	return &organizationFixture{
		db:       db,
		orgs:     orgs,
		queries:  queries,
		activity: activity,
		views:    views,
		notifier: notifier,
	}
}
