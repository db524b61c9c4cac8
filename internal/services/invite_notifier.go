package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/pkg/mail"
	"github.com/strivetech/saiplatform/pkg/metrics"
)

// InviteNotice describes an invitation that should reach the invitee.
type InviteNotice struct {
	Email            string
	OrganizationName string
	InviterName      string
	Role             models.MemberRole
}

// InviteNotifier delivers invitation notices.
type InviteNotifier interface {
	NotifyInvite(ctx context.Context, notice InviteNotice) error
}

// MailInviteNotifier sends invitation notices as plain-text email.
type MailInviteNotifier struct {
	mailer mail.Mailer
	appURL string
}

// NewMailInviteNotifier constructs a notifier; appURL is linked in the message body.
func NewMailInviteNotifier(mailer mail.Mailer, appURL string) (*MailInviteNotifier, error) {
	if mailer == nil {
		return nil, errors.New("invite notifier: mailer is required")
	}
	return &MailInviteNotifier{mailer: mailer, appURL: strings.TrimRight(strings.TrimSpace(appURL), "/")}, nil
}

// NotifyInvite emails the invitee.
func (n *MailInviteNotifier) NotifyInvite(ctx context.Context, notice InviteNotice) error {
	inviter := strings.TrimSpace(notice.InviterName)
	if inviter == "" {
		inviter = "A teammate"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s invited you to join %s on SAI Platform as %s.\n", inviter, notice.OrganizationName, notice.Role)
	if n.appURL != "" {
		fmt.Fprintf(&body, "\nSign in to accept: %s\n", n.appURL)
	}

	err := n.mailer.Send(ensureContext(ctx), mail.Message{
		To:      []string{notice.Email},
		Subject: fmt.Sprintf("You've been invited to %s", notice.OrganizationName),
		Body:    body.String(),
	})
	observeDelivery("invite", err)
	return err
}

func observeDelivery(kind string, err error) {
	result := "success"
	switch {
	case errors.Is(err, mail.ErrSMTPDisabled):
		result = "disabled"
	case err != nil:
		result = "failure"
	}
	metrics.MailDeliveries.WithLabelValues(kind, result).Inc()
}
