package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strivetech/saiplatform/pkg/logger"
	"github.com/strivetech/saiplatform/pkg/mail"
	"github.com/strivetech/saiplatform/pkg/metrics"
	"github.com/strivetech/saiplatform/pkg/validator"
)

// Priority ranks an inbound inquiry.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const (
	highPriorityScore   = 7
	mediumPriorityScore = 4
)

var (
	serviceWeights = map[string]int{
		"ai-solutions":       3,
		"machine-learning":   3,
		"custom-software":    3,
		"automation":         2,
		"data-analytics":     2,
		"cloud-migration":    2,
		"web-development":    1,
		"consulting":         1,
		"staff-augmentation": 1,
	}
	budgetWeights = map[string]int{
		"under-10k": 0,
		"10k-25k":   1,
		"25k-50k":   2,
		"50k-100k":  3,
		"100k-plus": 4,
	}
	timelineWeights = map[string]int{
		"asap":          3,
		"1-3-months":    2,
		"3-6-months":    1,
		"6-plus-months": 0,
		"flexible":      0,
	}
)

// ScorePriority sums the lookup table weights of an inquiry. Unknown values
// weigh nothing.
func ScorePriority(service, budget, timeline string) Priority {
	score := serviceWeights[lookupKey(service)] +
		budgetWeights[lookupKey(budget)] +
		timelineWeights[lookupKey(timeline)]
	switch {
	case score >= highPriorityScore:
		return PriorityHigh
	case score >= mediumPriorityScore:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// urgentPhrases mark a contact message as time sensitive. A match weighs the
// same as an "asap" timeline on a project request.
var urgentPhrases = []string{"urgent", "asap", "as soon as possible", "immediately", "right away", "this week", "deadline"}

// ScoreContactPriority scores a contact inquiry on its service interest plus
// any urgency expressed in the message.
func ScoreContactPriority(service, message string) Priority {
	timeline := ""
	lowered := strings.ToLower(message)
	for _, phrase := range urgentPhrases {
		if strings.Contains(lowered, phrase) {
			timeline = "asap"
			break
		}
	}
	return ScorePriority(service, "", timeline)
}

func lookupKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Join(strings.Fields(value), "-")
}

// withPriority prefixes subject for non-low inquiries.
func withPriority(priority Priority, subject string) string {
	if priority == PriorityLow || priority == "" {
		return subject
	}
	return fmt.Sprintf("[%s PRIORITY] %s", strings.ToUpper(string(priority)), subject)
}

// ContactSubmission is the payload of the contact form.
type ContactSubmission struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company" validate:"max=100"`
	Phone   string `json:"phone" validate:"max=30"`
	Service string `json:"service" validate:"max=100"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// NewsletterSubscription is the payload of the newsletter form.
type NewsletterSubscription struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=100"`
}

// ProjectRequest is the payload of the project request form.
type ProjectRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Company  string `json:"company" validate:"required,max=100"`
	Service  string `json:"service" validate:"required,max=100"`
	Budget   string `json:"budget" validate:"required,max=50"`
	Timeline string `json:"timeline" validate:"required,max=50"`
	Details  string `json:"details" validate:"required,min=10,max=5000"`
}

// SubmissionReceipt acknowledges an accepted form submission.
type SubmissionReceipt struct {
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// FormSettings configures where form submissions are delivered.
type FormSettings struct {
	Recipient string
	SiteName  string
}

// FormService validates marketing form submissions and forwards them by email.
type FormService struct {
	mailer   mail.Mailer
	settings FormSettings
}

// NewFormService constructs a FormService.
func NewFormService(mailer mail.Mailer, settings FormSettings) (*FormService, error) {
	if mailer == nil {
		return nil, errors.New("form service: mailer is required")
	}
	settings.Recipient = strings.TrimSpace(settings.Recipient)
	if settings.Recipient == "" {
		return nil, errors.New("form service: recipient is required")
	}
	if strings.TrimSpace(settings.SiteName) == "" {
		settings.SiteName = "Strive Tech"
	}
	return &FormService{mailer: mailer, settings: settings}, nil
}

// SubmitContact forwards a contact inquiry to the inbox.
func (s *FormService) SubmitContact(ctx context.Context, submission ContactSubmission) (*SubmissionReceipt, error) {
	ctx = ensureContext(ctx)
	submission = ContactSubmission{
		Name:    strings.TrimSpace(submission.Name),
		Email:   normaliseEmail(submission.Email),
		Company: strings.TrimSpace(submission.Company),
		Phone:   strings.TrimSpace(submission.Phone),
		Service: strings.TrimSpace(submission.Service),
		Message: strings.TrimSpace(submission.Message),
	}
	if err := validator.Check(submission); err != nil {
		return nil, err
	}

	priority := ScoreContactPriority(submission.Service, submission.Message)
	body := formatFields([][2]string{
		{"Name", submission.Name},
		{"Email", submission.Email},
		{"Company", submission.Company},
		{"Phone", submission.Phone},
		{"Service interest", submission.Service},
		{"Priority", string(priority)},
	}, submission.Message)

	err := s.deliver(ctx, "contact", mail.Message{
		To:      []string{s.settings.Recipient},
		ReplyTo: submission.Email,
		Subject: withPriority(priority, fmt.Sprintf("New contact inquiry from %s", submission.Name)),
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	metrics.FormSubmissions.WithLabelValues("contact", string(priority)).Inc()
	return &SubmissionReceipt{Priority: priority, Message: "Thank you for reaching out. We will be in touch shortly."}, nil
}

// Subscribe records a newsletter subscription with the inbox and welcomes the
// subscriber. A failed welcome email does not fail the subscription.
func (s *FormService) Subscribe(ctx context.Context, subscription NewsletterSubscription) (*SubmissionReceipt, error) {
	ctx = ensureContext(ctx)
	subscription = NewsletterSubscription{
		Email: normaliseEmail(subscription.Email),
		Name:  strings.TrimSpace(subscription.Name),
	}
	if err := validator.Check(subscription); err != nil {
		return nil, err
	}

	err := s.deliver(ctx, "newsletter", mail.Message{
		To:      []string{s.settings.Recipient},
		ReplyTo: subscription.Email,
		Subject: "New newsletter subscriber",
		Body: formatFields([][2]string{
			{"Email", subscription.Email},
			{"Name", subscription.Name},
		}, ""),
	})
	if err != nil {
		return nil, err
	}

	greeting := "Hello"
	if subscription.Name != "" {
		greeting = "Hello " + subscription.Name
	}
	welcome := mail.Message{
		To:      []string{subscription.Email},
		Subject: fmt.Sprintf("Welcome to the %s newsletter", s.settings.SiteName),
		Body:    fmt.Sprintf("%s,\n\nThanks for subscribing to the %s newsletter.\n", greeting, s.settings.SiteName),
	}
	if err := s.deliver(ctx, "welcome", welcome); err != nil {
		logger.WithModule("forms").Warn("failed to send welcome email",
			zap.String("email", subscription.Email),
			zap.Error(err),
		)
	}

	metrics.FormSubmissions.WithLabelValues("newsletter", string(PriorityLow)).Inc()
	return &SubmissionReceipt{Priority: PriorityLow, Message: "Thanks for subscribing!"}, nil
}

// SubmitRequest scores a project request and forwards it to the inbox.
func (s *FormService) SubmitRequest(ctx context.Context, request ProjectRequest) (*SubmissionReceipt, error) {
	ctx = ensureContext(ctx)
	request = ProjectRequest{
		Name:     strings.TrimSpace(request.Name),
		Email:    normaliseEmail(request.Email),
		Company:  strings.TrimSpace(request.Company),
		Service:  strings.TrimSpace(request.Service),
		Budget:   strings.TrimSpace(request.Budget),
		Timeline: strings.TrimSpace(request.Timeline),
		Details:  strings.TrimSpace(request.Details),
	}
	if err := validator.Check(request); err != nil {
		return nil, err
	}

	priority := ScorePriority(request.Service, request.Budget, request.Timeline)
	body := formatFields([][2]string{
		{"Name", request.Name},
		{"Email", request.Email},
		{"Company", request.Company},
		{"Service", request.Service},
		{"Budget", request.Budget},
		{"Timeline", request.Timeline},
		{"Priority", string(priority)},
	}, request.Details)

	err := s.deliver(ctx, "request", mail.Message{
		To:      []string{s.settings.Recipient},
		ReplyTo: request.Email,
		Subject: withPriority(priority, fmt.Sprintf("New project request from %s (%s)", request.Name, request.Company)),
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	metrics.FormSubmissions.WithLabelValues("request", string(priority)).Inc()
	return &SubmissionReceipt{Priority: priority, Message: "Thanks! Our team will review your request and respond soon."}, nil
}

func (s *FormService) deliver(ctx context.Context, kind string, msg mail.Message) error {
	err := s.mailer.Send(ctx, msg)
	observeDelivery(kind, err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mail.ErrSMTPDisabled):
		return ErrEmailNotConfigured
	default:
		return ErrEmailDelivery.WithInternal(fmt.Errorf("%s email: %w", kind, err))
	}
}

func formatFields(fields [][2]string, message string) string {
	var b strings.Builder
	for _, field := range fields {
		if field[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", field[0], field[1])
	}
	if message != "" {
		b.WriteString("\n")
		b.WriteString(message)
		b.WriteString("\n")
	}
	return b.String()
}
