package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strivetech/saiplatform/internal/handlers/testutil"
	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/mail"
)

func TestContactForm(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/forms/contact", map[string]string{
		"name":    "Casey Client",
		"email":   "Casey@Example.com",
		"service": "AI Solutions",
		"message": "We would like to talk about a new platform.",
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var receipt services.SubmissionReceipt
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &receipt)
	require.Equal(t, services.PriorityLow, receipt.Priority)

	sent := env.Mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"inbox@example.com"}, sent[0].To)
	require.Equal(t, "casey@example.com", sent[0].ReplyTo)
	require.Contains(t, sent[0].Body, "We would like to talk")
}

func TestProjectRequestPriority(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/forms/request", map[string]string{
		"name":     "Casey Client",
		"email":    "casey@example.com",
		"company":  "Example Inc",
		"service":  "machine-learning",
		"budget":   "100k-plus",
		"timeline": "asap",
		"details":  "Forecasting models for our supply chain.",
	}, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var receipt services.SubmissionReceipt
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &receipt)
	require.Equal(t, services.PriorityHigh, receipt.Priority)

	sent := env.Mailer.Sent()
	require.Len(t, sent, 1)
	require.True(t, strings.HasPrefix(sent[0].Subject, "[HIGH PRIORITY]"), sent[0].Subject)
}

func TestFormValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/forms/newsletter", map[string]string{"email": "nope"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Error.Fields)
	require.Empty(t, env.Mailer.Sent())
}

func TestFormsWithoutEmailDelivery(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Mailer.Err = mail.ErrSMTPDisabled

	w := env.Request(http.MethodPost, "/api/forms/contact", map[string]string{
		"name":    "Casey Client",
		"email":   "casey@example.com",
		"message": "Is anybody reading this inbox?",
	}, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "EMAIL_NOT_CONFIGURED", resp.Error.Code)
	require.True(t, resp.Error.Retryable)
}

func TestFormsRateLimited(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithFormRateLimit(2, time.Minute))
	body := map[string]string{"email": "reader@example.com"}

	for i := 0; i < 2; i++ {
		w := env.Request(http.MethodPost, "/api/forms/newsletter", body, "")
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	}

	w := env.Request(http.MethodPost, "/api/forms/newsletter", body, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}
