package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

type fakeWriter struct {
	bytes.Buffer
}

func (w *fakeWriter) Close() error { return nil }

type fakeClient struct {
	from   string
	rcpts  []string
	data   fakeWriter
	quit   bool
	rcptFn func(string) error
}

func (c *fakeClient) Mail(from string) error { c.from = from; return nil }
func (c *fakeClient) Rcpt(to string) error {
	if c.rcptFn != nil {
		if err := c.rcptFn(to); err != nil {
			return err
		}
	}
	c.rcpts = append(c.rcpts, to)
	return nil
}
func (c *fakeClient) Data() (io.WriteCloser, error) { return &c.data, nil }
func (c *fakeClient) Quit() error                   { c.quit = true; return nil }
func (c *fakeClient) Close() error                  { return nil }
func (c *fakeClient) Auth(smtp.Auth) error          { return nil }

func newFakeMailer(t *testing.T, client *fakeClient) *smtpMailer {
	t.Helper()
	m, err := NewSMTPMailer(SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "hello@strivetech.test",
	})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}
	sm := m.(*smtpMailer)
	sm.dialFn = func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
		server, clientConn := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		return clientConn, client, nil
	}
	sm.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return sm
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host validation error, got %v", err)
	}

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("expected port validation error, got %v", err)
	}

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("expected disabled configuration to succeed: %v", err)
	}
	if mailer == nil {
		t.Fatal("expected mailer to be returned")
	}
}

func TestSMTPMailerSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	err = mailer.Send(context.Background(), Message{
		To:      []string{"test@example.com"},
		Subject: "Test",
		Body:    "Hello",
	})
	if !errors.Is(err, ErrSMTPDisabled) {
		t.Fatalf("expected ErrSMTPDisabled, got %v", err)
	}
}

func TestSMTPMailerDefaultTimeout(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    465,
		UseTLS:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error creating mailer: %v", err)
	}

	if sm := mailer.(*smtpMailer); sm.cfg.Timeout != 10*time.Second {
		t.Fatalf("expected timeout to be 10s, got %v", sm.cfg.Timeout)
	}
}

func TestSMTPMailerSendDeliversEnvelope(t *testing.T) {
	client := &fakeClient{}
	mailer := newFakeMailer(t, client)

	err := mailer.Send(context.Background(), Message{
		To:      []string{"sales@strivetech.test", "SALES@strivetech.test"},
		ReplyTo: "jane@acme.test",
		Subject: "[HIGH] New project request\r\nfrom Jane",
		Body:    "line one\nline two",
	})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if client.from != "hello@strivetech.test" {
		t.Fatalf("expected default sender, got %q", client.from)
	}
	if len(client.rcpts) != 1 {
		t.Fatalf("expected duplicate recipients to collapse, got %v", client.rcpts)
	}
	if !client.quit {
		t.Fatal("expected QUIT to be issued")
	}

	content := client.data.String()
	for _, want := range []string{
		"Reply-To: jane@acme.test\r\n",
		"Subject: [HIGH] New project request  from Jane\r\n",
		"Date: Sun, 01 Mar 2026 12:00:00 +0000\r\n",
		"\r\n\r\nline one\r\nline two",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in message, got %q", want, content)
		}
	}
}

func TestSMTPMailerSendPropagatesRcptFailure(t *testing.T) {
	client := &fakeClient{rcptFn: func(string) error { return errors.New("550 mailbox unavailable") }}
	mailer := newFakeMailer(t, client)

	err := mailer.Send(context.Background(), Message{To: []string{"nobody@acme.test"}, Body: "x"})
	if err == nil || !strings.Contains(err.Error(), "rcpt to nobody@acme.test") {
		t.Fatalf("expected rcpt failure, got %v", err)
	}
}

func TestSMTPMailerSendValidatesAddresses(t *testing.T) {
	mailer := newFakeMailer(t, &fakeClient{})

	cases := []struct {
		msg  Message
		want string
	}{
		{Message{To: []string{"   ", "\t"}}, "at least one recipient"},
		{Message{From: "invalid-from", To: []string{"user@example.com"}}, "invalid from address"},
		{Message{To: []string{"user@example.com", "bad-address"}}, "invalid recipient address"},
		{Message{To: []string{"user@example.com"}, ReplyTo: "nope"}, "invalid reply-to address"},
	}
	for _, tc := range cases {
		err := mailer.Send(context.Background(), tc.msg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %q error, got %v", tc.want, err)
		}
	}
}

func TestUniqueAddresses(t *testing.T) {
	addresses := []string{"alice@example.com", "bob@example.com", " alice@example.com ", "", "BOB@example.com"}
	result := uniqueAddresses(addresses)
	if len(result) != 2 {
		t.Fatalf("expected 2 unique addresses, got %d: %v", len(result), result)
	}
	if result[0] != "alice@example.com" || result[1] != "bob@example.com" {
		t.Fatalf("unexpected result order/content: %v", result)
	}
}
