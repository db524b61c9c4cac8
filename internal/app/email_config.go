package app

import (
	"strings"

	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     strings.TrimSpace(c.SMTP.From),
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// FormSettings converts FormsConfig to the form service representation.
func (c FormsConfig) FormSettings() services.FormSettings {
	return services.FormSettings{
		Recipient: strings.TrimSpace(c.Recipient),
		SiteName:  strings.TrimSpace(c.SiteName),
	}
}
