package mailer

import (
	"fmt"
	"time"

	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type SendGridMailer struct {
	fromEmail string
	client    *sendgrid.Client
	isSandBox bool
	logger    *zap.SugaredLogger
	enabled   bool
	backoff   time.Duration
}

func NewSendgrid(apiKey string, fromEmail string, isProduction bool, enabled bool, logger *zap.SugaredLogger) *SendGridMailer {
	return &SendGridMailer{
		fromEmail: fromEmail,
		client:    sendgrid.NewSendClient(apiKey),
		// Sandbox mode is only used to validate your request. The email will never be delivered while this feature is enabled!
		isSandBox: !isProduction,
		logger:    util.NopLoggerIfNil(logger),
		enabled:   enabled,
		backoff:   time.Second,
	}
}

func (m SendGridMailer) Enabled() bool {
	return m.enabled
}

// Send renders templateFile with data and delivers it. A disabled mailer
// renders the template and returns without calling SendGrid.
//
//	Example usage:
//	status, err := Send(mailer.UPLOAD_REPORT_TEMPLATE, user.FullName(), user.Email, report)
func (m SendGridMailer) Send(templateFile, toUsername, toEmail string, data any) (int, error) {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		m.logger.Errorf("Error occurred during mail template rendering, error: %v", err)
		return -1, err
	}

	if !m.enabled {
		m.logger.Debugf("Mail disabled, skip sending %s to %s", templateFile, toEmail)
		return 0, nil
	}

	from := mail.NewEmail(FROM_NAME, m.fromEmail)
	to := mail.NewEmail(toUsername, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", body)

	message.SetMailSettings(&mail.MailSettings{
		SandboxMode: &mail.Setting{
			Enable: &m.isSandBox,
		},
	})

	var retryErr error
	for i := 0; i < MAX_RETRY; i++ {
		response, err := m.client.Send(message)
		if err != nil {
			retryErr = err
			// linear backoff
			time.Sleep(m.backoff * time.Duration(i+1))
			continue
		}
		if response.StatusCode >= 400 {
			return response.StatusCode, fmt.Errorf("sendgrid rejected mail with status %d: %s", response.StatusCode, response.Body)
		}

		return response.StatusCode, nil
	}

	m.logger.Errorf("Failed to send email after %d attempt, error: %v", MAX_RETRY, retryErr)

	return -1, fmt.Errorf("failed to send email after %d attempt: %w", MAX_RETRY, retryErr)
}
