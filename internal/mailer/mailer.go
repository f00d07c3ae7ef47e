package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
)

const (
	FROM_NAME              = "DocControl"
	MAX_RETRY              = 3
	UPLOAD_REPORT_TEMPLATE = "upload_report.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, toUsername, toEmail string, data any) (int, error)
}

// UploadReport feeds templates/upload_report.tmpl.
type UploadReport struct {
	RecipientName string
	FileName      string
	ProjectTitle  string
	UploadedAt    time.Time
	Total         int
	Successful    int
	Failed        int
	Failures      []UploadFailure
}

type UploadFailure struct {
	Destination string
	Error       string
}

// Render executes the "subject" and "body" blocks of a template file.
func Render(templateFile string, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse mail template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", fmt.Errorf("failed to render subject of %s: %w", templateFile, err)
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", fmt.Errorf("failed to render body of %s: %w", templateFile, err)
	}

	return subject.String(), body.String(), nil
}

// SendAsync sends in the background. The outcome is only logged.
func SendAsync(client Client, logger *zap.SugaredLogger, templateFile, toUsername, toEmail string, data any) <-chan struct{} {
	done := make(chan struct{})
	if client == nil || toEmail == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Panic while sending mail %s to %s: %v", templateFile, toEmail, r)
			}
		}()

		status, err := client.Send(templateFile, toUsername, toEmail, data)
		if err != nil {
			logger.Errorf("Failed to send mail %s to %s, status: %d, error: %v", templateFile, toEmail, status, err)
			return
		}
		logger.Debugf("Mail %s sent to %s with status %d", templateFile, toEmail, status)
	}()

	return done
}
