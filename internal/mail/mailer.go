package mail

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// InvitationJob is the serialized unit of email work. It carries everything
// the sender needs so dispatch never has to read the database.
type InvitationJob struct {
	To          string `json:"to"`
	Name        string `json:"name"`
	SurveyRef   string `json:"survey_ref"`
	SurveyTitle string `json:"survey_title"`
	Code        string `json:"code"`
	Message     string `json:"message,omitempty"`
	Attempts    int    `json:"attempts"`
}

// Enqueuer hands an invitation email off for delivery. Enqueueing happens
// after the invitation row is written and a failure here never rolls that
// write back; the record is the durable source of truth and email is
// best-effort and retryable.
type Enqueuer interface {
	EnqueueInvitation(ctx context.Context, job InvitationJob) error
}

// Sender delivers one invitation email through the mail provider's HTTP API.
type Sender struct {
	client  *resty.Client
	from    string
	baseURL string
	logger  *zap.Logger
}

func NewSender(apiURL, apiKey, from, baseURL string, logger *zap.Logger) *Sender {
	client := resty.New().
		SetBaseURL(apiURL).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Sender{client: client, from: from, baseURL: baseURL, logger: logger}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (s *Sender) Send(ctx context.Context, job InvitationJob) error {
	link := fmt.Sprintf("%s/participate/%s?code=%s", s.baseURL, job.SurveyRef, job.Code)

	body := fmt.Sprintf(
		"Hello %s,\n\nyou have been invited to take part in the survey %q.\n\n%s\n\nStart here: %s\n\nIf the link does not work, open %s/participate/%s and enter your code: %s\n",
		job.Name, job.SurveyTitle, job.Message, link, s.baseURL, job.SurveyRef, job.Code,
	)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    s.from,
			To:      job.To,
			Subject: fmt.Sprintf("Invitation: %s", job.SurveyTitle),
			Text:    body,
		}).
		Post("")
	if err != nil {
		return fmt.Errorf("send invitation mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail provider returned %s", resp.Status())
	}

	s.logger.Debug("invitation mail sent",
		zap.String("to", job.To),
		zap.String("survey", job.SurveyRef),
	)
	return nil
}
