package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Opsightlive/opsight-live-sub001/internal/config"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
	"github.com/Opsightlive/opsight-live-sub001/internal/realtime"
	"github.com/Opsightlive/opsight-live-sub001/pkg/email"
	"github.com/Opsightlive/opsight-live-sub001/pkg/sms"
)

// Channel delivers one notification job over a specific transport. New
// channels are added by implementing this capability.
type Channel interface {
	Type() models.NotificationType
	Send(ctx context.Context, job models.NotificationJob) error
}

// DashboardChannel pushes to the realtime hub. The dashboard row itself
// is already persisted; delivery here is a best-effort live update and
// always succeeds.
type DashboardChannel struct {
	hub *realtime.Hub
}

func NewDashboardChannel(hub *realtime.Hub) *DashboardChannel {
	return &DashboardChannel{hub: hub}
}

func (c *DashboardChannel) Type() models.NotificationType {
	return models.ChannelDashboard
}

func (c *DashboardChannel) Send(_ context.Context, job models.NotificationJob) error {
	if c.hub != nil {
		c.hub.SendToUser(job.Recipient, []byte(job.Message))
	}
	return nil
}

// EmailChannel sends over SMTP, rate limited across the process.
type EmailChannel struct {
	cfg     config.Config
	limiter *rate.Limiter
}

func NewEmailChannel(cfg config.Config) *EmailChannel {
	return &EmailChannel{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.EmailPerSecond), cfg.RateLimit.EmailPerSecond),
	}
}

func (c *EmailChannel) Type() models.NotificationType {
	return models.ChannelEmail
}

func (c *EmailChannel) Send(ctx context.Context, job models.NotificationJob) error {
	if c.cfg.Email.SMTPServer == "" || c.cfg.Email.SMTPPort == 0 || c.cfg.Email.Username == "" {
		return fmt.Errorf("missing email configuration: SMTPServer, SMTPPort, or Username is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limit wait failed: %w", err)
	}
	if err := email.Send(
		c.cfg.Email.SMTPServer,
		c.cfg.Email.SMTPPort,
		c.cfg.Email.Username,
		c.cfg.Email.Password,
		job.Recipient,
		job.Subject,
		job.Message,
	); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", job.Recipient, err)
	}
	return nil
}

// SMSChannel sends through Twilio, rate limited across the process.
type SMSChannel struct {
	cfg     config.Config
	limiter *rate.Limiter
}

func NewSMSChannel(cfg config.Config) *SMSChannel {
	return &SMSChannel{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.SMSPerSecond), cfg.RateLimit.SMSPerSecond),
	}
}

func (c *SMSChannel) Type() models.NotificationType {
	return models.ChannelSMS
}

func (c *SMSChannel) Send(ctx context.Context, job models.NotificationJob) error {
	if c.cfg.SMS.AccountSID == "" || c.cfg.SMS.AuthToken == "" || c.cfg.SMS.FromNumber == "" {
		return fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limit wait failed: %w", err)
	}
	return sms.Send(
		c.cfg.SMS.AccountSID,
		c.cfg.SMS.AuthToken,
		c.cfg.SMS.FromNumber,
		job.Recipient,
		job.Message,
	)
}
