package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/telegram"
	"golang-fii-analyzer/pkg/utils"
)

// ChannelOutcome is the per-channel result of one dispatch attempt.
type ChannelOutcome struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// NotificationDispatcher fans a triggered alert out to every configured
// channel. Per-channel failures are caught and logged, never propagated: the
// call always completes with an outcome per attempted channel.
type NotificationDispatcher interface {
	Send(ctx context.Context, trigger entity.AlertTrigger) []ChannelOutcome
	TestConnections(ctx context.Context) map[string]bool
}

// NewNotificationDispatcher creates a dispatcher from the notification config.
// telegramNotifier may be nil when the channel is unconfigured.
func NewNotificationDispatcher(cfg *config.Config, telegramNotifier telegram.Notifier, log *logger.Logger) NotificationDispatcher {
	return &notificationDispatcher{
		cfg:              cfg.Notification,
		telegramNotifier: telegramNotifier,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		logger:           log,
	}
}

type notificationDispatcher struct {
	cfg              config.Notification
	telegramNotifier telegram.Notifier
	httpClient       *http.Client
	logger           *logger.Logger
}

type channelSend struct {
	name string
	send func(ctx context.Context) error
}

// Send attempts every configured channel concurrently and waits for all of
// them to settle.
func (d *notificationDispatcher) Send(ctx context.Context, trigger entity.AlertTrigger) []ChannelOutcome {
	if !d.cfg.Enabled {
		return nil
	}
	return d.fanOut(ctx, d.channels(trigger))
}

// TestConnections exercises each configured channel with a canned message and
// reports a per-channel boolean outcome.
func (d *notificationDispatcher) TestConnections(ctx context.Context) map[string]bool {
	canned := entity.AlertTrigger{
		Alert: entity.Alert{
			Ticker:    "TEST11",
			Type:      entity.AlertTypePrice,
			Condition: entity.AlertConditionAbove,
		},
		TriggeredAt: utils.TimeNowBRT(),
		Message:     "Connectivity test - FII Analyzer",
	}

	results := make(map[string]bool)
	for _, outcome := range d.fanOut(ctx, d.channels(canned)) {
		results[outcome.Channel] = outcome.OK
	}
	return results
}

func (d *notificationDispatcher) channels(trigger entity.AlertTrigger) []channelSend {
	var channels []channelSend

	if d.cfg.Email.SMTPHost != "" && d.cfg.Email.To != "" {
		channels = append(channels, channelSend{
			name: "email",
			send: func(_ context.Context) error { return d.sendEmail(trigger) },
		})
	}
	if d.telegramNotifier != nil {
		channels = append(channels, channelSend{
			name: "telegram",
			send: func(_ context.Context) error {
				return d.telegramNotifier.SendMessage(telegram.FormatAlertTriggerForTelegram(trigger))
			},
		})
	}
	if d.cfg.WebhookURL != "" {
		channels = append(channels, channelSend{
			name: "webhook",
			send: func(ctx context.Context) error { return d.sendWebhook(ctx, trigger) },
		})
	}
	return channels
}

func (d *notificationDispatcher) fanOut(ctx context.Context, channels []channelSend) []ChannelOutcome {
	outcomes := make([]ChannelOutcome, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		// Name the slot up front so a send that panics still reports its
		// channel instead of a zero outcome.
		outcomes[i].Channel = ch.name
		wg.Add(1)
		i, ch := i, ch
		utils.GoSafe(func() {
			defer wg.Done()
			if err := ch.send(ctx); err != nil {
				d.logger.Error("Notification channel failed",
					logger.StringField("channel", ch.name), logger.ErrorField(err))
				outcomes[i] = ChannelOutcome{Channel: ch.name, OK: false, Error: err.Error()}
				return
			}
			outcomes[i] = ChannelOutcome{Channel: ch.name, OK: true}
		})
	}
	wg.Wait()

	return outcomes
}

func (d *notificationDispatcher) sendEmail(trigger entity.AlertTrigger) error {
	cfg := d.cfg.Email
	subject := fmt.Sprintf("FII Alert: %s", trigger.Alert.Ticker)

	var body strings.Builder
	body.WriteString(fmt.Sprintf("From: %s\r\n", cfg.From))
	body.WriteString(fmt.Sprintf("To: %s\r\n", cfg.To))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n\r\n", subject))
	body.WriteString(trigger.Message + "\r\n\r\n")
	body.WriteString(fmt.Sprintf("Fund: %s\r\n", trigger.Alert.Ticker))
	body.WriteString(fmt.Sprintf("Type: %s\r\n", trigger.Alert.Type))
	body.WriteString(fmt.Sprintf("Current Value: %.2f\r\n", trigger.CurrentValue))
	body.WriteString(fmt.Sprintf("Condition: %s %.2f\r\n", trigger.Alert.Condition, trigger.Alert.Value))
	body.WriteString(fmt.Sprintf("Triggered At: %s\r\n", trigger.TriggeredAt.Format(time.RFC3339)))

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, cfg.From, []string{cfg.To}, []byte(body.String()))
}

func (d *notificationDispatcher) sendWebhook(ctx context.Context, trigger entity.AlertTrigger) error {
	payload, err := json.Marshal(trigger)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
