package security

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/resendlabs/resend-go"
	"github.com/segmentio/kafka-go"
)

// Notifier delivers alerts to an external channel.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// EmailNotifier mails HIGH and CRITICAL alerts to the security team.
type EmailNotifier struct {
	client *resend.Client
	from   string
	to     []string
}

func NewEmailNotifier(apiKey, from string, to []string) *EmailNotifier {
	return &EmailNotifier{client: resend.NewClient(apiKey), from: from, to: to}
}

func (n *EmailNotifier) Notify(_ context.Context, alert Alert) error {
	if alert.Level == AlertMedium || len(n.to) == 0 {
		return nil
	}
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: fmt.Sprintf("[%s] %s", alert.Level, alert.Title),
		Html:    renderAlertHTML(alert),
	}
	if _, err := n.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func renderAlertHTML(alert Alert) string {
	keys := make([]string, 0, len(alert.Details))
	for k := range alert.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(alert.Title))
	fmt.Fprintf(&b, "<p>Level: %s<br>Incident: %s<br>Time: %s</p><ul>",
		alert.Level, html.EscapeString(alert.IncidentID), alert.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	for _, k := range keys {
		fmt.Fprintf(&b, "<li><b>%s</b>: %s</li>", html.EscapeString(k), html.EscapeString(fmt.Sprint(alert.Details[k])))
	}
	b.WriteString("</ul>")
	return b.String()
}

// KafkaNotifier publishes every alert as JSON keyed by alert id.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}}
}

func (n *KafkaNotifier) Notify(ctx context.Context, alert Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(alert.ID), Value: value})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
