// ABOUTME: Member notification delivery with markdown-templated messages
// ABOUTME: Renders workspace events to HTML mail bodies via goldmark

package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/yuin/goldmark"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers rendered notifications. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes notifications to the structured log instead of delivering
// them. Used when notify is disabled and in tests.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: slog.Default().With("component", "notify")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("notification", "to", msg.To, "subject", msg.Subject)
	return nil
}

var memberAddedTemplate = template.Must(template.New("member-added").Parse(
	`# You were added to {{.Workspace}}

{{.Inviter}} added you to the **{{.Workspace}}** workspace with the **{{.Role}}** role.

Sign in to see the vaults and transactions shared with you.
`))

// MemberAdded holds the fields of a workspace membership notification.
type MemberAdded struct {
	Workspace string
	Inviter   string
	Role      string
}

// RenderMemberAdded renders the member-added notification body to HTML.
func RenderMemberAdded(event MemberAdded) (string, error) {
	var md bytes.Buffer
	if err := memberAddedTemplate.Execute(&md, event); err != nil {
		return "", fmt.Errorf("rendering notification template: %w", err)
	}

	var html bytes.Buffer
	if err := goldmark.Convert(md.Bytes(), &html); err != nil {
		return "", fmt.Errorf("converting notification to HTML: %w", err)
	}
	return html.String(), nil
}

// Notifier renders and dispatches workspace events to a mailer.
type Notifier struct {
	mailer Mailer
	logger *slog.Logger
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{
		mailer: mailer,
		logger: slog.Default().With("component", "notify"),
	}
}

// MemberAdded notifies a user that they were added to a workspace. Delivery
// failures are logged, never surfaced: notifications must not fail the
// membership change that triggered them.
func (n *Notifier) MemberAdded(ctx context.Context, to string, event MemberAdded) {
	html, err := RenderMemberAdded(event)
	if err != nil {
		n.logger.Error("rendering member-added notification", "error", err)
		return
	}

	msg := Message{
		To:      to,
		Subject: fmt.Sprintf("You were added to %s", event.Workspace),
		HTML:    html,
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Error("sending member-added notification", "to", to, "error", err)
	}
}
