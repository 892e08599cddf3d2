// ABOUTME: Tests for notification rendering and dispatch
// ABOUTME: Covers template output, HTML conversion and best-effort delivery

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderMemberAdded(t *testing.T) {
	html, err := RenderMemberAdded(MemberAdded{
		Workspace: "Infra Squad",
		Inviter:   "alice",
		Role:      "manager",
	})
	if err != nil {
		t.Fatalf("RenderMemberAdded() error = %v", err)
	}

	for _, want := range []string{"Infra Squad", "alice", "<strong>manager</strong>", "<h1>"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q:\n%s", want, html)
		}
	}
}

// captureMailer records the last message it was asked to send.
type captureMailer struct {
	last Message
	err  error
}

func (m *captureMailer) Send(ctx context.Context, msg Message) error {
	m.last = msg
	return m.err
}

func TestNotifier_MemberAdded(t *testing.T) {
	mailer := &captureMailer{}
	notifier := NewNotifier(mailer)

	notifier.MemberAdded(context.Background(), "bob@example.com", MemberAdded{
		Workspace: "Infra Squad",
		Inviter:   "alice",
		Role:      "viewer",
	})

	if mailer.last.To != "bob@example.com" {
		t.Errorf("To = %q, want bob@example.com", mailer.last.To)
	}
	if !strings.Contains(mailer.last.Subject, "Infra Squad") {
		t.Errorf("Subject = %q, want workspace name", mailer.last.Subject)
	}
	if mailer.last.HTML == "" {
		t.Error("HTML body is empty")
	}
}

func TestNotifier_MemberAdded_DeliveryFailureSwallowed(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	notifier := NewNotifier(mailer)

	// Must not panic or propagate
	notifier.MemberAdded(context.Background(), "bob@example.com", MemberAdded{
		Workspace: "Infra Squad", Inviter: "alice", Role: "viewer",
	})
}

func TestLogMailer_Send(t *testing.T) {
	if err := NewLogMailer().Send(context.Background(), Message{To: "x", Subject: "y"}); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}
