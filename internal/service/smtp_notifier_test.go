package service

import (
	"regexp"
	"strings"
	"testing"
)

func TestSMTPGatewayBuildMessage(t *testing.T) {
	g := NewSMTPNotificationGateway("smtp.example.com", "587", "u", "p", "noreply@accounts.example.com")
	n := Notification{
		To:       "someone@example.com",
		Subject:  "[NO REPLY] Verify Your Email",
		HTMLBody: "<p>hello</p>",
	}

	msg, err := g.buildMessage(n)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	raw := string(msg)

	for _, want := range []string{
		"From: noreply@accounts.example.com\r\n",
		"To: someone@example.com\r\n",
		"Subject: [NO REPLY] Verify Your Email\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n",
		"\r\n\r\n<p>hello</p>\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}

	idRe := regexp.MustCompile(`Message-ID: <([A-Za-z0-9_-]+)@accounts\.example\.com>\r\n`)
	first := idRe.FindStringSubmatch(raw)
	if first == nil {
		t.Fatalf("message missing Message-ID header:\n%s", raw)
	}

	msg2, err := g.buildMessage(n)
	if err != nil {
		t.Fatalf("build second message: %v", err)
	}
	second := idRe.FindStringSubmatch(string(msg2))
	if second == nil || second[1] == first[1] {
		t.Fatal("Message-ID should be unique per message")
	}
}

func TestSMTPGatewayDomainFallsBackToHost(t *testing.T) {
	g := NewSMTPNotificationGateway("relay.internal", "25", "", "", "bare-from-no-at")
	msg, err := g.buildMessage(Notification{To: "x@example.com", Subject: "s", HTMLBody: "b"})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if !strings.Contains(string(msg), "@relay.internal>\r\n") {
		t.Fatalf("expected host-derived Message-ID domain:\n%s", msg)
	}
}
