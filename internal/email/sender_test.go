package email

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDisabledSender_ReturnsReason(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendContributionReceipt(context.Background(), Receipt{})
	if err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("expected configured reason, got %v", err)
	}
	if err := NewDisabledSender("").SendContributionReceipt(context.Background(), Receipt{}); err == nil {
		t.Fatalf("expected default error")
	}
}

func TestReceiptBody_IncludesAmountAndHash(t *testing.T) {
	r := Receipt{
		CampaignTitle: "Solar Roofs",
		Amount:        decimal.RequireFromString("12.5"),
		TxHash:        "0xabc",
		At:            time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	body := receiptBody(r)
	for _, want := range []string{"12.5", `"Solar Roofs"`, "2024-03-01T10:00:00Z", "0xabc"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
	if !strings.Contains(receiptSubject(r), "Solar Roofs") {
		t.Fatalf("unexpected subject %q", receiptSubject(r))
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	msg := buildMessage("noreply@example.com", "Crowdfund", "user@example.com", "Hi", "body")
	if !strings.HasPrefix(msg, "From: Crowdfund <noreply@example.com>\r\n") {
		t.Fatalf("unexpected from header: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("expected body after blank line, got %q", msg)
	}
}

func TestNewSenders_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "a@b.c", "", false); err == nil {
		t.Fatalf("expected smtp host error")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "a@b.c", "", false)
	if err != nil || s.port != 587 {
		t.Fatalf("expected default port 587, got %+v err=%v", s, err)
	}
	if err := s.SendContributionReceipt(context.Background(), Receipt{ToEmail: " "}); err == nil {
		t.Fatalf("expected missing recipient error")
	}
	if _, err := NewSendGridSender("", "a@b.c", ""); err == nil {
		t.Fatalf("expected sendgrid key error")
	}
}

// fakeSMTP acepta una sola sesion y guarda el bloque DATA recibido.
func fakeSMTP(t *testing.T) (host string, port int, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 fake ESMTP")
		var body strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- body.String()
					reply("250 queued")
					continue
				}
				body.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"):
				reply("250-fake")
				reply("250 8BITMIME")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 ok")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 unsupported")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, out
}

func TestSMTPSender_DeliversReceipt(t *testing.T) {
	host, port, data := fakeSMTP(t)
	s, err := NewSMTPSender(host, port, "", "", "noreply@example.com", "Crowdfund", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.SendContributionReceipt(ctx, Receipt{
		ToEmail:       "backer@example.com",
		CampaignTitle: "Solar Roofs",
		Amount:        decimal.RequireFromString("40"),
		At:            time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-data:
		if !strings.Contains(got, "To: backer@example.com") || !strings.Contains(got, "Thanks for backing Solar Roofs") {
			t.Fatalf("unexpected message: %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("server never received DATA")
	}
}
