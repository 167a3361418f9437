package bot

import (
	"regexp"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v3"

	"github.com/mkrupp/renewbot/internal/domain"
)

func TestSessionStore(t *testing.T) {
	t.Parallel()

	sessions := newSessionStore()

	if got := sessions.get(1); got != stepNone {
		t.Errorf("get() on fresh store = %q, want none", got)
	}

	sessions.set(1, stepRenewUsername)

	if got := sessions.get(1); got != stepRenewUsername {
		t.Errorf("get() = %q, want %q", got, stepRenewUsername)
	}

	// Other chats are unaffected.
	if got := sessions.get(2); got != stepNone {
		t.Errorf("get() for other chat = %q, want none", got)
	}

	sessions.clear(1)

	if got := sessions.get(1); got != stepNone {
		t.Errorf("get() after clear = %q, want none", got)
	}
}

func TestParseIDAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantID     int64
		wantAmount int64
		wantOK     bool
	}{
		{"valid", "12345678 20", 12345678, 20, true},
		{"negative amount", "12345678 -3", 12345678, -3, true},
		{"extra whitespace", "  42   7 ", 42, 7, true},
		{"one token", "12345678", 0, 0, false},
		{"three tokens", "1 2 3", 0, 0, false},
		{"non-numeric id", "abc 7", 0, 0, false},
		{"non-numeric amount", "42 seven", 0, 0, false},
		{"empty", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			telegramID, amount, ok := parseIDAmount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("parseIDAmount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if telegramID != tt.wantID || amount != tt.wantAmount {
				t.Errorf("parseIDAmount(%q) = (%d, %d), want (%d, %d)",
					tt.input, telegramID, amount, tt.wantID, tt.wantAmount)
			}
		})
	}
}

func TestRenewalReport(t *testing.T) {
	t.Parallel()

	actor := &tele.User{ID: 42, FirstName: "Alice", LastName: "A"}

	t.Run("self renewal", func(t *testing.T) {
		t.Parallel()

		report := renewalReport(actor, 0, "alice", domain.RenewalOutcome{OK: true, Message: "done"})

		if !strings.Contains(report, "کاربر تلگرام: 42 (Alice A)") {
			t.Errorf("report missing actor line:\n%s", report)
		}
		if strings.Contains(report, "برای مشتری") {
			t.Errorf("self report must not carry a customer line:\n%s", report)
		}
		if !strings.Contains(report, "نتیجه: موفق") {
			t.Errorf("report missing success marker:\n%s", report)
		}
	})

	t.Run("renewal on behalf", func(t *testing.T) {
		t.Parallel()

		report := renewalReport(actor, 7, "bob", domain.RenewalOutcome{Message: "account does not exist"})

		if !strings.Contains(report, "ادمین: 42 (Alice A)") {
			t.Errorf("report missing admin line:\n%s", report)
		}
		if !strings.Contains(report, "برای مشتری: 7") {
			t.Errorf("report missing customer line:\n%s", report)
		}
		if !strings.Contains(report, "نتیجه: ناموفق") {
			t.Errorf("report missing failure marker:\n%s", report)
		}
		if !strings.Contains(report, "پیام: account does not exist") {
			t.Errorf("report missing outcome message:\n%s", report)
		}
	})
}

func TestJalaliNowFormat(t *testing.T) {
	t.Parallel()

	stamp := jalaliNow()

	matched, err := regexp.MatchString(`^\d{4}/\d{2}/\d{2} - \d{2}:\d{2}:\d{2}$`, stamp)
	if err != nil {
		t.Fatalf("regexp error: %v", err)
	}
	if !matched {
		t.Errorf("jalaliNow() = %q, want yyyy/MM/dd - HH:mm:ss", stamp)
	}
}

func TestFullName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *tele.User
		want string
	}{
		{"first and last", &tele.User{FirstName: "Alice", LastName: "A"}, "Alice A"},
		{"first only", &tele.User{FirstName: "Alice"}, "Alice"},
		{"empty", &tele.User{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fullName(tt.user); got != tt.want {
				t.Errorf("fullName() = %q, want %q", got, tt.want)
			}
		})
	}
}
