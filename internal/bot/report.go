package bot

import (
	"context"
	"fmt"
	"time"

	ptime "github.com/yaacov/go-persian-calendar"
	tele "gopkg.in/telebot.v3"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
)

// jalaliNow returns the current Tehran time as a Jalali calendar stamp, the
// format the admin audience expects on reports.
func jalaliNow() string {
	return ptime.New(time.Now().In(ptime.Iran())).Format("yyyy/MM/dd - HH:mm:ss")
}

// renewalReport renders the admin notification for one renewal attempt.
// targetID is zero for self-service renewals.
func renewalReport(actor *tele.User, targetID int64, username string, outcome domain.RenewalOutcome) string {
	result := "ناموفق"
	if outcome.OK {
		result = "موفق"
	}

	report := fmt.Sprintf("🧾 گزارش تمدید (%s)\n", jalaliNow())

	if targetID != 0 {
		report += fmt.Sprintf("ادمین: %d (%s)\n", actor.ID, fullName(actor))
		report += fmt.Sprintf("برای مشتری: %d\n", targetID)
	} else {
		report += fmt.Sprintf("کاربر تلگرام: %d (%s)\n", actor.ID, fullName(actor))
	}

	report += fmt.Sprintf("نام کاربری: %s\nنتیجه: %s\nپیام: %s", username, result, outcome.Message)

	return report
}

// reportRenewal audit-logs the attempt and fans the report out to every
// admin. Neither failure blocks the chat reply that already went out.
func (b *Bot) reportRenewal(ctx context.Context, actor *tele.User, targetID int64, username string, outcome domain.RenewalOutcome) {
	entry := domain.AuditEntry{
		ActorID:        actor.ID,
		ActorUsername:  actor.Username,
		TargetUsername: username,
		Success:        outcome.OK,
		Message:        outcome.Message,
	}

	if err := b.audit.Append(ctx, entry); err != nil {
		b.log.ErrorContext(ctx, "audit append failed", "error", err)
	}

	b.notifyAdmins(ctx, renewalReport(actor, targetID, username, outcome))
}

func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	targets, err := b.roles.NotifyTargets(ctx)
	if err != nil {
		b.log.ErrorContext(ctx, "resolve notify targets failed", "error", err)

		return
	}

	for _, telegramID := range targets {
		if _, err := b.tb.Send(&tele.User{ID: telegramID}, text); err != nil {
			b.log.WarnContext(ctx, "admin notify failed",
				logging.Group("notify", "telegram_id", telegramID, "error", err),
			)
		}
	}
}
