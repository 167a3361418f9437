package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

func (b *Bot) onStart(c tele.Context) error {
	ctx := b.ctx(c)
	sender := c.Sender()

	b.sessions.clear(sender.ID)

	isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	return c.Reply("سلام! به ربات تمدید خوش آمدید.", mainKeyboard(isAdmin))
}

func (b *Bot) onWhoami(c tele.Context) error {
	ctx := b.ctx(c)
	sender := c.Sender()

	role := "کاربر"

	switch {
	case b.roles.IsSuperadmin(sender.ID):
		role = "سوپرادمین"
	default:
		isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
		if err != nil {
			return fmt.Errorf("role lookup: %w", err)
		}

		if isAdmin {
			role = "ادمین"
		}
	}

	return c.Reply(fmt.Sprintf("ID: %d\nنقش: %s", sender.ID, role))
}

// onText routes every plain message: first the global cancel button, then
// whatever flow step the chat is in, then the keyboard buttons.
func (b *Bot) onText(c tele.Context) error {
	ctx := b.ctx(c)
	sender := c.Sender()
	text := strings.TrimSpace(c.Text())

	if text == btnCancel {
		return b.cancelFlow(ctx, c)
	}

	if current := b.sessions.get(sender.ID); current != stepNone {
		return b.dispatchStep(ctx, c, current, text)
	}

	switch text {
	case btnRenew:
		return b.startRenew(ctx, c)
	case btnMyCredit:
		return b.showMyCredit(ctx, c)
	case btnHelp:
		return b.showHelp(c)
	case btnAdmin:
		return b.openAdminPanel(ctx, c)
	case btnBack:
		return b.backToMain(ctx, c)
	case btnBackAdmin:
		return b.openAdminPanel(ctx, c)
	case btnAddCustomer:
		return b.startSuperFlow(c, stepAddCustomer, "آیدی عددی تلگرام مشتری را وارد کن:")
	case btnSetCredits:
		return b.startSuperFlow(c, stepSetCredits, "فرمت: <telegram_id> <n>\nمثال: 12345678 20")
	case btnAddCredits:
		return b.startSuperFlow(c, stepAddCredits, "فرمت: <telegram_id> <n>\nمثال: 12345678 10")
	case btnRenewFor:
		return b.startAdminFlow(ctx, c, stepRenewFor, "فرمت: <telegram_id> <username>\nمثال: 12345678 myuser")
	case btnGetCredits:
		return b.startAdminFlow(ctx, c, stepGetCredits, "آیدی عددی مشتری را بفرست:")
	case btnManageAdmins:
		return b.openAdminsManage(c)
	case btnAddAdmin:
		return b.startSuperFlow(c, stepAddAdmin, "آیدی عددی تلگرام ادمین جدید را بفرست:")
	case btnRemoveAdmin:
		return b.startSuperFlow(c, stepRemoveAdmin, "آیدی عددی تلگرام ادمینی که باید حذف شود را بفرست:")
	case btnListAdmins:
		return b.listAdmins(ctx, c)
	case btnListCustomers:
		return b.listCustomers(ctx, c)
	default:
		return b.backToMain(ctx, c)
	}
}

func (b *Bot) dispatchStep(ctx context.Context, c tele.Context, current step, text string) error {
	switch current {
	case stepRenewUsername:
		return b.finishRenew(ctx, c, text)
	case stepAddCustomer:
		return b.finishAddCustomer(ctx, c, text)
	case stepSetCredits:
		return b.finishSetCredits(ctx, c, text)
	case stepAddCredits:
		return b.finishAddCredits(ctx, c, text)
	case stepRenewFor:
		return b.finishRenewFor(ctx, c, text)
	case stepGetCredits:
		return b.finishGetCredits(ctx, c, text)
	case stepAddAdmin:
		return b.finishAddAdmin(ctx, c, text)
	case stepRemoveAdmin:
		return b.finishRemoveAdmin(ctx, c, text)
	default:
		b.sessions.clear(c.Sender().ID)

		return b.backToMain(ctx, c)
	}
}

func (b *Bot) cancelFlow(ctx context.Context, c tele.Context) error {
	sender := c.Sender()

	b.sessions.clear(sender.ID)

	isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	return c.Reply("لغو شد.", mainKeyboard(isAdmin))
}

func (b *Bot) backToMain(ctx context.Context, c tele.Context) error {
	sender := c.Sender()

	b.sessions.clear(sender.ID)

	isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	return c.Reply("منوی اصلی:", mainKeyboard(isAdmin))
}

// ── self-service renewal ──

func (b *Bot) startRenew(ctx context.Context, c tele.Context) error {
	sender := c.Sender()

	balance, err := b.credits.GetBalance(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("balance lookup: %w", err)
	}

	if balance <= 0 {
		return c.Reply("اعتباری برای شما باقی نمانده است")
	}

	b.sessions.set(sender.ID, stepRenewUsername)

	return c.Reply("نام کاربری را ارسال کن:", cancelKeyboard())
}

func (b *Bot) finishRenew(ctx context.Context, c tele.Context, username string) error {
	sender := c.Sender()

	if username == "" {
		return c.Reply("نام کاربری خالی است. دوباره بفرست:", cancelKeyboard())
	}

	b.sessions.clear(sender.ID)

	outcome := b.renew.Execute(ctx, sender.ID, sender.ID, username)

	isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	reply := "❌ " + outcome.Message
	if outcome.OK {
		reply = "✅ تمدید انجام شد. (۳۱ روزه + ریست حجم + اکتیو)"
	}

	if err := c.Reply(reply, mainKeyboard(isAdmin)); err != nil {
		return fmt.Errorf("reply: %w", err)
	}

	b.reportRenewal(ctx, sender, 0, username, outcome)

	return nil
}

// ── member info ──

func (b *Bot) showMyCredit(ctx context.Context, c tele.Context) error {
	balance, err := b.credits.GetBalance(ctx, c.Sender().ID)
	if err != nil {
		return fmt.Errorf("balance lookup: %w", err)
	}

	return c.Reply(fmt.Sprintf("اعتبار تمدید باقی‌مانده: %d", balance))
}

func (b *Bot) showHelp(c tele.Context) error {
	return c.Reply(
		"با دکمه‌ها کار کن:\n" +
			"🔁 «تمدید کاربر» → نام کاربری را می‌گیرد و تمدید ۳۱روزه انجام می‌دهد.\n" +
			"💳 «اعتبار من» → تعداد تمدیدهای باقی‌مانده را نشان می‌دهد.\n" +
			"🛠 «پنل ادمین» → فقط برای ادمین‌ها.",
	)
}

// ── admin panel ──

func (b *Bot) openAdminPanel(ctx context.Context, c tele.Context) error {
	sender := c.Sender()

	isAdmin, err := b.roles.IsAdmin(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	if !isAdmin {
		return c.Reply("دسترسی کافی نداری.", mainKeyboard(false))
	}

	b.sessions.clear(sender.ID)

	return c.Reply("پنل ادمین:", adminKeyboard(b.roles.IsSuperadmin(sender.ID)))
}

func (b *Bot) openAdminsManage(c tele.Context) error {
	if !b.roles.IsSuperadmin(c.Sender().ID) {
		return c.Reply("فقط سوپرادمین.")
	}

	return c.Reply("مدیریت ادمین‌ها:", adminsManageKeyboard())
}

func (b *Bot) startSuperFlow(c tele.Context, st step, prompt string) error {
	if !b.roles.IsSuperadmin(c.Sender().ID) {
		return c.Reply("فقط سوپرادمین.", adminKeyboard(false))
	}

	b.sessions.set(c.Sender().ID, st)

	return c.Reply(prompt, cancelKeyboard())
}

func (b *Bot) startAdminFlow(ctx context.Context, c tele.Context, st step, prompt string) error {
	isAdmin, err := b.roles.IsAdmin(ctx, c.Sender().ID)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}

	if !isAdmin {
		return c.Reply("دسترسی کافی نداری.")
	}

	b.sessions.set(c.Sender().ID, st)

	return c.Reply(prompt, cancelKeyboard())
}

// ── customer management flows ──

func (b *Bot) finishAddCustomer(ctx context.Context, c tele.Context, text string) error {
	telegramID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return c.Reply("یک آیدی عددی معتبر بفرست.", cancelKeyboard())
	}

	// GetBalance creates the holder record on first touch.
	if _, err := b.credits.GetBalance(ctx, telegramID); err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(fmt.Sprintf("مشتری %d اضافه شد.", telegramID), b.senderAdminKeyboard(c))
}

func (b *Bot) finishSetCredits(ctx context.Context, c tele.Context, text string) error {
	telegramID, amount, ok := parseIDAmount(text)
	if !ok {
		return c.Reply("فرمت درست نیست. دوباره بفرست: <telegram_id> <n>", cancelKeyboard())
	}

	if err := b.credits.SetBalance(ctx, telegramID, amount); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(
		fmt.Sprintf("اعتبار مشتری %d به %d تنظیم شد.", telegramID, amount),
		b.senderAdminKeyboard(c),
	)
}

func (b *Bot) finishAddCredits(ctx context.Context, c tele.Context, text string) error {
	telegramID, amount, ok := parseIDAmount(text)
	if !ok {
		return c.Reply("فرمت درست نیست. دوباره بفرست: <telegram_id> <n>", cancelKeyboard())
	}

	if err := b.credits.AddBalance(ctx, telegramID, amount); err != nil {
		return fmt.Errorf("add balance: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(
		fmt.Sprintf("%d واحد اعتبار به مشتری %d اضافه شد.", amount, telegramID),
		b.senderAdminKeyboard(c),
	)
}

func (b *Bot) finishRenewFor(ctx context.Context, c tele.Context, text string) error {
	sender := c.Sender()

	parts := strings.Fields(text)
	if len(parts) != 2 {
		return c.Reply("فرمت درست نیست. دوباره بفرست: <telegram_id> <username>", cancelKeyboard())
	}

	telegramID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return c.Reply("فرمت درست نیست. دوباره بفرست: <telegram_id> <username>", cancelKeyboard())
	}

	username := parts[1]

	b.sessions.clear(sender.ID)

	balance, err := b.credits.GetBalance(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("balance lookup: %w", err)
	}

	if balance <= 0 {
		return c.Reply("اعتبار مشتری صفر است.", b.senderAdminKeyboard(c))
	}

	outcome := b.renew.Execute(ctx, sender.ID, telegramID, username)

	reply := "❌ " + outcome.Message
	if outcome.OK {
		reply = fmt.Sprintf("✅ تمدید برای %d انجام شد.", telegramID)
	}

	if err := c.Reply(reply, b.senderAdminKeyboard(c)); err != nil {
		return fmt.Errorf("reply: %w", err)
	}

	b.reportRenewal(ctx, sender, telegramID, username, outcome)

	return nil
}

func (b *Bot) finishGetCredits(ctx context.Context, c tele.Context, text string) error {
	telegramID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return c.Reply("یک آیدی عددی معتبر بفرست.", cancelKeyboard())
	}

	balance, err := b.credits.GetBalance(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("balance lookup: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(
		fmt.Sprintf("اعتبار باقی‌ماندهٔ مشتری %d: %d", telegramID, balance),
		b.senderAdminKeyboard(c),
	)
}

// ── admin roster flows ──

func (b *Bot) finishAddAdmin(ctx context.Context, c tele.Context, text string) error {
	telegramID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return c.Reply("یک آیدی عددی معتبر بفرست.", cancelKeyboard())
	}

	if err := b.roles.Grant(ctx, telegramID); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(fmt.Sprintf("ادمین %d افزوده شد.", telegramID), adminsManageKeyboard())
}

func (b *Bot) finishRemoveAdmin(ctx context.Context, c tele.Context, text string) error {
	telegramID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return c.Reply("یک آیدی عددی معتبر بفرست.", cancelKeyboard())
	}

	if err := b.roles.Revoke(ctx, telegramID); err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}

	b.sessions.clear(c.Sender().ID)

	return c.Reply(fmt.Sprintf("ادمین %d حذف شد.", telegramID), adminsManageKeyboard())
}

// ── listings ──

func (b *Bot) listAdmins(ctx context.Context, c tele.Context) error {
	if !b.roles.IsSuperadmin(c.Sender().ID) {
		return c.Reply("فقط سوپرادمین.")
	}

	admins, err := b.roles.List(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	if len(admins) == 0 {
		return c.Reply("هیچ ادمینی در سیستم ثبت نشده است.")
	}

	lines := make([]string, 0, len(admins))
	for _, a := range admins {
		lines = append(lines, fmt.Sprintf("• %d  %s%s", a.TelegramID, handleTag(a.Username), nameSuffix(a.FullName)))
	}

	return c.Reply("لیست ادمین‌ها:\n" + strings.Join(lines, "\n"))
}

func (b *Bot) listCustomers(ctx context.Context, c tele.Context) error {
	if !b.roles.IsSuperadmin(c.Sender().ID) {
		return c.Reply("فقط سوپرادمین.")
	}

	customers, err := b.credits.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}

	if len(customers) == 0 {
		return c.Reply("هیچ مشتری‌ای در سیستم ثبت نشده است.")
	}

	lines := make([]string, 0, len(customers))
	for _, customer := range customers {
		lines = append(lines, fmt.Sprintf("• %d  %s%s - اعتبار: %d",
			customer.TelegramID,
			handleTag(customer.Username),
			nameSuffix(customer.FullName),
			customer.Credits,
		))
	}

	return c.Reply("لیست مشتری‌ها:\n" + strings.Join(lines, "\n"))
}

// senderAdminKeyboard returns the admin keyboard variant matching the
// sender's role, used after admin flows complete.
func (b *Bot) senderAdminKeyboard(c tele.Context) *tele.ReplyMarkup {
	return adminKeyboard(b.roles.IsSuperadmin(c.Sender().ID))
}

func parseIDAmount(text string) (telegramID, amount int64, ok bool) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return 0, 0, false
	}

	telegramID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	amount, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return telegramID, amount, true
}

func handleTag(username string) string {
	if username == "" {
		return "(بدون یوزرنیم)"
	}

	return "@" + username
}

func nameSuffix(fullName string) string {
	if fullName == "" {
		return ""
	}

	return " - " + fullName
}
