package bot

import tele "gopkg.in/telebot.v3"

// Button labels. Matching incoming text against these is how reply-keyboard
// navigation works, so they must stay identical between keyboard and router.
const (
	btnRenew     = "🔁 تمدید کاربر"
	btnMyCredit  = "💳 اعتبار من"
	btnAdmin     = "🛠 پنل ادمین"
	btnHelp      = "ℹ️ راهنما"
	btnBack      = "⬅️ بازگشت"
	btnCancel    = "⬅️ انصراف"
	btnBackAdmin = "⬅️ بازگشت به پنل ادمین"

	btnAddCustomer   = "➕ افزودن مشتری"
	btnSetCredits    = "📌 تنظیم اعتبار"
	btnAddCredits    = "➕ شارژ اعتبار"
	btnRenewFor      = "🔁 تمدید برای مشتری"
	btnGetCredits    = "🔎 اعتبار مشتری"
	btnManageAdmins  = "👑 مدیریت ادمین‌ها"
	btnListAdmins    = "👥 لیست ادمین‌ها"
	btnListCustomers = "👥 لیست مشتری‌ها"

	btnAddAdmin    = "➕ افزودن ادمین"
	btnRemoveAdmin = "➖ حذف ادمین"
)

func mainKeyboard(isAdmin bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	rows := []tele.Row{
		menu.Row(menu.Text(btnRenew)),
		menu.Row(menu.Text(btnMyCredit)),
	}
	if isAdmin {
		rows = append(rows, menu.Row(menu.Text(btnAdmin)))
	}

	rows = append(rows, menu.Row(menu.Text(btnHelp)))
	menu.Reply(rows...)

	return menu
}

func adminKeyboard(isSuper bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	if isSuper {
		menu.Reply(
			menu.Row(menu.Text(btnAddCustomer), menu.Text(btnSetCredits)),
			menu.Row(menu.Text(btnAddCredits), menu.Text(btnRenewFor)),
			menu.Row(menu.Text(btnGetCredits), menu.Text(btnManageAdmins)),
			menu.Row(menu.Text(btnListAdmins)),
			menu.Row(menu.Text(btnListCustomers)),
			menu.Row(menu.Text(btnBack)),
		)

		return menu
	}

	// Normal admins only see the renewal-related operations.
	menu.Reply(
		menu.Row(menu.Text(btnRenewFor), menu.Text(btnGetCredits)),
		menu.Row(menu.Text(btnBack)),
	)

	return menu
}

func adminsManageKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnAddAdmin), menu.Text(btnRemoveAdmin)),
		menu.Row(menu.Text(btnBackAdmin)),
	)

	return menu
}

func cancelKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnCancel)))

	return menu
}
