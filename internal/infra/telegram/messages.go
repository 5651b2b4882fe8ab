package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/domain/birthday"

	"gopkg.in/telebot.v3"
)

// Callback button uniques.
const (
	uniqueSetMonth    = "set_month"
	uniqueUpdateMonth = "upd_month"
	uniqueSkip        = "skip_birthday"
)

var monthNames = [...]string{
	1: "Январь", 2: "Февраль", 3: "Март", 4: "Апрель",
	5: "Май", 6: "Июнь", 7: "Июль", 8: "Август",
	9: "Сентябрь", 10: "Октябрь", 11: "Ноябрь", 12: "Декабрь",
}

const (
	msgStart = "🎂 Добро пожаловать в Birthday Reminder Bot!\n\n" +
		"Я помогу вам организовать поздравления дней рождения в вашем чате.\n\n" +
		"Используйте /help для списка команд."

	msgChooseMonth    = "📅 Выберите месяц вашего дня рождения:"
	msgChooseNewMonth = "📅 Выберите новый месяц вашего дня рождения:"
	msgEnterNumber    = "❌ Пожалуйста, введите число."
	msgCancelled      = "❌ Операция отменена."
	msgNotRegistered  = "❌ Вы еще не зарегистрировали свой день рождения в этом чате.\n" +
		"Используйте /setbirthday для регистрации."
	msgDeleted         = "✅ Ваши данные удалены из этого чата"
	msgNotFound        = "❌ Данные не найдены"
	msgNoUpcoming      = "📭 Нет предстоящих дней рождения на %s."
	msgNoBirthdays     = "📭 В этом чате еще никто не зарегистрировал свой день рождения."
	msgAdminsOnly      = "❌ Эта команда доступна только администраторам чата."
	msgAdminCheckError = "❌ Ошибка при проверке прав доступа."
	msgInternalError   = "❌ Произошла ошибка. Пожалуйста, попробуйте позже."
	msgBadDateFormat   = "❌ Неверный формат даты. Используйте ДД.ММ, например: /setbirthday 25.12"
	msgSkipped         = "Хорошо! Вы можете зарегистрировать день рождения позже командой /setbirthday."
	msgUnknownAction   = "Неизвестное действие."
)

func helpText(upcomingDays int) string {
	var b strings.Builder
	b.WriteString("📋 Доступные команды:\n\n")
	b.WriteString("/setbirthday - Зарегистрировать свой день рождения\n")
	b.WriteString("/mybirthday - Показать свой день рождения в этом чате\n")
	b.WriteString("/updatebirthday - Обновить день рождения\n")
	b.WriteString("/deletebirthday - Удалить день рождения\n")
	fmt.Fprintf(&b, "/nextbirthdays - Ближайшие дни рождения (на %s)\n", periodText(upcomingDays))
	b.WriteString("/listbirthdays - Все дни рождения в чате (только для администраторов)\n")
	b.WriteString("/cancel - Отменить ввод даты\n")
	b.WriteString("/help - Эта справка\n\n")
	b.WriteString("💡 Формат даты: ДД.ММ (например, 25.12)")
	return b.String()
}

// periodText renders the look-ahead window; seven days reads as "неделю".
func periodText(days int) string {
	if days == 7 {
		return "неделю"
	}
	return fmt.Sprintf("%d %s", days, daysWord(days))
}

// daysWord picks the Russian plural form of "день" for n.
func daysWord(n int) string {
	switch n10, n100 := n%10, n%100; {
	case n10 == 1 && n100 != 11:
		return "день"
	case n10 >= 2 && n10 <= 4 && (n100 < 12 || n100 > 14):
		return "дня"
	default:
		return "дней"
	}
}

func welcomeText(name string, registered int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👋 Добро пожаловать, %s!\n\n", name)
	if registered > 0 {
		fmt.Fprintf(&b, "В этом чате уже знают дни рождения участников: %d.\n", registered)
	}
	b.WriteString("Хотите, чтобы чат поздравил вас с днем рождения? Выберите месяц:")
	return b.String()
}

func chooseDayText(month int) string {
	return fmt.Sprintf("📅 Выберите день (1-%d) для %s:\n\nВведите число:", birthday.DaysInMonth(month), monthNames[month])
}

func savedText(rec *birthday.Record, created bool) string {
	if created {
		return "✅ День рождения зарегистрирован: " + rec.Date()
	}
	return "✅ День рождения обновлен: " + rec.Date()
}

// validationText translates a date validation error for the user.
func validationText(err error) string {
	var verr *birthday.ValidationError
	if !errors.As(err, &verr) {
		return msgInternalError
	}
	if verr.Field == "month" {
		return "❌ Месяц должен быть от 1 до 12"
	}
	return fmt.Sprintf("❌ День должен быть от 1 до %d для выбранного месяца", verr.Max)
}

func formatUpcoming(upcoming []app.Upcoming, days int) string {
	if len(upcoming) == 0 {
		return fmt.Sprintf(msgNoUpcoming, periodText(days))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎂 Ближайшие дни рождения (на %s):\n\n", periodText(days))
	for _, u := range upcoming {
		date := birthday.FormatDate(u.Day, u.Month)
		if u.DaysUntil == 0 {
			fmt.Fprintf(&b, "🎉 %s - сегодня! (%s)\n", u.Name, date)
		} else {
			fmt.Fprintf(&b, "📅 %s - %s (через %d дн.)\n", u.Name, date, u.DaysUntil)
		}
	}
	return b.String()
}

// formatList renders the chat's birthdays in calendar order.
func formatList(entries []app.Entry) string {
	if len(entries) == 0 {
		return msgNoBirthdays
	}
	app.SortByCalendar(entries)
	var b strings.Builder
	b.WriteString("📋 Дни рождения в этом чате:\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s - %s\n", e.Name, birthday.FormatDate(e.Day, e.Month))
	}
	return b.String()
}

// monthKeyboard lays the twelve months out three per row; withSkip adds the
// "not now" button shown to new members.
func monthKeyboard(unique string, withSkip bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	var rows []telebot.Row
	var row []telebot.Btn
	for m := 1; m <= 12; m++ {
		row = append(row, menu.Data(monthNames[m], unique, strconv.Itoa(m)))
		if len(row) == 3 {
			rows = append(rows, menu.Row(row...))
			row = nil
		}
	}
	if withSkip {
		rows = append(rows, menu.Row(menu.Data("Пропустить", uniqueSkip)))
	}
	menu.Inline(rows...)
	return menu
}

// displayName picks the name stored for greetings: the @username when set,
// otherwise the user's full name.
func displayName(u *telebot.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
