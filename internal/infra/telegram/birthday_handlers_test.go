package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"birthday_reminder_bot/internal/infra/session"

	"gopkg.in/telebot.v3"
)

func TestSetBirthday_KeyboardFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()

	c := userCtx(1, "alice")
	if err := f.h.onSetBirthday(c); err != nil {
		t.Fatalf("onSetBirthday: %v", err)
	}
	if c.lastSent(t) != msgChooseMonth || len(c.markups) != 1 {
		t.Fatalf("sent %q with %d keyboards", c.lastSent(t), len(c.markups))
	}

	pick := userCtx(1, "alice")
	pick.data = "6"
	if err := f.h.onMonthPicked(session.FlowSetBirthday)(pick); err != nil {
		t.Fatalf("onMonthPicked: %v", err)
	}
	if pick.responded != 1 || len(pick.edited) != 1 || !strings.Contains(pick.edited[0], "Июнь") {
		t.Fatalf("month pick: responded=%d edited=%v", pick.responded, pick.edited)
	}
	state, err := f.sessions.Get(ctx, testChatID, 1)
	if err != nil || state.Month != 6 {
		t.Fatalf("session after month pick = %+v, %v", state, err)
	}

	notNumber := userCtx(1, "alice")
	notNumber.text = "fifteenth"
	_ = f.h.onText(notNumber)
	if notNumber.lastSent(t) != msgEnterNumber {
		t.Errorf("non-numeric day reply = %q", notNumber.lastSent(t))
	}

	tooLarge := userCtx(1, "alice")
	tooLarge.text = "31"
	_ = f.h.onText(tooLarge)
	if got := tooLarge.lastSent(t); got != "❌ День должен быть от 1 до 30 для выбранного месяца" {
		t.Errorf("invalid day reply = %q", got)
	}
	if _, err := f.sessions.Get(ctx, testChatID, 1); err != nil {
		t.Errorf("conversation should stay open after a validation error: %v", err)
	}

	ok := userCtx(1, "alice")
	ok.text = " 15 "
	_ = f.h.onText(ok)
	if got := ok.lastSent(t); got != "✅ День рождения зарегистрирован: 15.06" {
		t.Errorf("save reply = %q", got)
	}
	if _, err := f.sessions.Get(ctx, testChatID, 1); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("conversation should be closed, got %v", err)
	}

	my := userCtx(1, "alice")
	_ = f.h.onMyBirthday(my)
	if got := my.lastSent(t); got != "🎂 Ваш день рождения: 15.06" {
		t.Errorf("/mybirthday = %q", got)
	}
}

func TestSetBirthday_InlineDate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	tests := []struct {
		name    string
		handler func(telebot.Context) error
		args    []string
		want    string
	}{
		{"register", f.h.onSetBirthday, []string{"25.12"}, "✅ День рождения зарегистрирован: 25.12"},
		{"update", f.h.onUpdateBirthday, []string{"1.1"}, "✅ День рождения обновлен: 01.01"},
		{"bad day", f.h.onSetBirthday, []string{"32.01"}, "❌ День должен быть от 1 до 31 для выбранного месяца"},
		{"bad month", f.h.onSetBirthday, []string{"01.13"}, "❌ Месяц должен быть от 1 до 12"},
		{"bad format", f.h.onSetBirthday, []string{"tomorrow"}, msgBadDateFormat},
	}
	for _, tt := range tests {
		c := userCtx(2, "bob")
		c.args = tt.args
		if err := tt.handler(c); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got := c.lastSent(t); got != tt.want {
			t.Errorf("%s: reply = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUpdateBirthday_UsesUpdateKeyboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	c := userCtx(3, "")
	_ = f.h.onUpdateBirthday(c)

	if c.lastSent(t) != msgChooseNewMonth {
		t.Errorf("reply = %q", c.lastSent(t))
	}
	state, err := f.sessions.Get(context.Background(), testChatID, 3)
	if err != nil || state.Flow != session.FlowUpdateBirthday {
		t.Errorf("session = %+v, %v", state, err)
	}
}

func TestMonthPicked_InvalidData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	for _, data := range []string{"13", "0", "june"} {
		c := userCtx(1, "alice")
		c.data = data
		_ = f.h.onMonthPicked(session.FlowSetBirthday)(c)
		if len(c.edited) != 0 || len(c.responses) != 1 || c.responses[0].Text != msgUnknownAction {
			t.Errorf("data %q: edited=%v responses=%v", data, c.edited, c.responses)
		}
	}
}

func TestText_WithoutConversationIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	c := userCtx(1, "alice")
	c.text = "12"
	if err := f.h.onText(c); err != nil {
		t.Fatalf("onText: %v", err)
	}
	if len(c.sent) != 0 {
		t.Errorf("ordinary chat got a reply: %v", c.sent)
	}
}

func TestDeleteBirthday(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	missing := userCtx(4, "dan")
	_ = f.h.onDeleteBirthday(missing)
	if missing.lastSent(t) != msgNotFound {
		t.Errorf("delete without record = %q", missing.lastSent(t))
	}

	set := userCtx(4, "dan")
	set.args = []string{"05.05"}
	_ = f.h.onSetBirthday(set)

	del := userCtx(4, "dan")
	_ = f.h.onDeleteBirthday(del)
	if del.lastSent(t) != msgDeleted {
		t.Errorf("delete = %q", del.lastSent(t))
	}

	my := userCtx(4, "dan")
	_ = f.h.onMyBirthday(my)
	if my.lastSent(t) != msgNotRegistered {
		t.Errorf("/mybirthday after delete = %q", my.lastSent(t))
	}
}

func TestNextBirthdays(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	for _, u := range []struct {
		id   int64
		name string
		date string
	}{
		{1, "alice", "12.06"},
		{2, "bob", "10.06"},
		{3, "carl", "30.06"},
	} {
		c := userCtx(u.id, u.name)
		c.args = []string{u.date}
		_ = f.h.onSetBirthday(c)
	}

	c := userCtx(9, "viewer")
	_ = f.h.onNextBirthdays(c)
	want := "🎂 Ближайшие дни рождения (на неделю):\n\n" +
		"🎉 bob - сегодня! (10.06)\n" +
		"📅 alice - 12.06 (через 2 дн.)\n"
	if got := c.lastSent(t); got != want {
		t.Errorf("/nextbirthdays =\n%s\nwant\n%s", got, want)
	}
}

func TestListBirthdays_AdminOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubAdmins{admins: map[int64]bool{100: true}})
	for _, u := range []struct {
		id   int64
		name string
		date string
	}{
		{1, "zoe", "01.12"},
		{2, "amy", "15.03"},
		{3, "max", "02.03"},
	} {
		c := userCtx(u.id, u.name)
		c.args = []string{u.date}
		_ = f.h.onSetBirthday(c)
	}

	member := userCtx(1, "zoe")
	_ = f.h.onListBirthdays(member)
	if member.lastSent(t) != msgAdminsOnly {
		t.Errorf("non-admin got %q", member.lastSent(t))
	}

	admin := userCtx(100, "admin")
	_ = f.h.onListBirthdays(admin)
	want := "📋 Дни рождения в этом чате:\n\n• max - 02.03\n• amy - 15.03\n• zoe - 01.12\n"
	if got := admin.lastSent(t); got != want {
		t.Errorf("/listbirthdays =\n%s\nwant\n%s", got, want)
	}
}

func TestListBirthdays_AdminCheckFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, stubAdmins{err: errors.New("chat not found")})
	c := userCtx(1, "alice")
	_ = f.h.onListBirthdays(c)
	if c.lastSent(t) != msgAdminCheckError {
		t.Errorf("reply = %q", c.lastSent(t))
	}
}

func TestUserJoined(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	c := userCtx(50, "newbie")
	c.msg = &telebot.Message{UserJoined: &telebot.User{ID: 50, FirstName: "Nina"}}
	if err := f.h.onUserJoined(c); err != nil {
		t.Fatalf("onUserJoined: %v", err)
	}
	if !strings.Contains(c.lastSent(t), "Nina") || len(c.markups) != 1 {
		t.Errorf("welcome = %q, keyboards = %d", c.lastSent(t), len(c.markups))
	}
	if _, err := f.sessions.Get(context.Background(), testChatID, 50); err != nil {
		t.Errorf("new member should have an open conversation: %v", err)
	}

	skip := userCtx(50, "newbie")
	_ = f.h.onSkip(skip)
	if len(skip.edited) != 1 || skip.edited[0] != msgSkipped {
		t.Errorf("skip edited = %v", skip.edited)
	}
	if _, err := f.sessions.Get(context.Background(), testChatID, 50); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("skip should close the conversation, got %v", err)
	}

	botJoin := userCtx(51, "")
	botJoin.msg = &telebot.Message{UserJoined: &telebot.User{ID: 51, IsBot: true}}
	_ = f.h.onUserJoined(botJoin)
	if len(botJoin.sent) != 0 {
		t.Errorf("bots should not be welcomed: %v", botJoin.sent)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_ = f.h.onSetBirthday(userCtx(1, "alice"))

	c := userCtx(1, "alice")
	_ = f.h.onCancel(c)
	if c.lastSent(t) != msgCancelled {
		t.Errorf("reply = %q", c.lastSent(t))
	}
	if _, err := f.sessions.Get(context.Background(), testChatID, 1); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("session after cancel: %v", err)
	}
}
