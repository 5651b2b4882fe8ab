package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/session"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// fakeContext records what a handler sends. Only the methods the handlers
// call are implemented; anything else panics on the nil embedded Context.
type fakeContext struct {
	telebot.Context

	sender *telebot.User
	chat   *telebot.Chat
	msg    *telebot.Message
	args   []string
	text   string
	data   string

	sent      []string
	markups   []*telebot.ReplyMarkup
	edited    []string
	responses []*telebot.CallbackResponse
	responded int
}

func (c *fakeContext) Sender() *telebot.User { return c.sender }
func (c *fakeContext) Chat() *telebot.Chat { return c.chat }
func (c *fakeContext) Message() *telebot.Message { return c.msg }
func (c *fakeContext) Args() []string { return c.args }
func (c *fakeContext) Text() string { return c.text }
func (c *fakeContext) Data() string { return c.data }

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	for _, o := range opts {
		if m, ok := o.(*telebot.ReplyMarkup); ok {
			c.markups = append(c.markups, m)
		}
	}
	return nil
}

func (c *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	c.edited = append(c.edited, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responded++
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return c.sent[len(c.sent)-1]
}

type stubAdmins struct {
	admins map[int64]bool
	err    error
}

func (s stubAdmins) IsChatAdmin(_, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.admins[userID], nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

const testChatID int64 = -1001

type handlerFixture struct {
	h        *BirthdayHandlers
	sessions *session.MemoryStore
	service  *app.BirthdayService
}

func newFixture(t *testing.T, admins AdminChecker) *handlerFixture {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	service := app.NewBirthdayService(database.NewBirthdayRepository(db), testLogger()).
		WithClock(func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local) })
	sessions := session.NewMemoryStore(time.Minute)
	if admins == nil {
		admins = stubAdmins{err: errors.New("not configured")}
	}
	return &handlerFixture{
		h:        NewBirthdayHandlers(context.Background(), service, sessions, admins, 7, testLogger()),
		sessions: sessions,
		service:  service,
	}
}

func userCtx(userID int64, username string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID, Username: username, FirstName: "First"},
		chat:   &telebot.Chat{ID: testChatID, Type: telebot.ChatSuperGroup},
		msg:    &telebot.Message{},
	}
}
