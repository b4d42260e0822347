package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sundayezeilo/engagebot/internal/chat"
)

/***************
 * Mocks
 ***************/

// mockAPI implements botAPI for testing.
type mockAPI struct {
	mu        sync.Mutex
	updates   chan tgbotapi.Update
	gotConfig tgbotapi.UpdateConfig
	stopped   bool
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	sendErr   error
}

func newMockAPI() *mockAPI {
	return &mockAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (m *mockAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotConfig = config
	return m.updates
}

func (m *mockAPI) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return tgbotapi.Message{}, m.sendErr
	}
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func commandMessage(text string, cmdLen int, from *tgbotapi.User) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 77,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: -1001},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/***************
 * Tests
 ***************/

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty token, got nil")
	}
}

func TestToUpdate(t *testing.T) {
	alice := &tgbotapi.User{ID: 101, UserName: "alice"}

	tests := []struct {
		name   string
		in     tgbotapi.Update
		want   *chat.Update
		wantOK bool
	}{
		{
			name: "command with argument",
			in:   tgbotapi.Update{UpdateID: 1, Message: commandMessage("/tweet https://x.com/a", 6, alice)},
			want: &chat.Update{
				ID: 1, Kind: chat.KindCommand, From: chat.User{ID: 101, Username: "alice"},
				ChatID: -1001, MessageID: 77, Command: "tweet", Args: []string{"https://x.com/a"},
			},
			wantOK: true,
		},
		{
			name: "command addressed to the bot with extra spaces",
			in:   tgbotapi.Update{UpdateID: 2, Message: commandMessage("/tweet@engagebot  a   b", 16, alice)},
			want: &chat.Update{
				ID: 2, Kind: chat.KindCommand, From: chat.User{ID: 101, Username: "alice"},
				ChatID: -1001, MessageID: 77, Command: "tweet", Args: []string{"a", "b"},
			},
			wantOK: true,
		},
		{
			name: "command addressed to the bot in another case",
			in:   tgbotapi.Update{UpdateID: 8, Message: commandMessage("/tweet@EngageBot https://x.com/a", 16, alice)},
			want: &chat.Update{
				ID: 8, Kind: chat.KindCommand, From: chat.User{ID: 101, Username: "alice"},
				ChatID: -1001, MessageID: 77, Command: "tweet", Args: []string{"https://x.com/a"},
			},
			wantOK: true,
		},
		{
			name: "command addressed to another bot",
			in:   tgbotapi.Update{UpdateID: 9, Message: commandMessage("/tweet@someotherbot https://x.com/a", 19, alice)},
		},
		{
			name: "command without arguments",
			in:   tgbotapi.Update{UpdateID: 3, Message: commandMessage("/liste", 6, &tgbotapi.User{ID: 5})},
			want: &chat.Update{
				ID: 3, Kind: chat.KindCommand, From: chat.User{ID: 5},
				ChatID: -1001, MessageID: 77, Command: "liste", Args: []string{},
			},
			wantOK: true,
		},
		{
			name: "callback query",
			in: tgbotapi.Update{UpdateID: 4, CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb-1",
				From:    alice,
				Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: -1001}},
				Data:    "engage:abc",
			}},
			want: &chat.Update{
				ID: 4, Kind: chat.KindCallback, From: chat.User{ID: 101, Username: "alice"},
				ChatID: -1001, CallbackID: "cb-1", Data: "engage:abc",
			},
			wantOK: true,
		},
		{
			name: "plain text message",
			in:   tgbotapi.Update{UpdateID: 5, Message: &tgbotapi.Message{From: alice, Chat: &tgbotapi.Chat{ID: 1}, Text: "hello"}},
		},
		{
			name: "command without sender",
			in:   tgbotapi.Update{UpdateID: 6, Message: commandMessage("/liste", 6, nil)},
		},
		{
			name: "unrelated update",
			in:   tgbotapi.Update{UpdateID: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toUpdate(tt.in, "engagebot")
			if ok != tt.wantOK {
				t.Fatalf("toUpdate() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("toUpdate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResponder_Reply(t *testing.T) {
	api := newMockAPI()
	r := &responder{api: api, chatID: -1001, messageID: 77}

	err := r.Reply(context.Background(), "Link saved: https://x.com/a",
		chat.Button{Text: "ack", Data: "engage:abc"})
	if err != nil {
		t.Fatalf("Reply() unexpected error: %v", err)
	}

	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want tgbotapi.MessageConfig", api.sent[0])
	}
	if msg.ChatID != -1001 || msg.ReplyToMessageID != 77 || msg.Text != "Link saved: https://x.com/a" {
		t.Errorf("message = %+v", msg)
	}

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("ReplyMarkup is %T, want tgbotapi.InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard = %+v, want one button", markup.InlineKeyboard)
	}
	button := markup.InlineKeyboard[0][0]
	if button.Text != "ack" || button.CallbackData == nil || *button.CallbackData != "engage:abc" {
		t.Errorf("button = %+v", button)
	}
}

func TestResponder_ReplyWithoutButtons(t *testing.T) {
	api := newMockAPI()
	r := &responder{api: api, chatID: 5, messageID: 1}

	if err := r.Reply(context.Background(), "hi"); err != nil {
		t.Fatalf("Reply() unexpected error: %v", err)
	}
	msg := api.sent[0].(tgbotapi.MessageConfig)
	if msg.ReplyMarkup != nil {
		t.Errorf("ReplyMarkup = %+v, want nil", msg.ReplyMarkup)
	}
}

func TestResponder_Errors(t *testing.T) {
	t.Run("reply without chat", func(t *testing.T) {
		r := &responder{api: newMockAPI()}
		if err := r.Reply(context.Background(), "hi"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("send failure", func(t *testing.T) {
		api := newMockAPI()
		api.sendErr = errors.New("network down")
		r := &responder{api: api, chatID: 5}
		if err := r.Reply(context.Background(), "hi"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("answer on a command", func(t *testing.T) {
		r := &responder{api: newMockAPI(), chatID: 5}
		if err := r.Answer(context.Background(), "ok"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestResponder_Answer(t *testing.T) {
	api := newMockAPI()
	r := &responder{api: api, chatID: -1001, callbackID: "cb-1"}

	if err := r.Answer(context.Background(), "Interaction recorded."); err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	if len(api.requested) != 1 {
		t.Fatalf("requested %d calls, want 1", len(api.requested))
	}
	cb, ok := api.requested[0].(tgbotapi.CallbackConfig)
	if !ok {
		t.Fatalf("requested %T, want tgbotapi.CallbackConfig", api.requested[0])
	}
	if cb.CallbackQueryID != "cb-1" || cb.Text != "Interaction recorded." {
		t.Errorf("callback = %+v", cb)
	}
	if !r.answered {
		t.Error("responder not marked as answered")
	}
}

func TestClient_Run(t *testing.T) {
	api := newMockAPI()
	c := newClient(api, Config{PollTimeout: 10 * time.Second, Logger: discardLogger()})
	c.username = "engagebot"

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})

	h := chat.HandlerFunc(func(ctx context.Context, w chat.Responder, u *chat.Update) error {
		mu.Lock()
		seen = append(seen, u.Command+u.Data)
		n := len(seen)
		mu.Unlock()

		if u.Kind == chat.KindCommand {
			if err := w.Reply(ctx, "ok"); err != nil {
				return err
			}
		}
		if n == 2 {
			close(done)
		}
		return nil
	})

	api.updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{Text: "not a command", From: &tgbotapi.User{ID: 1}}}
	api.updates <- tgbotapi.Update{UpdateID: 2, Message: commandMessage("/tweet@someotherbot https://x.com/a", 19, &tgbotapi.User{ID: 1})}
	api.updates <- tgbotapi.Update{UpdateID: 3, Message: commandMessage("/liste", 6, &tgbotapi.User{ID: 1})}
	api.updates <- tgbotapi.Update{UpdateID: 4, CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: &tgbotapi.User{ID: 2}, Data: "engage:x"}}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, h) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("updates were not dispatched")
	}
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("StopReceivingUpdates was not called")
	}
	if api.gotConfig.Timeout != 10 {
		t.Errorf("poll timeout = %d, want 10", api.gotConfig.Timeout)
	}
	if len(api.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(api.sent))
	}
	if want := []string{"liste", "engage:x"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("dispatched %v, want %v", seen, want)
	}
}

func TestClient_RunStopsWhenChannelCloses(t *testing.T) {
	api := newMockAPI()
	close(api.updates)
	c := newClient(api, Config{Logger: discardLogger()})

	h := chat.HandlerFunc(func(ctx context.Context, w chat.Responder, u *chat.Update) error { return nil })
	if err := c.Run(context.Background(), h); err != nil {
		t.Errorf("Run() unexpected error: %v", err)
	}
}

func TestClient_FailedCallbackIsStillAnswered(t *testing.T) {
	api := newMockAPI()
	c := newClient(api, Config{Logger: discardLogger()})

	h := chat.HandlerFunc(func(ctx context.Context, w chat.Responder, u *chat.Update) error {
		return errors.New("store down")
	})

	c.dispatch(context.Background(), h, tgbotapi.Update{
		UpdateID:      1,
		CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: &tgbotapi.User{ID: 2}, Data: "engage:x"},
	})

	if len(api.requested) != 1 {
		t.Fatalf("requested %d calls, want 1", len(api.requested))
	}
	if cb := api.requested[0].(tgbotapi.CallbackConfig); cb.Text != "" {
		t.Errorf("callback text = %q, want empty", cb.Text)
	}
}
