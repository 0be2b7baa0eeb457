package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	err   error
	block chan struct{}
	panic bool

	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	if f.panic {
		panic("boom")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeSender) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeLinker struct {
	mu     sync.Mutex
	err    error
	code   string
	chatID string
	calls  int
}

func (f *fakeLinker) ConfirmTelegramLink(_ context.Context, code, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.code = code
	f.chatID = chatID
	return f.err
}

var errBoom = errors.New("boom")
