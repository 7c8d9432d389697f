// Package telegram exposes the assistant as a long-polling Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"voice-assistant/internal/analytics"
	"voice-assistant/internal/assistant"
	"voice-assistant/internal/auth"
	"voice-assistant/internal/dispatch"
	"voice-assistant/internal/storage"
)

const (
	approvePrefix = "approve:"
	denyPrefix    = "deny:"

	msgWelcome     = "Привет! Я голосовой ассистент. Скажите «помощь», чтобы узнать, что я умею."
	msgRequestSent = "Запрос на доступ отправлен администратору. Я напишу, когда он будет одобрен."
	msgRequestWait = "Ваш запрос на доступ уже отправлен администратору. Пожалуйста, ожидайте подтверждения."
	msgTextOnly    = "Я понимаю только текстовые сообщения"
	msgFailure     = "Извините, что-то пошло не так."
	msgAdminOnly   = "Команда доступна только администратору"
	msgRestart     = "Напишите что-нибудь, чтобы начать заново."
)

var errNoRecorder = errors.New("conversation recorder is not configured")

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	authSvc     *auth.Service
	pool        *assistant.Pool
	recorder    storage.Recorder
	adminUserID int64
	log         *zap.Logger
	now         func() time.Time

	mu          sync.Mutex
	pending     map[int64]auth.User
	pendingRepo auth.Repository
}

// New connects to the Bot API. pendingRepo keeps access requests across
// restarts and may be nil.
func New(botToken string, authSvc *auth.Service, pool *assistant.Pool, recorder storage.Recorder, pendingRepo auth.Repository, adminUserID int64, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	b := newBot(botAPISender{api: api}, authSvc, pool, recorder, adminUserID, log)
	b.api = api
	b.loadPending(pendingRepo)
	return b, nil
}

func (b *Bot) loadPending(repo auth.Repository) {
	b.pendingRepo = repo
	if repo == nil {
		return
	}
	users, err := repo.LoadAll()
	if err != nil {
		b.log.Warn("load pending requests", zap.Error(err))
		return
	}
	for _, u := range users {
		b.pending[u.ID] = u
	}
}

func (b *Bot) savePending(u auth.User) {
	if b.pendingRepo == nil {
		return
	}
	if err := b.pendingRepo.Upsert(u); err != nil {
		b.log.Warn("save pending request", zap.Int64("user", u.ID), zap.Error(err))
	}
}

func (b *Bot) dropPending(userID int64) (auth.User, bool) {
	b.mu.Lock()
	u, ok := b.pending[userID]
	delete(b.pending, userID)
	b.mu.Unlock()
	if b.pendingRepo != nil {
		if err := b.pendingRepo.Remove(userID); err != nil {
			b.log.Warn("remove pending request", zap.Int64("user", userID), zap.Error(err))
		}
	}
	return u, ok
}

func newBot(s sender, authSvc *auth.Service, pool *assistant.Pool, recorder storage.Recorder, adminUserID int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		s:           s,
		authSvc:     authSvc,
		pool:        pool,
		recorder:    recorder,
		adminUserID: adminUserID,
		log:         log,
		now:         time.Now,
		pending:     make(map[int64]auth.User),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.log.Info("bot started", zap.String("username", b.api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			return
		}
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.authSvc.IsAllowed(msg.From.ID) {
		b.requestAccess(msg)
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.sendMessage(msg.Chat.ID, msgTextOnly)
		return
	}

	res, err := b.pool.Handle(ctx, msg.From.ID, text, chatNotifier{s: b.s, chatID: msg.Chat.ID})
	if err != nil {
		b.log.Error("handle utterance", zap.Int64("user", msg.From.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgFailure)
		return
	}
	b.log.Debug("resolved",
		zap.Int64("user", msg.From.ID),
		zap.String("utterance", text),
		zap.Stringer("result", res))

	if res.Kind == dispatch.Terminate {
		reply := msgRestart
		if res.Text != "" {
			reply = res.Text + "\n\n" + msgRestart
		}
		b.sendMessage(msg.Chat.ID, reply)
		return
	}
	b.sendMessage(msg.Chat.ID, res.Text)
}

func (b *Bot) requestAccess(msg *tgbotapi.Message) {
	b.log.Warn("unauthorized access attempt",
		zap.Int64("user", msg.From.ID),
		zap.String("username", msg.From.UserName))

	u := auth.User{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	b.mu.Lock()
	_, waiting := b.pending[u.ID]
	if !waiting {
		b.pending[u.ID] = u
	}
	b.mu.Unlock()

	if waiting {
		b.sendMessage(msg.Chat.ID, msgRequestWait)
		return
	}
	b.savePending(u)
	b.sendMessage(msg.Chat.ID, msgRequestSent)
	b.notifyAdminRequest(msg.From.ID, msg.From.UserName)
}

func (b *Bot) notifyAdminRequest(userID int64, username string) {
	if b.adminUserID == 0 {
		return
	}
	text := fmt.Sprintf("Пользователь @%s с id %d хочет пользоваться ботом", username, userID)
	id := strconv.FormatInt(userID, 10)
	msg := tgbotapi.NewMessage(b.adminUserID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("разрешить", approvePrefix+id),
			tgbotapi.NewInlineKeyboardButtonData("запретить", denyPrefix+id),
		),
	)
	if _, err := b.s.Send(msg); err != nil {
		b.log.Error("notify admin", zap.Error(err))
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.From.ID != b.adminUserID {
		return
	}
	var (
		prefix string
		act    func(int64)
	)
	switch {
	case strings.HasPrefix(cb.Data, approvePrefix):
		prefix, act = approvePrefix, b.approveUser
	case strings.HasPrefix(cb.Data, denyPrefix):
		prefix, act = denyPrefix, b.denyUser
	default:
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, prefix), 10, 64)
	if err != nil {
		b.log.Warn("bad callback data", zap.String("data", cb.Data))
		return
	}
	act(id)
}

func (b *Bot) approveUser(userID int64) {
	u, ok := b.dropPending(userID)
	if !ok {
		u = auth.User{ID: userID}
	}
	if err := b.authSvc.Upsert(u); err != nil {
		b.sendMessage(b.adminUserID, fmt.Sprintf("Ошибка добавления: %v", err))
		return
	}
	b.sendMessage(userID, "Доступ предоставлен. "+msgWelcome)
	b.sendMessage(b.adminUserID, fmt.Sprintf("Пользователь %d добавлен в allowlist", userID))
}

func (b *Bot) denyUser(userID int64) {
	b.dropPending(userID)
	b.sendMessage(userID, "В доступе отказано")
	b.sendMessage(b.adminUserID, fmt.Sprintf("Заявка пользователя %d отклонена", userID))
}

// DailyReport sends the statistics of the current UTC day to the admin.
func (b *Bot) DailyReport(context.Context) error {
	return b.sendReport(false)
}

func (b *Bot) sendReport(asJSON bool) error {
	if b.adminUserID == 0 {
		return nil
	}
	if b.recorder == nil {
		return errNoRecorder
	}
	events, err := b.recorder.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, b.now().UTC())
	text := stats.GenerateReportSummary()
	if asJSON {
		if text, err = stats.ToJSON(); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}
	_, err = b.s.Send(tgbotapi.NewMessage(b.adminUserID, text))
	return err
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}
