package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.Command() == "start" {
		if !b.authSvc.IsAllowed(msg.From.ID) {
			b.requestAccess(msg)
			return
		}
		b.pool.Reset(msg.From.ID)
		b.sendMessage(msg.Chat.ID, msgWelcome)
		return
	}

	// admin-only commands
	if msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, msgAdminOnly)
		return
	}
	switch msg.Command() {
	case "allowlist":
		var bld strings.Builder
		bld.WriteString("Allowlist:\n")
		for _, u := range b.authSvc.List() {
			fmt.Fprintf(&bld, "- id=%d, @%s %s %s\n", u.ID, u.Username, u.FirstName, u.LastName)
		}
		b.sendMessage(msg.Chat.ID, bld.String())
	case "pending":
		var bld strings.Builder
		bld.WriteString("Заявки на доступ:\n")
		b.mu.Lock()
		for _, u := range b.pending {
			fmt.Fprintf(&bld, "- id=%d, @%s %s %s\n", u.ID, u.Username, u.FirstName, u.LastName)
		}
		b.mu.Unlock()
		b.sendMessage(msg.Chat.ID, bld.String())
	case "remove":
		uid, ok := b.userIDArg(msg, "/remove <user_id>")
		if !ok {
			return
		}
		if err := b.authSvc.Remove(uid); err != nil {
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Ошибка удаления: %v", err))
			return
		}
		b.pool.Reset(uid)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Пользователь %d удален из allowlist", uid))
	case "approve":
		if uid, ok := b.userIDArg(msg, "/approve <user_id>"); ok {
			b.approveUser(uid)
		}
	case "deny":
		if uid, ok := b.userIDArg(msg, "/deny <user_id>"); ok {
			b.denyUser(uid)
		}
	case "report":
		asJSON := strings.TrimSpace(msg.CommandArguments()) == "json"
		if err := b.sendReport(asJSON); err != nil {
			b.log.Error("report", zap.Error(err))
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Ошибка генерации отчёта: %v", err))
		}
	default:
		b.sendMessage(msg.Chat.ID, "Неизвестная команда")
	}
}

func (b *Bot) userIDArg(msg *tgbotapi.Message, usage string) (int64, bool) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.sendMessage(msg.Chat.ID, "Usage: "+usage)
		return 0, false
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(msg.Chat.ID, "Некорректный user_id")
		return 0, false
	}
	return uid, true
}
