package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

// chatNotifier pushes reminder texts into one chat.
type chatNotifier struct {
	s      sender
	chatID int64
}

func (n chatNotifier) Notify(text string) error {
	_, err := n.s.Send(tgbotapi.NewMessage(n.chatID, text))
	return err
}
