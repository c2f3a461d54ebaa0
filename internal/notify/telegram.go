package notify

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/material-tracker/internal/domain/materials"
)

// telegram ограничивает сообщение 4096 символами
const maxMessageLen = 4000

// длинные названия в сводке обрезаются, чтобы строка всегда помещалась в сообщение
const maxNameRunes = 200

// Sender то, что нужно от *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	api    Sender
	chatID int64
}

func New(api Sender, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

// NewBot создаёт клиента Bot API по токену.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	return tgbotapi.NewBotAPI(token)
}

// SendNearExpiry отправляет сводку в админский чат; длинный список режется на несколько сообщений.
func (n *Notifier) SendNearExpiry(items []materials.Material, today time.Time) error {
	for _, text := range Digest(items, today) {
		msg := tgbotapi.NewMessage(n.chatID, text)
		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// Digest текст сводки по материалам со сроком ≤ 30 дней.
func Digest(items []materials.Material, today time.Time) []string {
	if len(items) == 0 {
		return []string{fmt.Sprintf("Нет материалов со сроком годности в ближайшие %d дней.", materials.NearExpiryDays)}
	}

	head := fmt.Sprintf("Скоро истекает срок (%d):\n", len(items))
	var (
		out []string
		b   strings.Builder
	)
	b.WriteString(head)
	lines := 0 // строк в текущем сообщении
	for _, m := range items {
		line := digestLine(m, today)
		if lines > 0 && b.Len()+len(line) > maxMessageLen {
			out = append(out, b.String())
			b.Reset()
			lines = 0
		}
		b.WriteString(line)
		lines++
	}
	out = append(out, b.String())
	return out
}

func digestLine(m materials.Material, today time.Time) string {
	days := m.DaysLeft(today)
	var when string
	switch {
	case days < 0:
		when = fmt.Sprintf("истёк %d дн. назад", -days)
	case days == 0:
		when = "истекает сегодня"
	default:
		when = fmt.Sprintf("осталось %d дн.", days)
	}
	return fmt.Sprintf("🔸 %s [%s] — %d шт., до %s (%s)\n",
		shorten(m.Name, maxNameRunes), m.Code, m.Quantity, m.ExpiryDate.Format(materials.DateLayout), when)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
