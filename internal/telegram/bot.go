package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobmarket-pulse/internal/filter"
	"go-jobmarket-pulse/internal/scraper"
)

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

var markdownReplacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// FormatSummary renders a run summary as a MarkdownV2 message.
func FormatSummary(s scraper.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Data Analyst job market*\n🕒 %s\n", escapeMarkdown(s.LastUpdated))

	for _, c := range s.Countries {
		r := c.Record
		name := escapeMarkdown(c.Name)
		if r.Estimated {
			name += " _\\(estimated\\)_"
		}
		fmt.Fprintf(&b, "\n🌍 *%s*\n", name)
		fmt.Fprintf(&b, "📅 24h %s · 7d %s · 30d %s\n",
			escapeMarkdown(scraper.FormatCount(r.Last24h)),
			escapeMarkdown(scraper.FormatCount(r.Last7d)),
			escapeMarkdown(scraper.FormatCount(r.Last30d)))
		fmt.Fprintf(&b, "🏠 Remote %s · 🏢 On\\-site %s\n",
			escapeMarkdown(scraper.FormatCount(r.Remote)),
			escapeMarkdown(scraper.FormatCount(r.OnSite)))
		fmt.Fprintf(&b, "📝 %d listings, %d posted today\n", len(r.JobListings), c.SameDay)

		if top := c.TopSkills[filter.CategoryTechnical]; len(top) > 0 {
			names := make([]string, len(top))
			for i, sk := range top {
				names[i] = escapeMarkdown(fmt.Sprintf("%s (%d)", sk.Name, sk.Count))
			}
			fmt.Fprintf(&b, "🛠 %s\n", strings.Join(names, ", "))
		}
	}

	st := s.Stats
	fmt.Fprintf(&b, "\n✅ %d/%d counts available",
		st.CellsAvailable, st.CellsAvailable+st.CellsUnavailable)
	if len(st.Failed) > 0 {
		fmt.Fprintf(&b, "\n⚠️ No live counts: %s", escapeMarkdown(strings.Join(st.Failed, ", ")))
	}
	return b.String()
}

// SendSummary posts the run summary to the configured chat.
func (b *Bot) SendSummary(s scraper.Summary) error {
	msg := tgbotapi.NewMessage(b.chatID, FormatSummary(s))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}
