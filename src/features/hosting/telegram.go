package hosting

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/jobs"
	"tomekeeper/src/features/scanning"
)

// TelegramBot answers library questions and starts pipeline jobs over chat.
type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	config     *config.Manager
	scanning   *scanning.Service
	jobService *jobs.Service
	updates    tgbotapi.UpdatesChannel
	stopChan   chan struct{}
}

// NewTelegramBot creates a new Telegram bot instance.
func NewTelegramBot(cfg *config.Manager, scanningService *scanning.Service, jobService *jobs.Service) (*TelegramBot, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}
	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	return &TelegramBot{
		bot:        bot,
		config:     cfg,
		scanning:   scanningService,
		jobService: jobService,
		updates:    bot.GetUpdatesChan(updateConfig),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins listening for Telegram updates.
func (t *TelegramBot) Start() {
	slog.Info("Starting Telegram bot listener")
	for {
		select {
		case update := <-t.updates:
			if update.Message != nil {
				go t.handleMessage(update.Message)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			return
		}
	}
}

// Stop gracefully stops the bot.
func (t *TelegramBot) Stop() {
	close(t.stopChan)
}

func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", chatID)
		t.sendMessage(chatID, "Access denied: no users configured. Add your username to the config.")
		return
	}

	username := message.From.UserName
	if username == "" {
		username = strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)
	}
	if !slices.Contains(allowedUsers, username) {
		slog.Warn("Unauthorized user", "username", username, "chat_id", chatID)
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return
	}

	if !message.IsCommand() {
		t.sendMessage(chatID, "Send /help to see available commands")
		return
	}

	switch message.Command() {
	case "help", "start":
		t.handleHelp(chatID)
	case "status":
		t.handleStatus(chatID)
	case "jobs":
		t.handleJobs(chatID)
	case "scan":
		t.startJob(chatID, "library_scan", "Library scan")
	case "write":
		t.startJob(chatID, "tag_write", "Tag write")
	case "push":
		t.startJob(chatID, "abs_push", "Library push")
	default:
		t.sendMessage(chatID, "Unknown command. Send /help to see available commands.")
	}
}

func (t *TelegramBot) handleHelp(chatID int64) {
	t.sendMessage(chatID, `*Tomekeeper*

/status - library scan summary
/jobs - recent jobs
/scan - start a library scan
/write - write pending tag changes
/push - push metadata to the server`)
}

func (t *TelegramBot) handleStatus(chatID int64) {
	groups := t.scanning.Groups()
	files, pending := 0, 0
	for _, g := range groups {
		files += len(g.Files)
		pending += g.TotalChanges
	}
	t.sendMessage(chatID, fmt.Sprintf("*Library*\n\nGroups: %d\nFiles: %d\nPending changes: %d",
		len(groups), files, pending))
}

func (t *TelegramBot) handleJobs(chatID int64) {
	all := t.jobService.GetJobs()
	if len(all) == 0 {
		t.sendMessage(chatID, "No jobs yet")
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > 5 {
		all = all[:5]
	}

	var b strings.Builder
	b.WriteString("*Recent jobs*\n")
	for _, j := range all {
		fmt.Fprintf(&b, "\n%s - %s (%d%%)", j.Name, j.Status, j.Progress)
		if j.Error != "" {
			fmt.Fprintf(&b, "\n  error: %s", j.Error)
		}
	}
	t.sendMessage(chatID, b.String())
}

func (t *TelegramBot) startJob(chatID int64, jobType, name string) {
	jobID, err := t.jobService.StartJob(jobType, name, map[string]any{})
	if err != nil {
		t.sendMessage(chatID, fmt.Sprintf("Failed to start %s: %s", name, err.Error()))
		return
	}
	t.sendMessage(chatID, fmt.Sprintf("%s started (job %s)", name, jobID[:8]))
}

func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}
