package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nutri-planner/internal/catalog"
	"nutri-planner/internal/config"
	"nutri-planner/internal/insights"
	"nutri-planner/internal/menu"
	"nutri-planner/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// customRequestTTL bounds how long a /custom dialog waits for its follow-up.
const customRequestTTL = 10 * time.Minute

// Bot wraps the Telegram API around the menu pipeline.
type Bot struct {
	api          *tgbotapi.BotAPI
	menuService  *menu.Service
	importer     *catalog.Importer
	logRepo      *insights.LogRepository
	sessions     *SessionRepository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	menuService *menu.Service,
	importer *catalog.Importer,
	logRepo *insights.LogRepository,
	sessions *SessionRepository,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	slog.Info("telegram bot authorized", "account", api.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	slog.Info("webhook set", "response", resp.Description)

	return &Bot{
		api:          api,
		menuService:  menuService,
		importer:     importer,
		logRepo:      logRepo,
		sessions:     sessions,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		slog.Error("failed to parse telegram update", "error", err)
		return
	}
	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		slog.Warn("unauthorized telegram access attempt",
			"user_id", update.Message.From.ID, "username", update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	userID := fmt.Sprintf("%d", msg.From.ID)

	switch {
	case text == "/start" || text == "/help":
		b.send(msg.Chat.ID, helpText)
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case strings.HasPrefix(text, "/plan"):
		b.handlePlanRequest(msg, userID, strings.TrimSpace(strings.TrimPrefix(text, "/plan")))
	case text == "/custom":
		b.startCustomSession(msg, userID)
	case strings.HasPrefix(text, "/log"):
		b.handleLogRequest(msg, userID, strings.TrimSpace(strings.TrimPrefix(text, "/log")))
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImportRequest(msg, text)
	default:
		b.handleFreeText(msg, userID, text)
	}
}

const helpText = `🥗 *Nutrition Planner*

/plan [days] - generate a personalized meal plan
/custom - generate a plan from a free-text request
/log <kcal> [protein] [carbs] [fats] - log a meal
Paste a recipe URL to add it to your meal catalog.`

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message, userID, args string) {
	params := menu.GenerateMenuParams{UserID: userID}
	if args != "" {
		days, err := strconv.Atoi(args)
		if err != nil || days <= 0 {
			b.send(msg.Chat.ID, "Usage: /plan [days]")
			return
		}
		params.Days = days
	}

	statusID := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Reviewing your history and generating your plan)")
	plan, err := b.menuService.GeneratePersonalizedMenu(context.Background(), params)
	b.finishPlanRequest(msg.Chat.ID, statusID, plan, err)
}

func (b *Bot) startCustomSession(msg *tgbotapi.Message, userID string) {
	_, err := b.sessions.Create(context.Background(), userID, "custom_menu", "awaiting_request",
		SessionContextData{}, int(customRequestTTL.Seconds()))
	if err != nil {
		slog.Error("failed to create custom session", "user_id", userID, "error", err)
		b.send(msg.Chat.ID, "❌ Something went wrong, please try again.")
		return
	}
	b.send(msg.Chat.ID, "✍️ Tell me what kind of plan you want (e.g., \"cheap high-protein meals, no fish\").")
}

func (b *Bot) handleFreeText(msg *tgbotapi.Message, userID, text string) {
	ctx := context.Background()

	session, err := b.sessions.GetActive(ctx, userID, time.Now().UTC())
	if err != nil {
		slog.Error("failed to load session", "user_id", userID, "error", err)
	}
	if session != nil && session.SessionType == "custom_menu" {
		_ = b.sessions.Delete(ctx, session.ID)
	}

	// With or without a pending /custom dialog, free text is treated as a
	// custom plan request.
	statusID := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Generating a plan for your request)")
	plan, err := b.menuService.GenerateCustomMenu(ctx, userID, text)
	b.finishPlanRequest(msg.Chat.ID, statusID, plan, err)
}

func (b *Bot) finishPlanRequest(chatID int64, statusID int, plan *menu.MealPlan, err error) {
	if err != nil {
		slog.Error("plan generation failed", "error", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.edit(chatID, statusID, fmt.Sprintf("❌ *Could not generate a plan:*\n```\n%v\n```", safeErr))
		return
	}
	b.edit(chatID, statusID, formatPlanMarkdown(plan))
}

func (b *Bot) handleLogRequest(msg *tgbotapi.Message, userID, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 4 {
		b.send(msg.Chat.ID, "Usage: /log <kcal> [protein] [carbs] [fats]")
		return
	}

	values := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			b.send(msg.Chat.ID, "Usage: /log <kcal> [protein] [carbs] [fats]")
			return
		}
		values[i] = v
	}

	entry := insights.MealLog{
		UserID:   userID,
		Calories: values[0],
		ProteinG: values[1],
		CarbsG:   values[2],
		FatsG:    values[3],
	}
	if err := b.logRepo.LogMeal(context.Background(), entry); err != nil {
		slog.Error("failed to log meal", "user_id", userID, "error", err)
		b.send(msg.Chat.ID, "❌ Could not save the log entry.")
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf("✅ Logged %.0f kcal.", entry.Calories))
}

func (b *Bot) handleImportRequest(msg *tgbotapi.Message, url string) {
	statusID := b.sendStatus(msg.Chat.ID, "✂️ *Importing recipe...* \n(Extracting a meal template from the page)")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tpl, meta, err := b.importer.ImportURL(ctx, url)
	if b.metricsStore != nil {
		if recErr := b.metricsStore.RecordGeneration(ctx, meta, ""); recErr != nil {
			slog.Warn("failed to record import metrics", "error", recErr)
		}
	}
	if err != nil {
		slog.Error("recipe import failed", "url", url, "error", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		b.edit(msg.Chat.ID, statusID, fmt.Sprintf("❌ *Import failed:*\n```\n%v\n```", safeErr))
		return
	}

	b.edit(msg.Chat.ID, statusID, fmt.Sprintf(
		"✅ *Added to your catalog!*\n\n*%s* (%s)\n%.0f kcal, %.0fg protein per serving",
		tpl.Name, tpl.Slot, tpl.Nutrition.Calories, tpl.Nutrition.ProteinG))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")
	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}
	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.send(msg.Chat.ID, sb.String())
}

func formatPlanMarkdown(plan *menu.MealPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *%s*\n", plan.Title))
	sb.WriteString(fmt.Sprintf("_%s_\n", plan.Snapshot.Targets.AdjustmentReason))
	if plan.Source == menu.SourceFallback {
		sb.WriteString("_(built from your meal catalog)_\n")
	}
	sb.WriteString("\n")

	targets := plan.Snapshot.Targets
	sb.WriteString(fmt.Sprintf("🎯 %d kcal • %dg protein • %dg carbs • %dg fats\n\n",
		targets.Calories, targets.ProteinG, targets.CarbsG, targets.FatsG))

	for _, day := range plan.Days {
		sb.WriteString(fmt.Sprintf("*Day %d*\n", day.Day))
		for _, meal := range day.Meals {
			sb.WriteString(fmt.Sprintf("• _%s_: %s (%.0f kcal)\n", meal.Slot, meal.Name, meal.Nutrition.Calories))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send telegram message", "error", err)
	}
}

// sendStatus sends a placeholder message and returns its ID for later editing.
func (b *Bot) sendStatus(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		slog.Error("failed to send status message", "error", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.send(chatID, text)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("failed to edit telegram message", "error", err)
	}
}
