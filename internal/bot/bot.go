package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"

	"github.com/mkrupp/renewbot/internal/infra/botctx"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/audit"
	"github.com/mkrupp/renewbot/internal/repo/credit"
	"github.com/mkrupp/renewbot/internal/svc/renewsvc"
	"github.com/mkrupp/renewbot/internal/svc/rolesvc"
)

const traceIDKey = "trace_id"

// BotConfig contains configuration parameters for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram bot API token
	Token string `env:"TOKEN"`

	// Enabled switches update processing on or off
	Enabled bool `env:"ENABLED" default:"true"`

	// PollTimeout is the long-polling timeout in seconds
	PollTimeout int64 `env:"POLL_TIMEOUT" default:"10"`
}

// Bot is the Telegram chat layer on top of the renewal service, the credit
// ledger and the role service. All conversation state lives in memory.
type Bot struct {
	tb       *tele.Bot
	cfg      BotConfig
	renew    *renewsvc.Service
	credits  credit.Repository
	roles    *rolesvc.Service
	audit    audit.Repository
	sessions *sessionStore
	log      logging.Logger
}

// New creates and wires a new Bot instance. Returns an error if the
// Telegram API handshake fails.
func New(cfg BotConfig, renew *renewsvc.Service, credits credit.Repository, roles *rolesvc.Service, auditRepo audit.Repository) (*Bot, error) {
	log := logging.GetLogger("bot")

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: time.Duration(cfg.PollTimeout) * time.Second},
		OnError: func(err error, c tele.Context) {
			if c != nil && c.Sender() != nil {
				log.Error("handler failed", logging.Group("update",
					"chat", c.Sender().ID,
					"error", err,
				))

				return
			}

			log.Error("handler failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new telebot: %w", err)
	}

	b := &Bot{
		tb:       tb,
		cfg:      cfg,
		renew:    renew,
		credits:  credits,
		roles:    roles,
		audit:    auditRepo,
		sessions: newSessionStore(),
		log:      log,
	}

	b.registerHandlers()

	return b, nil
}

// Start begins long-polling. Blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("starting", logging.Group("bot",
		"mode", "polling",
		"timeout_s", b.cfg.PollTimeout,
	))
	b.tb.Start()
}

// Stop gracefully shuts down update processing.
func (b *Bot) Stop() {
	b.tb.Stop()
}

func (b *Bot) registerHandlers() {
	b.tb.Use(b.traceMiddleware)

	b.tb.Handle("/start", b.onStart)
	b.tb.Handle("/whoami", b.onWhoami)
	b.tb.Handle(tele.OnText, b.onText)
}

// traceMiddleware assigns each update a trace id, syncs the sender's stored
// profile, and short-circuits users without credit.
func (b *Bot) traceMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(traceIDKey, uuid.NewString())

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		ctx := b.ctx(c)

		b.syncProfiles(ctx, sender)

		// Users without credit get one fixed reply instead of silence, so
		// they know why the bot ignores them. Superadmins are exempt.
		if !b.roles.IsSuperadmin(sender.ID) {
			balance, err := b.credits.GetBalance(ctx, sender.ID)
			if err != nil {
				return fmt.Errorf("balance gate: %w", err)
			}

			if balance <= 0 {
				return c.Reply("اعتباری برای شما باقی نمانده است")
			}
		}

		return next(c)
	}
}

// ctx builds the request context carrying the update's trace id and actor
// for the logging handlers downstream.
func (b *Bot) ctx(c tele.Context) context.Context {
	ctx := context.Background()

	if traceID, ok := c.Get(traceIDKey).(string); ok {
		ctx = botctx.WithTraceID(ctx, traceID)
	}

	if sender := c.Sender(); sender != nil {
		ctx = botctx.WithActorID(ctx, sender.ID)
	}

	return ctx
}

// syncProfiles refreshes the stored handle and display name of the sender
// on every interaction, in both the customer ledger and the admin roster.
func (b *Bot) syncProfiles(ctx context.Context, sender *tele.User) {
	if err := b.credits.UpsertProfile(ctx, sender.ID, sender.Username, fullName(sender)); err != nil {
		b.log.WarnContext(ctx, "customer profile sync failed", "error", err)
	}

	if err := b.roles.SyncProfile(ctx, sender.ID, sender.Username, fullName(sender)); err != nil {
		b.log.WarnContext(ctx, "admin profile sync failed", "error", err)
	}
}

func fullName(user *tele.User) string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
