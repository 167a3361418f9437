package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mkrupp/renewbot/internal/bot"
	"github.com/mkrupp/renewbot/internal/infra/config"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/admin"
	"github.com/mkrupp/renewbot/internal/repo/audit"
	"github.com/mkrupp/renewbot/internal/repo/credit"
	"github.com/mkrupp/renewbot/internal/svc/renewsvc"
	"github.com/mkrupp/renewbot/internal/svc/rolesvc"
)

const appName = "renewbot"

type Config struct {
	config.EnvConfig

	Log    logging.LoggerConfig                `envPrefix:"LOG_"`
	Panel  renewsvc.PanelConfig                `envPrefix:"PANEL_"`
	Bot    bot.BotConfig                       `envPrefix:"BOT_"`
	Roles  rolesvc.RolesConfig                 `envPrefix:"ROLES_"`
	Credit credit.SQLiteCreditRepositoryConfig `envPrefix:"CREDIT_"`
	Admin  admin.SQLiteAdminRepositoryConfig   `envPrefix:"ADMIN_"`
	Audit  audit.SQLiteAuditRepositoryConfig   `envPrefix:"AUDIT_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()
	)

	// Optional .env file for local runs; real deployments set the
	// environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, "RENEWBOT"); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, appName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.renewbot")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	if !cfg.Bot.Enabled {
		log.InfoContext(ctx, "bot disabled, exiting")

		return nil
	}

	creditRepo, err := credit.SQLiteCreditRepositoryFactory(cfg.Credit)()
	if err != nil {
		return fmt.Errorf("new credit repo: %w", err)
	}
	defer creditRepo.Close()

	auditRepo, err := audit.SQLiteAuditRepositoryFactory(cfg.Audit)()
	if err != nil {
		return fmt.Errorf("new audit repo: %w", err)
	}
	defer auditRepo.Close()

	roles, err := rolesvc.NewService(ctx, admin.SQLiteAdminRepositoryFactory(cfg.Admin), cfg.Roles)
	if err != nil {
		return fmt.Errorf("new role service: %w", err)
	}
	defer roles.Close()

	tokens := renewsvc.NewTokenManager(cfg.Panel, nil)
	panel := renewsvc.NewHTTPPanelClient(cfg.Panel, tokens, nil)
	renew := renewsvc.NewService(panel, creditRepo)

	tgBot, err := bot.New(cfg.Bot, renew, creditRepo, roles, auditRepo)
	if err != nil {
		return fmt.Errorf("new bot: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		log.InfoContext(ctx, "signal received, stopping")
		tgBot.Stop()
	}()

	tgBot.Start()

	return nil
}
