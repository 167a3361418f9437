package rolesvc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/admin"
)

// RolesConfig contains configuration parameters for the role service.
type RolesConfig struct {
	// Superadmins is a comma-separated list of Telegram ids with full
	// access. An empty list enables bootstrap mode: everyone is treated
	// as superadmin until the list is populated.
	Superadmins string `env:"SUPERADMINS" default:""`

	// Admins is a comma-separated list of Telegram ids seeded into the
	// persisted admin roster on startup.
	Admins string `env:"ADMINS" default:""`
}

// Service answers role questions for the chat layer. Superadmins come from
// the environment, normal admins from the persisted roster; a superadmin is
// always also an admin.
type Service struct {
	superadmins map[int64]struct{}
	roster      admin.Repository
	log         logging.Logger
}

// NewService creates a new role Service, seeding the configured admin ids
// into the roster. Returns an error if the configured id lists cannot be
// parsed or the roster cannot be initialized.
func NewService(ctx context.Context, repoFactory admin.RepositoryFactory, cfg RolesConfig) (*Service, error) {
	log := logging.GetLogger("svc.rolesvc.role_service")

	superadmins, err := parseIDSet(cfg.Superadmins)
	if err != nil {
		return nil, fmt.Errorf("parse superadmins: %w", err)
	}

	seed, err := parseIDSet(cfg.Admins)
	if err != nil {
		return nil, fmt.Errorf("parse admins: %w", err)
	}

	roster, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new admin repo: %w", err)
	}

	for telegramID := range seed {
		if err := roster.Add(ctx, telegramID); err != nil {
			return nil, fmt.Errorf("seed admin %d: %w", telegramID, err)
		}
	}

	if len(superadmins) == 0 {
		log.WarnContext(ctx, "no superadmins configured, bootstrap mode active")
	}

	return &Service{
		superadmins: superadmins,
		roster:      roster,
		log:         log,
	}, nil
}

// BootstrapMode reports whether the superadmin list is empty, in which case
// every user has superadmin access.
func (s *Service) BootstrapMode() bool {
	return len(s.superadmins) == 0
}

// IsSuperadmin reports whether the given Telegram id has superadmin access.
func (s *Service) IsSuperadmin(telegramID int64) bool {
	if s.BootstrapMode() {
		return true
	}

	_, ok := s.superadmins[telegramID]

	return ok
}

// IsAdmin reports whether the given Telegram id has at least admin access.
func (s *Service) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	if s.IsSuperadmin(telegramID) {
		return true, nil
	}

	isAdmin, err := s.roster.IsAdmin(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("roster lookup: %w", err)
	}

	return isAdmin, nil
}

// Grant puts the given Telegram id on the admin roster.
func (s *Service) Grant(ctx context.Context, telegramID int64) (err error) {
	log := s.log.With(logging.Group("admin", "telegram_id", telegramID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "grant admin failed", "error", err)
		} else {
			log.InfoContext(ctx, "admin granted")
		}
	}()

	if err := s.roster.Add(ctx, telegramID); err != nil {
		return fmt.Errorf("add admin: %w", err)
	}

	return nil
}

// Revoke drops the given Telegram id from the admin roster. Superadmins
// cannot be revoked here; they live in the environment.
func (s *Service) Revoke(ctx context.Context, telegramID int64) (err error) {
	log := s.log.With(logging.Group("admin", "telegram_id", telegramID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "revoke admin failed", "error", err)
		} else {
			log.InfoContext(ctx, "admin revoked")
		}
	}()

	if err := s.roster.Remove(ctx, telegramID); err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}

	return nil
}

// List returns all roster members.
func (s *Service) List(ctx context.Context) ([]domain.Admin, error) {
	admins, err := s.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	return admins, nil
}

// SyncProfile stores display metadata for a roster member when the given id
// has admin access; for everyone else it is a no-op.
func (s *Service) SyncProfile(ctx context.Context, telegramID int64, username, fullName string) error {
	isAdmin, err := s.IsAdmin(ctx, telegramID)
	if err != nil {
		return err
	}

	if !isAdmin {
		return nil
	}

	if err := s.roster.UpsertProfile(ctx, telegramID, username, fullName); err != nil {
		return fmt.Errorf("upsert admin profile: %w", err)
	}

	return nil
}

// NotifyTargets returns the union of configured superadmins and roster
// members, used for fan-out report delivery.
func (s *Service) NotifyTargets(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]struct{}, len(s.superadmins))
	targets := make([]int64, 0, len(s.superadmins))

	for telegramID := range s.superadmins {
		seen[telegramID] = struct{}{}
		targets = append(targets, telegramID)
	}

	admins, err := s.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	for _, a := range admins {
		if _, ok := seen[a.TelegramID]; ok {
			continue
		}

		targets = append(targets, a.TelegramID)
	}

	return targets, nil
}

// Close releases the underlying roster repository.
func (s *Service) Close() error {
	if err := s.roster.Close(); err != nil {
		return fmt.Errorf("close roster: %w", err)
	}

	return nil
}

func parseIDSet(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id %q: %w", part, err)
		}

		ids[id] = struct{}{}
	}

	return ids, nil
}
