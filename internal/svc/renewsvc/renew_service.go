package renewsvc

import (
	"context"
	"time"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/credit"
)

// RenewalDays is how far a single renewal pushes an account's expiry.
const RenewalDays = 31

// Outcome messages surfaced to the chat layer.
const (
	MsgNoCredit = "no credit remaining"
	MsgNotFound = "account does not exist"
	MsgRenewed  = "renewed for 31 days, usage reset, status active"
)

// Service couples the three-step panel renewal to the credit ledger: the
// balance gates the attempt, and exactly one credit is charged when and only
// when the remote mutation sequence succeeds. No error ever escapes; every
// path collapses into a RenewalOutcome.
type Service struct {
	panel   PanelClient
	credits credit.Repository
	log     logging.Logger
	now     func() time.Time
}

// NewService creates a new renewal Service on top of the given panel client
// and credit ledger.
func NewService(panel PanelClient, credits credit.Repository) *Service {
	return &Service{
		panel:   panel,
		credits: credits,
		log:     logging.GetLogger("svc.renewsvc.renew_service"),
		now:     time.Now,
	}
}

// Renew runs the renewal transaction for one panel account: fetch, bump the
// expiry to now+31d, mark active, reset usage, then re-fetch as a best-effort
// confirmation. A missing account aborts before any mutation. A failure after
// the expiry bump leaves the panel in whatever intermediate state it reached;
// the panel is the source of truth and the failure text is the operational
// alert, not a rollback trigger.
func (s *Service) Renew(ctx context.Context, username string) domain.RenewalOutcome {
	log := s.log.With(logging.Group("renew", "username", username))

	_, found, err := s.panel.FetchUser(ctx, username)
	if err != nil {
		log.ErrorContext(ctx, "fetch failed", "error", err)

		return domain.RenewalOutcome{Message: err.Error()}
	}

	if !found {
		log.InfoContext(ctx, "account not found")

		return domain.RenewalOutcome{Message: MsgNotFound}
	}

	// One timestamp per transaction: the same value goes to the panel and
	// back to the caller.
	expire := s.now().UTC().Add(RenewalDays * 24 * time.Hour).Unix()

	if _, err := s.panel.ModifyUser(ctx, username, expire); err != nil {
		log.ErrorContext(ctx, "modify failed", "error", err)

		return domain.RenewalOutcome{Message: err.Error()}
	}

	if err := s.panel.ResetUsage(ctx, username); err != nil {
		log.ErrorContext(ctx, "reset failed after expiry bump", "error", err)

		return domain.RenewalOutcome{Message: err.Error()}
	}

	// Confirmation only; the renewal already happened.
	if confirmed, ok, err := s.panel.FetchUser(ctx, username); err != nil || !ok {
		log.WarnContext(ctx, "confirmation fetch failed", "error", err)
	} else {
		log.InfoContext(ctx, "renewed",
			logging.Group("account", "status", confirmed.Status, "expire", confirmed.Expire),
		)
	}

	return domain.RenewalOutcome{
		OK:       true,
		Message:  MsgRenewed,
		Username: username,
		Expire:   expire,
	}
}

// Execute is the entry point for the chat layer: actorID triggered a renewal
// of the panel account username on behalf of targetID, whose balance pays for
// it. The pre-flight balance check and the final decrement are deliberately
// not one atomic step; if the balance is drained in between, the outcome is
// downgraded to an insufficient-credit failure even though the panel already
// advanced. That inconsistency is accepted and reported, never fatal.
func (s *Service) Execute(ctx context.Context, actorID, targetID int64, username string) domain.RenewalOutcome {
	log := s.log.With(logging.Group("execute",
		"actor", actorID,
		"target", targetID,
		"username", username,
	))

	balance, err := s.credits.GetBalance(ctx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "balance check failed", "error", err)

		return domain.RenewalOutcome{Message: "credit check failed: " + err.Error()}
	}

	if balance <= 0 {
		log.InfoContext(ctx, "renewal refused, no credit")

		return domain.RenewalOutcome{Message: MsgNoCredit}
	}

	outcome := s.Renew(ctx, username)
	if !outcome.OK {
		return outcome
	}

	charged, err := s.credits.TryDecrement(ctx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "credit charge failed after successful renewal", "error", err)

		return domain.RenewalOutcome{Message: "credit charge failed: " + err.Error()}
	}

	if !charged {
		// Drained between the gate and the charge. The panel renewal stands
		// uncharged; see the service doc for why this is accepted.
		log.WarnContext(ctx, "balance drained during renewal, outcome downgraded")

		return domain.RenewalOutcome{Message: MsgNoCredit}
	}

	log.InfoContext(ctx, "renewal charged", logging.Group("renew", "expire", outcome.Expire))

	return outcome
}
