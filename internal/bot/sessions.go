package bot

import "sync"

// step identifies which multi-message flow a chat is currently in.
type step string

const (
	stepNone          step = ""
	stepRenewUsername step = "renew_username"
	stepAddCustomer   step = "add_customer"
	stepSetCredits    step = "set_credits"
	stepAddCredits    step = "add_credits"
	stepRenewFor      step = "renew_for"
	stepGetCredits    step = "get_credits"
	stepAddAdmin      step = "add_admin"
	stepRemoveAdmin   step = "remove_admin"
)

// sessionStore keeps per-chat conversation state in memory. State does not
// survive a restart; an interrupted flow simply starts over.
type sessionStore struct {
	steps map[int64]step
	m     sync.Mutex
}

func newSessionStore() *sessionStore {
	return &sessionStore{steps: make(map[int64]step)}
}

func (s *sessionStore) get(chatID int64) step {
	s.m.Lock()
	defer s.m.Unlock()

	return s.steps[chatID]
}

func (s *sessionStore) set(chatID int64, st step) {
	s.m.Lock()
	defer s.m.Unlock()

	if st == stepNone {
		delete(s.steps, chatID)

		return
	}

	s.steps[chatID] = st
}

func (s *sessionStore) clear(chatID int64) {
	s.set(chatID, stepNone)
}
