package query

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"vaquero/internal"
)

type StateStore interface {
	LoadState(userKey string) ([]byte, error)
	SaveState(userKey string, value []byte) error
}

// StorageKey namespaces a user's persisted state under the configured state
// key. An empty userKey addresses the local single-user state.
func StorageKey(stateKey, userKey string) string {
	if userKey == "" {
		return stateKey
	}
	return stateKey + ":" + userKey
}

// Session owns one user's FilterState. Every action persists the new state
// and recomputes the view before returning. A Session is not safe for
// concurrent use; callers serialize access per user.
type Session struct {
	store   StateStore
	key     string
	records []internal.DiscountRecord
	state   FilterState
	view    View
	log     *logrus.Entry
}

// OpenSession restores the state saved under key and computes the first view.
func OpenSession(store StateStore, key string, records []internal.DiscountRecord) (*Session, RestoreOutcome) {
	s := &Session{
		store:   store,
		key:     key,
		records: records,
		log:     logrus.WithFields(logrus.Fields{"component": "session", "state_key": key}),
	}

	raw, err := store.LoadState(key)
	outcome := StateFallback
	if err != nil {
		s.log.WithError(err).Warn("load filter state failed, using defaults")
	} else {
		s.state, outcome = Restore(raw)
		if outcome == StateFallback {
			s.log.Debug("stored filter state unreadable, using defaults")
		}
	}

	s.view = Run(s.records, s.state)
	return s, outcome
}

func (s *Session) State() FilterState { return s.state }

func (s *Session) View() View { return s.view }

func (s *Session) SetSearch(text string) View {
	return s.apply(s.state.SetSearch(text))
}

func (s *Session) ToggleCategory(category internal.Category) View {
	return s.apply(s.state.ToggleCategory(category))
}

func (s *Session) ToggleRole(role internal.Role) View {
	return s.apply(s.state.ToggleRole(role))
}

func (s *Session) Clear() View {
	return s.apply(s.state.Clear())
}

func (s *Session) apply(next FilterState) View {
	s.state = next
	s.persist()
	s.view = Run(s.records, s.state)
	return s.view
}

func (s *Session) persist() {
	blob, err := json.Marshal(s.state)
	if err == nil {
		err = s.store.SaveState(s.key, blob)
	}
	if err != nil {
		s.log.WithError(err).Warn("persist filter state failed")
	}
}
