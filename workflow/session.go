package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const stateKey = "workflow_state"

// Manager persists workflow state in the server-side session store. The
// state is stored as one JSON blob under a single key, since session values
// are byte-oriented.
type Manager struct {
	store *session.Store
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Expiration:     ttl,
			KeyGenerator:   uuid.NewString,
			CookieHTTPOnly: true,
		}),
	}
}

// Load returns the visitor's current state and the underlying session. A
// visitor with no stored state gets a fresh empty state.
func (m *Manager) Load(c *fiber.Ctx) (*State, *session.Session, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session: %w", err)
	}

	raw := sess.Get(stateKey)
	var payload []byte
	switch v := raw.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	}
	if len(payload) == 0 {
		return NewState(), sess, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		// Corrupt state is unrecoverable; start over.
		return NewState(), sess, nil
	}
	return &state, sess, nil
}

// Save writes the state back into the session.
func (m *Manager) Save(sess *session.Session, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}
	sess.Set(stateKey, payload)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
