// Package session persists the signed-in credential and identity and
// broadcasts every change to subscribers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"code-review-client/config"
	"code-review-client/models"
	"code-review-client/storage"

	"github.com/sirupsen/logrus"
)

// recordKey holds credential and identity as one value, so a single write
// sets or removes both.
const recordKey = "session"

// Change is delivered to subscribers after every Save or Clear.
type Change struct {
	Active  bool
	Session *models.Session
}

// Store is the only owner of the persisted session.
type Store struct {
	kv  storage.Store
	log *logrus.Entry

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Change)
	order  []int
}

type Option func(*Store)

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger.WithField("component", "session")
		}
	}
}

func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:   kv,
		log:  config.DiscardLogger().WithField("component", "session"),
		subs: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists credential and identity together and notifies subscribers.
func (s *Store) Save(credential string, identity models.Identity) error {
	if credential == "" {
		return errors.New("session: credential is required")
	}
	sess := models.Session{Credential: credential, Identity: identity}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.kv.Put(context.Background(), recordKey, data); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": identity.ID, "role": identity.Role}).Info("session saved")
	s.broadcast(Change{Active: true, Session: &sess})
	return nil
}

// Read returns the current session. A missing or unreadable record reads as absent.
func (s *Store) Read() (models.Session, bool) {
	data, err := s.kv.Get(context.Background(), recordKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WithError(err).Warn("session record unavailable")
		}
		return models.Session{}, false
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.WithError(err).Warn("session record is corrupt")
		return models.Session{}, false
	}
	if sess.Credential == "" {
		return models.Session{}, false
	}
	return sess, true
}

// Identity returns the signed-in identity, if any.
func (s *Store) Identity() (models.Identity, bool) {
	sess, ok := s.Read()
	return sess.Identity, ok
}

// Clear removes the session and notifies subscribers. Clearing an absent
// session still notifies.
func (s *Store) Clear() error {
	if err := s.kv.Delete(context.Background(), recordKey); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	s.log.Info("session cleared")
	s.broadcast(Change{Active: false})
	return nil
}

// Subscribe registers fn for every change. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) broadcast(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
