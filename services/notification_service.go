package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"code-review-client/models"
	"code-review-client/storage"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const ackKey = "acknowledged_notifications"

// AckSet is the set of notification ids acknowledged on this device.
type AckSet map[int]struct{}

func NewAckSet(ids ...int) AckSet {
	set := make(AckSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (a AckSet) Has(id int) bool {
	_, ok := a[id]
	return ok
}

// Union returns a new set holding a and ids, and the ids that were not in a.
func (a AckSet) Union(ids []int) (AckSet, []int) {
	out := make(AckSet, len(a)+len(ids))
	for id := range a {
		out[id] = struct{}{}
	}
	var added []int
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = struct{}{}
		added = append(added, id)
	}
	return out, added
}

// IDs returns the members in ascending order.
func (a AckSet) IDs() []int {
	ids := make([]int, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Reconcile derives read state: the server flag OR local acknowledgment. A
// server "read" is never turned back to unread.
func Reconcile(server []models.Notification, acked AckSet) []models.Notification {
	out := make([]models.Notification, len(server))
	for i, n := range server {
		n.Read = n.Read || acked.Has(n.ID)
		out[i] = n
	}
	return out
}

// UnreadCount counts entries still unread.
func UnreadCount(items []models.Notification) int {
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count
}

// AckStore persists the acknowledgment set. It only ever grows.
type AckStore struct {
	kv  storage.Store
	log *logrus.Entry
	mu  sync.Mutex
}

func NewAckStore(kv storage.Store, logger *logrus.Logger) *AckStore {
	return &AckStore{kv: kv, log: componentLog(logger, "acknowledgments")}
}

// Load returns the persisted set; a missing or unreadable record is empty.
func (s *AckStore) Load(ctx context.Context) (AckSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *AckStore) load(ctx context.Context) (AckSet, error) {
	data, err := s.kv.Get(ctx, ackKey)
	if errors.Is(err, storage.ErrNotFound) {
		return NewAckSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load acknowledgments: %w", err)
	}
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		s.log.WithError(err).Warn("acknowledgment record is corrupt, starting empty")
		return NewAckSet(), nil
	}
	return NewAckSet(ids...), nil
}

// Add unions ids into the persisted set. It returns the new set and the ids
// that were not acknowledged before. Repeating a call changes nothing.
func (s *AckStore) Add(ctx context.Context, ids []int) (AckSet, []int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	next, added := current.Union(ids)
	if len(added) == 0 {
		return current, nil, nil
	}
	data, err := json.Marshal(next.IDs())
	if err != nil {
		return nil, nil, fmt.Errorf("encode acknowledgments: %w", err)
	}
	if err := s.kv.Put(ctx, ackKey, data); err != nil {
		return nil, nil, fmt.Errorf("save acknowledgments: %w", err)
	}
	return next, added, nil
}

// NotificationService keeps the working notification list with derived read
// state. The local acknowledgment set decides read state on this device.
type NotificationService struct {
	api        API
	acks       *AckStore
	syncServer bool
	log        *logrus.Entry

	mu    sync.RWMutex
	items []models.Notification
}

type NotificationOption func(*NotificationService)

// WithServerSync also marks newly acknowledged ids read on the server,
// best-effort.
func WithServerSync(enabled bool) NotificationOption {
	return func(s *NotificationService) { s.syncServer = enabled }
}

func NewNotificationService(api API, acks *AckStore, logger *logrus.Logger, opts ...NotificationOption) *NotificationService {
	s := &NotificationService{api: api, acks: acks, log: componentLog(logger, "notifications")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches notifications and reconciles them. Failures are logged and
// leave the previous list in place.
func (s *NotificationService) Refresh(ctx context.Context) []models.Notification {
	items, err := s.fetch(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load notifications")
		return s.Items()
	}
	acked, err := s.acks.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load notifications")
		return s.Items()
	}

	reconciled := Reconcile(items, acked)
	s.mu.Lock()
	s.items = reconciled
	s.mu.Unlock()
	return s.Items()
}

// Items returns a copy of the working list.
func (s *NotificationService) Items() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *NotificationService) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return UnreadCount(s.items)
}

// AcknowledgeAll records ids as read on this device and marks them read in
// the working list regardless of what the server said.
func (s *NotificationService) AcknowledgeAll(ctx context.Context, ids []int) error {
	_, added, err := s.acks.Add(ctx, ids)
	if err != nil {
		return err
	}

	marked := NewAckSet(ids...)
	s.mu.Lock()
	for i := range s.items {
		if marked.Has(s.items[i].ID) {
			s.items[i].Read = true
		}
	}
	s.mu.Unlock()

	if s.syncServer && len(added) > 0 {
		s.pushRead(persistentContext(ctx), added)
	}
	return nil
}

// AcknowledgeVisible acknowledges every notification in the working list.
func (s *NotificationService) AcknowledgeVisible(ctx context.Context) error {
	items := s.Items()
	ids := make([]int, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}
	return s.AcknowledgeAll(ctx, ids)
}

func (s *NotificationService) fetch(ctx context.Context) ([]models.Notification, error) {
	var raw json.RawMessage
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/notifications", nil, &raw); err != nil {
		return nil, err
	}
	return decodeNotifications(raw)
}

// decodeNotifications accepts a bare array or {"notifications": [...]}.
func decodeNotifications(raw []byte) ([]models.Notification, error) {
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		list = list.Get("notifications")
	}
	if !list.Exists() || list.Type == gjson.Null {
		return []models.Notification{}, nil
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("unexpected notifications payload")
	}
	var items []models.Notification
	if err := json.Unmarshal([]byte(list.Raw), &items); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) pushRead(ctx context.Context, ids []int) {
	for _, id := range ids {
		endpoint := fmt.Sprintf("/api/notifications/%d/read", id)
		if err := s.api.CallJSON(ctx, http.MethodPut, endpoint, nil, nil); err != nil {
			s.log.WithError(err).WithField("notification_id", id).Warn("failed to mark notification read on server")
		}
	}
}
