// Package notifications stores per-user and broadcast messages shown in the
// platform inbox.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/id"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	store store.Store
	log   *zap.Logger

	mu    sync.RWMutex
	items map[string]*model.Notification
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{
		store: st,
		log:   log,
		items: make(map[string]*model.Notification),
	}
}

func (s *Service) Init(ctx context.Context) error {
	docs, err := s.store.Load(ctx, store.CollectionNotifications)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for nid, doc := range docs {
		var n model.Notification
		if err := json.Unmarshal(doc, &n); err != nil {
			return fmt.Errorf("decode notification %s: %w", nid, err)
		}
		s.items[n.ID] = &n
	}
	return nil
}

// Notify stores a message for one user, or for everyone when userID is
// model.BroadcastUserID.
func (s *Service) Notify(ctx context.Context, userID, title, message string) (*model.Notification, error) {
	n := &model.Notification{
		ID:        id.New(),
		UserID:    userID,
		Title:     title,
		Body:      message,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.items[n.ID] = n
	s.mu.Unlock()

	if err := s.flush(ctx, n); err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// ListForUser returns the user's notifications plus broadcasts, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) []*model.Notification {
	s.mu.RLock()
	out := make([]*model.Notification, 0, 8)
	for _, n := range s.items {
		if n.UserID == userID || n.UserID == model.BroadcastUserID {
			out = append(out, n.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MarkRead flags a notification as read. Broadcasts can be marked by any
// recipient; personal notifications only by their owner.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	s.mu.Lock()
	n := s.items[notificationID]
	if n == nil || (n.UserID != userID && n.UserID != model.BroadcastUserID) {
		s.mu.Unlock()
		return ErrNotFound
	}
	n.Read = true
	clone := n.Clone()
	s.mu.Unlock()
	return s.flush(ctx, clone)
}

func (s *Service) flush(ctx context.Context, n *model.Notification) error {
	doc, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: encode notification: %v", store.ErrPersistence, err)
	}
	if err := s.store.Put(ctx, store.CollectionNotifications, n.ID, doc); err != nil {
		s.log.Error("notification flush failed", zap.String("notification_id", n.ID), zap.Error(err))
		return err
	}
	return nil
}
