package services

import (
	"context"
	"errors"
	"fmt"

	"accountbook/internal/amqp"
	"accountbook/internal/core"
	"accountbook/internal/ledger"
)

// SettingsService resolves and updates the presentation settings.
type SettingsService struct {
	store ledger.SettingsStore
	notifier
}

func NewSettingsService(store ledger.SettingsStore, events ChangePublisher, reports Invalidator) *SettingsService {
	return &SettingsService{store: store, notifier: notifier{events: events, reports: reports}}
}

// Resolve returns the stored settings, or the defaults when none were ever
// saved. Defaults are not written back.
func (s *SettingsService) Resolve(ctx context.Context) (core.Settings, error) {
	st, err := s.store.GetSettings(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// Update applies a partial change on top of the resolved settings.
func (s *SettingsService) Update(ctx context.Context, u core.SettingsUpdate) (core.Settings, error) {
	current, err := s.Resolve(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	next, err := current.Apply(u)
	if err != nil {
		return core.Settings{}, err
	}
	if err := s.store.UpdateSettings(ctx, next); err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	s.changed(ctx, amqp.NewChangeMessage(amqp.EntitySettings, amqp.ActionUpdated, core.SettingsID))
	return next, nil
}
