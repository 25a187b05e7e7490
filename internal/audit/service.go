/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/models"
)

// Service persists audit entries for domain events published on the bus.
type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Start subscribes to auditable events and records them until ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Msg("audit service starting")

	subs := make([]events.Subscriber, len(events.AuditTypes))
	for i, eventType := range events.AuditTypes {
		subs[i] = s.bus.Subscribe(eventType)
	}
	defer func() {
		for i, eventType := range events.AuditTypes {
			s.bus.Unsubscribe(eventType, subs[i])
		}
	}()

	cases := make([]reflect.SelectCase, 0, len(subs)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, sub := range subs {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(sub)})
	}

	for {
		chosen, value, ok := reflect.Select(cases)
		if chosen == 0 {
			s.logger.Info().Msg("audit service stopping")
			return
		}
		if !ok {
			continue
		}
		payload, ok := value.Interface().(events.Payload)
		if !ok {
			continue
		}
		s.record(events.AuditTypes[chosen-1], payload)
	}
}

func (s *Service) record(eventType events.EventType, payload events.Payload) {
	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		Action:    string(eventType),
		CreatedAt: time.Now(),
	}
	if v, ok := payload["user_id"].(string); ok {
		entry.UserID = v
	}
	if v, ok := payload["resource_type"].(string); ok {
		entry.ResourceType = v
	}
	if v, ok := payload["resource_id"].(string); ok {
		entry.ResourceID = v
	}
	if v, ok := payload["ip_address"].(string); ok {
		entry.IPAddress = v
	}
	if detail, err := json.Marshal(payload); err == nil {
		entry.Detail = string(detail)
	}

	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("persist audit entry failed")
	}
}
