// Package settings serves the registration and maintenance switches that
// gate public pages. Reads go through a short-lived cache and fail closed.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"eventpass-backend/models"
)

const DefaultTTL = 5 * time.Second

var ErrNoChanges = errors.New("no settings to update")

// closed is served whenever the settings cannot be read.
var closed = models.PublicStatus{RegistrationEnabled: false, MaintenanceMode: true}

type Source interface {
	ListSettings(ctx context.Context) ([]models.SystemSetting, error)
	UpsertSettings(ctx context.Context, settings []models.SystemSetting) error
}

type Cache interface {
	Get(ctx context.Context) (models.PublicStatus, bool)
	Set(ctx context.Context, status models.PublicStatus)
	Invalidate(ctx context.Context)
}

type Gate struct {
	source Source
	cache  Cache
	log    *zerolog.Logger
}

func NewGate(source Source, cache Cache, logger *zerolog.Logger) *Gate {
	if cache == nil {
		cache = NewMemoryCache(DefaultTTL)
	}
	return &Gate{source: source, cache: cache, log: logger}
}

// PublicStatus never fails. Missing keys and read errors resolve to
// registration closed and maintenance on.
func (g *Gate) PublicStatus(ctx context.Context) models.PublicStatus {
	if status, ok := g.cache.Get(ctx); ok {
		return status
	}

	list, err := g.source.ListSettings(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("settings unavailable, serving closed status")
		return closed
	}

	status := statusFrom(list)
	g.cache.Set(ctx, status)
	return status
}

// RegistrationOpen reports whether new registrations are accepted right now.
func (g *Gate) RegistrationOpen(ctx context.Context) bool {
	status := g.PublicStatus(ctx)
	return status.RegistrationEnabled && !status.MaintenanceMode
}

func (g *Gate) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	list, err := g.source.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &models.SystemStatus{PublicStatus: statusFrom(list), Settings: list}, nil
}

func (g *Gate) Update(ctx context.Context, req models.UpdateStatusRequest) (*models.SystemStatus, error) {
	if req.Empty() {
		return nil, ErrNoChanges
	}

	var changes []models.SystemSetting
	if req.RegistrationEnabled != nil {
		changes = append(changes, models.SystemSetting{
			Key:   models.SettingRegistrationOpen,
			Value: strconv.FormatBool(*req.RegistrationEnabled),
		})
	}
	if req.MaintenanceMode != nil {
		changes = append(changes, models.SystemSetting{
			Key:   models.SettingMaintenanceMode,
			Value: strconv.FormatBool(*req.MaintenanceMode),
		})
	}

	if err := g.source.UpsertSettings(ctx, changes); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	g.cache.Invalidate(ctx)

	for _, c := range changes {
		g.log.Info().Str("key", c.Key).Str("value", c.Value).Msg("system setting updated")
	}
	return g.SystemStatus(ctx)
}

func statusFrom(list []models.SystemSetting) models.PublicStatus {
	status := closed
	for _, st := range list {
		v, err := strconv.ParseBool(st.Value)
		if err != nil {
			continue
		}
		switch st.Key {
		case models.SettingRegistrationOpen:
			status.RegistrationEnabled = v
		case models.SettingMaintenanceMode:
			status.MaintenanceMode = v
		}
	}
	return status
}
