package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eventpass-backend/models"
)

type fakeSource struct {
	values map[string]string
	err    error
	reads  int
}

func (f *fakeSource) ListSettings(context.Context) ([]models.SystemSetting, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	var list []models.SystemSetting
	for k, v := range f.values {
		list = append(list, models.SystemSetting{Key: k, Value: v})
	}
	return list, nil
}

func (f *fakeSource) UpsertSettings(_ context.Context, changes []models.SystemSetting) error {
	if f.err != nil {
		return f.err
	}
	for _, c := range changes {
		f.values[c.Key] = c.Value
	}
	return nil
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func openSource() *fakeSource {
	return &fakeSource{values: map[string]string{
		models.SettingRegistrationOpen: "true",
		models.SettingMaintenanceMode:  "false",
	}}
}

func TestPublicStatusOpen(t *testing.T) {
	g := NewGate(openSource(), NewMemoryCache(time.Minute), nopLogger())
	status := g.PublicStatus(context.Background())
	if !status.RegistrationEnabled || status.MaintenanceMode {
		t.Fatalf("unexpected status: %+v", status)
	}
	if !g.RegistrationOpen(context.Background()) {
		t.Fatalf("expected registration to be open")
	}
}

func TestPublicStatusFailsClosed(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	g := NewGate(src, NewMemoryCache(time.Minute), nopLogger())

	status := g.PublicStatus(context.Background())
	if status.RegistrationEnabled || !status.MaintenanceMode {
		t.Fatalf("expected closed status on failure, got %+v", status)
	}
	g.PublicStatus(context.Background())
	if src.reads != 2 {
		t.Fatalf("expected failures not to be cached, got %d reads", src.reads)
	}
	if g.RegistrationOpen(context.Background()) {
		t.Fatalf("expected registration to be closed")
	}
}

func TestPublicStatusMissingKeys(t *testing.T) {
	g := NewGate(&fakeSource{values: map[string]string{}}, NewMemoryCache(time.Minute), nopLogger())
	status := g.PublicStatus(context.Background())
	if status.RegistrationEnabled || !status.MaintenanceMode {
		t.Fatalf("expected missing keys to resolve closed, got %+v", status)
	}

	g = NewGate(&fakeSource{values: map[string]string{models.SettingRegistrationOpen: "true"}}, NewMemoryCache(time.Minute), nopLogger())
	status = g.PublicStatus(context.Background())
	if !status.RegistrationEnabled || !status.MaintenanceMode {
		t.Fatalf("expected missing maintenance key to mean maintenance, got %+v", status)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	src := openSource()
	cache := NewMemoryCache(5 * time.Second)
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	g := NewGate(src, cache, nopLogger())

	g.PublicStatus(context.Background())
	g.PublicStatus(context.Background())
	if src.reads != 1 {
		t.Fatalf("expected cached read, got %d reads", src.reads)
	}

	now = now.Add(5 * time.Second)
	g.PublicStatus(context.Background())
	if src.reads != 2 {
		t.Fatalf("expected refresh after ttl, got %d reads", src.reads)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	src := openSource()
	g := NewGate(src, NewMemoryCache(time.Hour), nopLogger())
	g.PublicStatus(context.Background())

	off := false
	on := true
	sys, err := g.Update(context.Background(), models.UpdateStatusRequest{
		RegistrationEnabled: &off,
		MaintenanceMode:     &on,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.RegistrationEnabled || !sys.MaintenanceMode || len(sys.Settings) != 2 {
		t.Fatalf("unexpected system status: %+v", sys)
	}

	status := g.PublicStatus(context.Background())
	if status.RegistrationEnabled || !status.MaintenanceMode {
		t.Fatalf("expected update to be visible immediately, got %+v", status)
	}

	if _, err := g.Update(context.Background(), models.UpdateStatusRequest{}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestSystemStatusPropagatesErrors(t *testing.T) {
	g := NewGate(&fakeSource{err: errors.New("down")}, nil, nopLogger())
	if _, err := g.SystemStatus(context.Background()); err == nil {
		t.Fatalf("expected error from SystemStatus")
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := openSource()
	g := NewGate(src, NewRedisCache(client, 5*time.Second, nopLogger()), nopLogger())

	g.PublicStatus(context.Background())
	g.PublicStatus(context.Background())
	if src.reads != 1 {
		t.Fatalf("expected second read from redis, got %d reads", src.reads)
	}

	// A second instance sharing the same redis sees the cached value.
	other := NewGate(&fakeSource{err: errors.New("down")}, NewRedisCache(client, 5*time.Second, nopLogger()), nopLogger())
	if status := other.PublicStatus(context.Background()); !status.RegistrationEnabled {
		t.Fatalf("expected shared cached status, got %+v", status)
	}

	mr.FastForward(6 * time.Second)
	g.PublicStatus(context.Background())
	if src.reads != 2 {
		t.Fatalf("expected refresh after redis ttl, got %d reads", src.reads)
	}
}

func TestRedisCacheErrorsAreMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.SetError("ERR cache disabled")

	src := openSource()
	g := NewGate(src, NewRedisCache(client, time.Minute, nopLogger()), nopLogger())
	status := g.PublicStatus(context.Background())
	if !status.RegistrationEnabled || status.MaintenanceMode {
		t.Fatalf("expected database value when redis fails, got %+v", status)
	}
}
