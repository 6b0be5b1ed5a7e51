package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/molkiya/spectra/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		ReadTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, time.Hour)
}

func sampleSession(id string) *models.Session {
	return &models.Session{
		ID:            id,
		Phase:         models.PhaseVault,
		TimeRemaining: 120,
		DecisionsMade: 2,
		Score:         15,
		History: []models.ConversationEntry{
			{Role: models.RolePlayer, Text: "node A"},
		},
		Active:       true,
		SignalBuffer: []models.SensorSignal{},
	}
}

// backends runs the same assertions against every Backend implementation.
func backends(t *testing.T) map[string]Backend {
	_, rs := newTestRedis(t)
	return map[string]Backend{
		"memory": NewMemoryStorage(),
		"redis":  rs,
	}
}

func TestBackend_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSession("s1")
			if err := b.SaveSession(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := b.LoadSession(ctx, "s1")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Phase != want.Phase || got.Score != want.Score || got.TimeRemaining != want.TimeRemaining {
				t.Errorf("loaded %+v, want %+v", got, want)
			}
			if len(got.History) != 1 || got.History[0].Text != "node A" {
				t.Errorf("history not preserved: %+v", got.History)
			}

			// mutating the caller copy must not leak into the store
			want.Score = 999
			again, _ := b.LoadSession(ctx, "s1")
			if again.Score != 15 {
				t.Errorf("store shares memory with caller, score = %d", again.Score)
			}

			if _, err := b.LoadSession(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}
		})
	}
}

func TestBackend_TimelineOrderingAndAmend(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, ts := range []int64{300, 100, 200} {
				entry := models.TimelineEntry{T: ts, Phase: models.PhaseInfiltrate, Stress: 0.5, Focus: 0.25}
				if err := b.AppendTimeline(ctx, "s1", entry); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			if err := b.AmendLatestAdaptation(ctx, "s1", models.AdaptationVoiceCalmed); err != nil {
				t.Fatalf("amend: %v", err)
			}

			entries, err := b.ReadTimeline(ctx, "s1")
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("expected 3 entries, got %d", len(entries))
			}
			for i, want := range []int64{100, 200, 300} {
				if entries[i].T != want {
					t.Errorf("entry %d: t = %d, want %d", i, entries[i].T, want)
				}
			}
			if entries[2].Adaptation != models.AdaptationVoiceCalmed {
				t.Errorf("latest entry not amended: %+v", entries[2])
			}
			if entries[0].Adaptation != models.AdaptationNone || entries[1].Adaptation != models.AdaptationNone {
				t.Errorf("older entries must keep no adaptation: %+v", entries[:2])
			}
		})
	}
}

func TestBackend_AmendEmptyTimeline(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := b.AmendLatestAdaptation(ctx, "nobody", models.AdaptationUISimplified); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			entries, err := b.ReadTimeline(ctx, "nobody")
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("expected empty timeline, got %d entries", len(entries))
			}
		})
	}
}

func TestBackend_DeleteRemovesEverything(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.SaveSession(ctx, sampleSession("s1"))
			_ = b.AppendTimeline(ctx, "s1", models.TimelineEntry{T: 1, Phase: models.PhaseInfiltrate})
			_ = b.SavePreviousOutput(ctx, "s1", models.PreviousOutput{UI: models.DefaultUI(), VoiceStyle: models.VoiceNeutral})

			if err := b.DeleteSession(ctx, "s1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := b.LoadSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("session still present: %v", err)
			}
			if _, err := b.LoadPreviousOutput(ctx, "s1"); !errors.Is(err, ErrPreviousOutputNotFound) {
				t.Errorf("previous output still present: %v", err)
			}
			entries, _ := b.ReadTimeline(ctx, "s1")
			if len(entries) != 0 {
				t.Errorf("timeline still present: %d entries", len(entries))
			}
		})
	}
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	ctx := context.Background()
	mr, rs := newTestRedis(t)

	_ = rs.SaveSession(ctx, sampleSession("abc"))
	_ = rs.AppendTimeline(ctx, "abc", models.TimelineEntry{T: 1740153600000, Phase: models.PhaseInfiltrate})
	_ = rs.SavePreviousOutput(ctx, "abc", models.PreviousOutput{UI: models.DefaultUI(), VoiceStyle: models.VoiceNeutral})

	for _, key := range []string{"session:abc:state", "session:abc:timeline", "session:abc:ui_prev"} {
		if !mr.Exists(key) {
			t.Errorf("expected key %s", key)
			continue
		}
		if ttl := mr.TTL(key); ttl != time.Hour {
			t.Errorf("key %s ttl = %v, want 1h", key, ttl)
		}
	}

	mr.FastForward(2 * time.Hour)
	if _, err := rs.LoadSession(ctx, "abc"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session to expire, got %v", err)
	}
}

func TestFallbackStore_RemoteOutage(t *testing.T) {
	ctx := context.Background()
	mr, rs := newTestRedis(t)
	store := NewFallbackStore(rs, NewMemoryStorage(), nil)

	mr.Close()

	session := sampleSession("s1")
	store.Save(ctx, session)
	got, ok := store.Load(ctx, "s1")
	if !ok {
		t.Fatal("expected session from in-process fallback")
	}
	if got.Score != session.Score {
		t.Errorf("score = %d, want %d", got.Score, session.Score)
	}

	store.AppendTimelineEntry(ctx, "s1", models.TimelineEntry{T: 10, Phase: models.PhaseVault})
	store.AmendLatestTimelineAdaptation(ctx, "s1", models.AdaptationFullDashboard)
	entries := store.ReadTimeline(ctx, "s1")
	if len(entries) != 1 || entries[0].Adaptation != models.AdaptationFullDashboard {
		t.Errorf("unexpected fallback timeline: %+v", entries)
	}

	store.SavePreviousOutput(ctx, "s1", models.PreviousOutput{UI: models.DefaultUI(), VoiceStyle: models.VoiceUrgent})
	prev, ok := store.LoadPreviousOutput(ctx, "s1")
	if !ok || prev.VoiceStyle != models.VoiceUrgent {
		t.Errorf("unexpected previous output: %+v ok=%v", prev, ok)
	}
}

func TestFallbackStore_NoRemote(t *testing.T) {
	ctx := context.Background()
	store := NewFallbackStore(nil, nil, nil)

	if store.Remote() {
		t.Error("expected no remote backend")
	}
	if _, ok := store.Load(ctx, "missing"); ok {
		t.Error("expected missing session")
	}
	if _, ok := store.LoadPreviousOutput(ctx, "missing"); ok {
		t.Error("expected missing previous output")
	}
	if entries := store.ReadTimeline(ctx, "missing"); entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil timeline, got %v", entries)
	}

	store.Save(ctx, sampleSession("s1"))
	store.Delete(ctx, "s1")
	if _, ok := store.Load(ctx, "s1"); ok {
		t.Error("expected session to be deleted")
	}
}

func TestFallbackStore_PrefersRemote(t *testing.T) {
	ctx := context.Background()
	mr, rs := newTestRedis(t)
	local := NewMemoryStorage()
	store := NewFallbackStore(rs, local, nil)

	store.Save(ctx, sampleSession("s1"))

	if !mr.Exists("session:s1:state") {
		t.Error("expected session written to remote")
	}
	if _, err := local.LoadSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected local untouched while remote is healthy, got %v", err)
	}
}
