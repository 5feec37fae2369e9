package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-watchface/internal/weather"
)

type recordingSyncer struct {
	mu   sync.Mutex
	keys []string
}

func (s *recordingSyncer) FetchAndPublish(ctx context.Context, loc weather.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	s.keys = append(s.keys, loc.Key())
	if loc.City == "Nowhere" {
		return errors.New("not found")
	}
	return nil
}

func TestCompanionSyncWithoutLocations(t *testing.T) {
	j := NewJobs(time.UTC)
	if err := j.CompanionSync(&recordingSyncer{}, nil, time.Minute); err != nil {
		t.Fatalf("CompanionSync: %v", err)
	}
	if j.Len() != 0 {
		t.Fatalf("Len = %d, want 0", j.Len())
	}
}

func TestJobsRegister(t *testing.T) {
	j := NewJobs(time.UTC)
	if err := j.TimeTick(func() {}); err != nil {
		t.Fatalf("TimeTick: %v", err)
	}
	locs := []weather.Location{{City: "Lisbon", Country: "PT"}}
	if err := j.CompanionSync(&recordingSyncer{}, locs, 0); err != nil {
		t.Fatalf("CompanionSync: %v", err)
	}
	if j.Len() != 2 {
		t.Fatalf("Len = %d, want 2", j.Len())
	}
}

func TestSyncAllVisitsEveryLocation(t *testing.T) {
	j := NewJobs(time.UTC)
	s := &recordingSyncer{}
	j.syncAll(s, []weather.Location{
		{City: "Lisbon", Country: "PT"},
		{City: "Nowhere", Country: "XX"},
	})

	sort.Strings(s.keys)
	if len(s.keys) != 2 || s.keys[0] != "Lisbon:PT" || s.keys[1] != "Nowhere:XX" {
		t.Fatalf("synced %v", s.keys)
	}
}
