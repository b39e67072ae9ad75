package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"sabohub/internal/apperr"
	"sabohub/internal/models"
)

func TestRecord_FirstPingIsInitial(t *testing.T) {
	f := newFixture()
	pub := &recordingPublisher{}

	ping, err := f.locationService(pub).Record(context.Background(), f.rep, LocationInput{Latitude: 10.77, Longitude: 106.70})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if ping.EventType != "initial" || ping.RepID != f.rep.UserID || ping.CompanyID != f.company {
		t.Errorf("ping = %+v", ping)
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d pings, want 1", len(pub.published))
	}
}

func TestRecord_RetriedPingIsStoredOnce(t *testing.T) {
	f := newFixture()
	pub := &recordingPublisher{}
	svc := f.locationService(pub)
	ctx := context.Background()
	id := uuid.New()
	in := LocationInput{ClientPingID: &id, Latitude: 10.77, Longitude: 106.70}

	first, err := svc.Record(ctx, f.rep, in)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	f.clock.Advance(5 * time.Second)
	second, err := svc.Record(ctx, f.rep, in)
	if err != nil {
		t.Fatalf("retried Record() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("retry returned id %d, want %d", second.ID, first.ID)
	}
	if len(f.locations.pings) != 1 {
		t.Errorf("stored %d pings, want 1", len(f.locations.pings))
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d pings, want 1", len(pub.published))
	}
}

func TestRecord_Validation(t *testing.T) {
	f := newFixture()
	svc := f.locationService(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   LocationInput
	}{
		{"latitude out of range", LocationInput{Latitude: 91, Longitude: 0}},
		{"longitude out of range", LocationInput{Latitude: 0, Longitude: -181}},
		{"battery over 100", LocationInput{Latitude: 1, Longitude: 1, BatteryLevel: ptr(120)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Record(ctx, f.rep, tt.in); !apperr.IsValidation(err) {
				t.Errorf("Record() error = %v, want validation", err)
			}
		})
	}
}

func TestRecord_ForeignJourneyForbidden(t *testing.T) {
	f := newFixture()
	route := f.seedRoute([2]float64{1, 1})
	plan := createPlan(t, f, route)

	_, err := f.locationService(nil).Record(context.Background(), f.manager, LocationInput{
		JourneyPlanID: &plan.ID, Latitude: 1, Longitude: 1,
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Record() error = %v, want ErrForbidden", err)
	}
}

func TestAnnotateMovement(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	moving := &models.LocationPing{ID: 1, Latitude: 10, Longitude: 106, IsMoving: true, RecordedAt: base}
	still := &models.LocationPing{ID: 1, Latitude: 10, Longitude: 106, RecordedAt: base}

	tests := []struct {
		name       string
		last       *models.LocationPing
		lat        float64
		speed      float64
		after      time.Duration
		wantEvent  string
		wantMoving bool
	}{
		{"no previous ping", nil, 10, 0, 0, "initial", false},
		{"moved far enough", still, 10.001, 0, 30 * time.Second, "move", true},
		{"came to a stop", moving, 10, 0, 30 * time.Second, "stopped", false},
		{"started moving", still, 10, 2, 30 * time.Second, "started", true},
		{"periodic heartbeat", still, 10, 0, 2 * time.Minute, "periodic", false},
		{"stationary", still, 10, 0, 5 * time.Second, "stationary", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ping := &models.LocationPing{Latitude: tt.lat, Longitude: 106, Speed: ptr(tt.speed), RecordedAt: base.Add(tt.after)}
			annotateMovement(ping, tt.last)
			if ping.EventType != tt.wantEvent {
				t.Errorf("EventType = %q, want %q", ping.EventType, tt.wantEvent)
			}
			if ping.IsMoving != tt.wantMoving {
				t.Errorf("IsMoving = %v, want %v", ping.IsMoving, tt.wantMoving)
			}
		})
	}
}

func TestRecent_LimitAndOwnership(t *testing.T) {
	f := newFixture()
	svc := f.locationService(nil)
	ctx := context.Background()

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultRecentLimit},
		{-3, DefaultRecentLimit},
		{10, 10},
		{10000, MaxRecentLimit},
	}
	for _, tt := range tests {
		if _, err := svc.Recent(ctx, f.rep, f.rep.UserID, tt.limit); err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.limit, err)
		}
		if f.locations.lastLimit != tt.want {
			t.Errorf("Recent(%d) used limit %d, want %d", tt.limit, f.locations.lastLimit, tt.want)
		}
	}

	if _, err := svc.Recent(ctx, f.rep, f.manager.UserID, 10); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Recent() for another rep error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Recent(ctx, f.manager, f.rep.UserID, 10); err != nil {
		t.Errorf("manager Recent() error = %v", err)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	f := newFixture()
	svc := f.locationService(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Record(ctx, f.rep, LocationInput{Latitude: float64(i), Longitude: 0}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		f.clock.Advance(time.Minute)
	}
	got, err := svc.Recent(ctx, f.rep, f.rep.UserID, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].Latitude != 2 || got[1].Latitude != 1 {
		t.Errorf("Recent() = %+v, want latitudes 2,1", got)
	}
}
