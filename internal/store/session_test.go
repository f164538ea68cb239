package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/puppet/internal/retarget"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

func TestSessionRepository_CreateAssignsID(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Source: "websocket"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", sess.ID, err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set after create")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Source != "websocket" {
		t.Errorf("Source = %q, want websocket", got.Source)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil for a running session", got.EndedAt)
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Source: "camera"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := repo.End(sess.ID, 1234); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Frames != 1234 {
		t.Errorf("Frames = %d, want 1234", got.Frames)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should be set after End")
	}

	if err := repo.End("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("End(missing) = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		sess := &Session{
			ID:        []string{"a", "b", "c"}[i],
			Source:    "websocket",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(sess); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("order = %s,%s,%s, want c,b,a", all[0].ID, all[1].ID, all[2].ID)
	}

	recent, err := repo.List(2)
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len = %d, want 2", len(recent))
	}
}

func TestSessionRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Sessions().GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID = %v, want ErrNotFound", err)
	}
	if err := s.Sessions().Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete = %v, want ErrNotFound", err)
	}
}

func TestCalibrationRepository_SaveAndList(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Source: "websocket"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	snap := retarget.Snapshot{
		TrackedWrist: mgl64.Vec3{0.3, 1.2, -0.3},
		TrackedHead:  mgl64.Vec3{0, 1.6, 0},
		AvatarWrist:  mgl64.Vec3{-0.45, 1.39, -0.27},
		AvatarHead:   mgl64.Vec3{0, 1.5, 0},
		AvatarTarget: mgl64.Vec3{-0.45, 1.39, -0.27},
		Ratio:        mgl64.Vec3{1.5, 0.275, 0.9},
		CapturedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	repo := s.Calibrations()
	if err := repo.Save(sess.ID, tracking.Right, snap); err != nil {
		t.Fatalf("failed to save calibration: %v", err)
	}

	// Saving the same side again replaces the row.
	snap.Ratio[0] = 1.6
	if err := repo.Save(sess.ID, tracking.Right, snap); err != nil {
		t.Fatalf("failed to save calibration: %v", err)
	}
	if err := repo.Save(sess.ID, tracking.Left, snap); err != nil {
		t.Fatalf("failed to save calibration: %v", err)
	}

	got, err := repo.ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list calibrations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Side != "left" || got[1].Side != "right" {
		t.Errorf("sides = %s,%s, want left,right", got[0].Side, got[1].Side)
	}
	right := got[1].Snapshot
	if right.Ratio != snap.Ratio || right.TrackedWrist != snap.TrackedWrist {
		t.Errorf("snapshot = %+v, want %+v", right, snap)
	}
	if !right.CapturedAt.Equal(snap.CapturedAt) {
		t.Errorf("CapturedAt = %v, want %v", right.CapturedAt, snap.CapturedAt)
	}
}

func TestCalibrationRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Source: "websocket"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := s.Calibrations().Save(sess.ID, tracking.Right, retarget.Snapshot{}); err != nil {
		t.Fatalf("failed to save calibration: %v", err)
	}
	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	got, err := s.Calibrations().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list calibrations: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("calibrations should be deleted with their session, got %d", len(got))
	}
}

func TestCalibrationRepository_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	if err := s.Calibrations().Save("missing", tracking.Left, retarget.Snapshot{}); err == nil {
		t.Error("saving a calibration for an unknown session should fail")
	}
}
