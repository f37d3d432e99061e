package claim

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"claimflow/test/infra"
)

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func TestPGStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	if !dockerAvailable(ctx) {
		t.Skip("docker unavailable; skipping Postgres integration test")
	}

	h, err := infra.NewHarness(ctx)
	if err != nil {
		t.Fatalf("start harness: %v", err)
	}
	defer h.Close(context.Background())

	store := NewPGStore(h.Pool())

	notes := "worked the evening lab session"
	docPath := "/uploads/3f2c9a.pdf"
	submitted := time.Date(2025, 4, 7, 16, 45, 0, 0, time.UTC)

	c := Claim{
		LecturerName:           "Dr. Naidoo",
		HoursWorked:            decimal.RequireFromString("7.25"),
		HourlyRate:             decimal.RequireFromString("333.33"),
		SupportingDocumentPath: &docPath,
		Notes:                  &notes,
		Status:                 StatusPending,
		DateSubmitted:          submitted,
	}

	inserted, err := store.Insert(ctx, c)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", inserted.ID)
	}

	second, err := store.Insert(ctx, c)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if second.ID <= inserted.ID {
		t.Fatalf("expected increasing ids, got %d then %d", inserted.ID, second.ID)
	}

	got, err := store.Get(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.HoursWorked.Equal(c.HoursWorked) || !got.HourlyRate.Equal(c.HourlyRate) {
		t.Fatalf("decimals did not round-trip: %s / %s", got.HoursWorked, got.HourlyRate)
	}
	if !got.TotalAmount().Equal(decimal.RequireFromString("2416.64")) {
		t.Fatalf("unexpected total: %s", got.TotalAmount())
	}
	if got.SupportingDocumentPath == nil || *got.SupportingDocumentPath != docPath {
		t.Fatalf("document path did not round-trip: %v", got.SupportingDocumentPath)
	}
	if !got.DateSubmitted.Equal(submitted) {
		t.Fatalf("expected date %s, got %s", submitted, got.DateSubmitted)
	}

	updated, err := store.Update(ctx, inserted.ID, func(cl *Claim) error {
		cl.Status = StatusApproved
		verifiedBy := ActorAutoVerifier
		cl.VerifiedBy = &verifiedBy
		verifiedAt := submitted.Add(time.Hour)
		cl.VerifiedDate = &verifiedAt
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusApproved || updated.VerifiedBy == nil || *updated.VerifiedBy != ActorAutoVerifier {
		t.Fatalf("update not applied: %+v", updated)
	}

	persisted, err := store.Get(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if persisted.Status != StatusApproved {
		t.Fatalf("expected persisted Approved, got %s", persisted.Status)
	}

	if _, err := store.Get(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Update(ctx, 99999, func(cl *Claim) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	pending, err := store.ListByStatus(ctx, StatusPending)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("unexpected pending subset: %+v", pending)
	}

	if err := h.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list after reset: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty table after reset, got %d rows", len(all))
	}
}
