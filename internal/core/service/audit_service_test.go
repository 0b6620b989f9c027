package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/core/domain"
)

type stubAuditRepo struct {
	insertErr error
	inserted  []*domain.AuditEvent
	limits    []int
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func (r *stubAuditRepo) Recent(_ context.Context, limit int) ([]*domain.AuditEvent, error) {
	r.limits = append(r.limits, limit)
	return r.inserted, nil
}

func TestAuditService_Process_StampsEvent(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	err := svc.Process(context.Background(), domain.AuditEvent{SessionID: sid, Kind: domain.AuditLogin})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
	got := repo.inserted[0]
	if got.ID == "" {
		t.Fatalf("event id must be assigned")
	}
	if got.At.IsZero() {
		t.Fatalf("event time must be assigned")
	}
}

func TestAuditService_Process_KeepsGivenFields(t *testing.T) {
	repo := &stubAuditRepo{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = NewAuditService(repo, zerolog.Nop()).Process(context.Background(),
		domain.AuditEvent{ID: "fixed", SessionID: sid, Kind: domain.AuditLogout, At: at})

	if repo.inserted[0].ID != "fixed" || !repo.inserted[0].At.Equal(at) {
		t.Fatalf("given id and time must be kept, got %+v", repo.inserted[0])
	}
}

func TestAuditService_Process_InsertError(t *testing.T) {
	repo := &stubAuditRepo{insertErr: errors.New("mongo down")}
	err := NewAuditService(repo, zerolog.Nop()).Process(context.Background(), domain.AuditEvent{Kind: domain.AuditLogin})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestAuditService_Recent_ClampsLimit(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	_, _ = svc.Recent(context.Background(), 0)
	_, _ = svc.Recent(context.Background(), 10)
	_, _ = svc.Recent(context.Background(), 10_000)

	want := []int{defaultAuditLimit, 10, maxAuditLimit}
	for i, w := range want {
		if repo.limits[i] != w {
			t.Fatalf("call %d: limit %d, want %d", i, repo.limits[i], w)
		}
	}
}
