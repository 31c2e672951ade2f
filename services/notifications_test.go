package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

func TestCreateRejectsMissingFields(t *testing.T) {
	store := &NotificationStore{}

	_, err := store.Create(context.Background(), 0, "new_message", "t", "m", nil, CreateOptions{Force: true})
	if !IsCategory(err, CategoryValidation) {
		t.Errorf("missing user id: category = %q, want validation", ErrorCategory(err))
	}

	_, err = store.Create(context.Background(), 1, "", "t", "m", nil, CreateOptions{Force: true})
	if !IsCategory(err, CategoryValidation) {
		t.Errorf("missing type: category = %q, want validation", ErrorCategory(err))
	}
}

func TestDuplicateMessageReusesLiveRow(t *testing.T) {
	existing := &models.Notification{Model: gorm.Model{ID: 12}, Type: models.NotificationNewMessage}

	reuse, done, err := resolveDuplicate(existing, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done || reuse == nil {
		t.Fatal("expected the existing row to satisfy the duplicate create")
	}
	if reuse.ID != 12 {
		t.Errorf("reused row ID = %d, want 12", reuse.ID)
	}
}

func TestDuplicateMessageStaysDeleted(t *testing.T) {
	deleted := &models.Notification{Model: gorm.Model{ID: 12}}
	deleted.DeletedAt = gorm.DeletedAt{Valid: true}

	reuse, done, err := resolveDuplicate(deleted, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatal("expected a deleted duplicate to suppress the create")
	}
	if reuse != nil {
		t.Errorf("deleted duplicate must not resurface, got row %d", reuse.ID)
	}
}

func TestNoDuplicateProceedsToCreate(t *testing.T) {
	reuse, done, err := resolveDuplicate(&models.Notification{}, gorm.ErrRecordNotFound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done || reuse != nil {
		t.Fatal("expected a missing duplicate to fall through to the insert")
	}

	boom := errors.New("connection reset")
	if _, _, err := resolveDuplicate(&models.Notification{}, boom); err != boom {
		t.Errorf("lookup failure must propagate, got %v", err)
	}
}

func TestTombstoneMaskResetsPastCap(t *testing.T) {
	members := make([]string, tombstoneCap+1)
	for i := range members {
		members[i] = "1"
	}
	if _, reset := maskFromMembers(members); !reset {
		t.Errorf("expected reset with %d members", len(members))
	}

	atCap := members[:tombstoneCap]
	ids, reset := maskFromMembers(atCap)
	if reset {
		t.Errorf("expected no reset with exactly %d members", tombstoneCap)
	}
	if len(ids) != tombstoneCap {
		t.Errorf("parsed %d ids, want %d", len(ids), tombstoneCap)
	}
}

func TestTombstoneMaskSkipsGarbageEntries(t *testing.T) {
	ids, reset := maskFromMembers([]string{"3", "not-a-number", "9"})
	if reset {
		t.Fatal("unexpected reset")
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 9 {
		t.Errorf("parsed ids = %v, want [3 9]", ids)
	}
}

func TestTombstoneKeyPerUser(t *testing.T) {
	if tombstoneKey(7) == tombstoneKey(8) {
		t.Error("tombstone keys must be distinct per user")
	}
	if got := tombstoneKey(42); got != "notif:tombstones:42" {
		t.Errorf("tombstoneKey(42) = %q", got)
	}
}
