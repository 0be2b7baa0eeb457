package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

func TestFindDue_FiltersByHourAndMinute(t *testing.T) {
	owner := linkedOwner()
	at10 := habitAt(10, 0, 1, owner)
	at11 := habitAt(11, 0, 1, owner)
	store := newFakeStore(at10, at11)

	e := NewEvaluator(store, moscow, testLogger())

	due, err := e.FindDue(context.Background(), at(2024, 1, 1, 10, 0).Add(30*time.Second))
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(due) != 1 || due[0].ID != at10.ID {
		t.Fatalf("expected only the 10:00 habit, got %d habits", len(due))
	}
}

func TestFindDue_NormalizesNowToLocalZone(t *testing.T) {
	store := newFakeStore()
	e := NewEvaluator(store, moscow, testLogger())

	// 07:15 UTC = 10:15 MSK
	if _, err := e.FindDue(context.Background(), time.Date(2024, 1, 1, 7, 15, 0, 0, time.UTC)); err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(store.lists) != 1 || store.lists[0] != [2]int{10, 15} {
		t.Errorf("expected lookup for 10:15, got %v", store.lists)
	}
}

func TestFindDue_SkipsInvalidFrequency(t *testing.T) {
	owner := linkedOwner()
	good := habitAt(10, 0, 1, owner)
	broken := habitAt(10, 0, 1, owner)
	broken.FrequencyDays = nil
	zero := habitAt(10, 0, 0, owner)

	e := NewEvaluator(newFakeStore(good, broken, zero), moscow, testLogger())

	due, err := e.FindDue(context.Background(), at(2024, 1, 1, 10, 0))
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(due) != 1 || due[0].ID != good.ID {
		t.Errorf("expected only the valid habit to be due, got %d", len(due))
	}
}

func TestFindDue_PreservesOrder(t *testing.T) {
	owner := linkedOwner()
	a, b, c := habitAt(8, 0, 1, owner), habitAt(8, 0, 1, owner), habitAt(8, 0, 1, owner)
	e := NewEvaluator(newFakeStore(a, b, c), moscow, testLogger())

	due, err := e.FindDue(context.Background(), at(2024, 1, 1, 8, 0))
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(due) != 3 || due[0].ID != a.ID || due[1].ID != b.ID || due[2].ID != c.ID {
		t.Error("due set must keep store order")
	}
}

func TestFindDue_ReadFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")

	e := NewEvaluator(store, moscow, testLogger())
	if _, err := e.FindDue(context.Background(), at(2024, 1, 1, 10, 0)); err == nil {
		t.Fatal("expected read error to propagate")
	}
}

func TestIsDue_Scenarios(t *testing.T) {
	e := NewEvaluator(newFakeStore(), moscow, testLogger())

	h := habitAt(10, 0, 1, nil)
	if !e.IsDue(&h, at(2024, 1, 1, 10, 0)) {
		t.Error("scenario A: first reminder should be due")
	}

	last := at(2024, 1, 1, 10, 0)
	h.LastReminder = &last
	if e.IsDue(&h, at(2024, 1, 1, 10, 0)) {
		t.Error("scenario B: same minute should not be due")
	}

	h.FrequencyDays = domain.IntPtr(2)
	if e.IsDue(&h, at(2024, 1, 2, 10, 0)) {
		t.Error("scenario C: one day elapsed should not be due")
	}
	if !e.IsDue(&h, at(2024, 1, 3, 10, 0)) {
		t.Error("scenario C: two days elapsed should be due")
	}
}
