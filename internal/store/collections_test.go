package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

func strPtr(s string) *string { return &s }

func TestTeamCRUD(t *testing.T) {
	ts := NewTeamStore(setupKV(t))
	ctx := context.Background()

	// Create
	m, err := ts.Create(ctx, "Ana", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" {
		t.Error("expected an id")
	}
	if m.Color != model.DefaultMemberColor {
		t.Errorf("color = %q, want %q", m.Color, model.DefaultMemberColor)
	}

	// Get
	got, err := ts.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Ana" {
		t.Fatalf("got %+v, want Ana", got)
	}

	// Update
	updated, err := ts.Update(ctx, m.ID, model.TeamMemberPatch{Color: strPtr("#FF0000")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Color != "#FF0000" || updated.Name != "Ana" {
		t.Errorf("updated = %+v", updated)
	}

	// Delete
	removed, err := ts.Delete(ctx, m.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Error("expected removal")
	}
	got, err = ts.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestTeamMissing(t *testing.T) {
	ts := NewTeamStore(setupKV(t))
	ctx := context.Background()

	got, err := ts.Update(ctx, "nope", model.TeamMemberPatch{Name: strPtr("X")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown id")
	}

	removed, err := ts.Delete(ctx, "nope")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed {
		t.Error("expected nothing removed")
	}
}

func TestDeleteMemberLeavesChores(t *testing.T) {
	kv := setupKV(t)
	ts := NewTeamStore(kv)
	cs := NewChoreStore(kv)
	ctx := context.Background()

	m, _ := ts.Create(ctx, "Ana", "#112233")
	c, _ := cs.Create(ctx, "Dishes", "", model.Assignee(m.ID), time.Now())

	if _, err := ts.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	got, err := cs.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got == nil {
		t.Fatal("chore should survive member deletion")
	}
	if got.AssignedTo == nil || *got.AssignedTo != m.ID {
		t.Errorf("assigned_to = %v, want dangling %q", got.AssignedTo, m.ID)
	}
}

func TestChoreCRUD(t *testing.T) {
	cs := NewChoreStore(setupKV(t))
	ctx := context.Background()
	due := time.Date(2026, 2, 4, 18, 0, 0, 0, time.UTC)

	c, err := cs.Create(ctx, "Take out trash", "Bins to the curb", nil, due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.AssignedTo != nil {
		t.Error("expected unassigned chore")
	}

	updated, err := cs.Update(ctx, c.ID, model.ChorePatch{
		Title:      strPtr("Take out recycling"),
		AssignedTo: strPtr("m1"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Take out recycling" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != "m1" {
		t.Errorf("assigned_to = %v", updated.AssignedTo)
	}
	if updated.Description != "Bins to the curb" {
		t.Errorf("description changed to %q", updated.Description)
	}

	// "" clears the assignee
	cleared, err := cs.Update(ctx, c.ID, model.ChorePatch{AssignedTo: strPtr("")})
	if err != nil {
		t.Fatalf("clear assignee: %v", err)
	}
	if cleared.AssignedTo != nil {
		t.Errorf("assigned_to = %v, want nil", *cleared.AssignedTo)
	}

	got, _ := cs.GetByID(ctx, c.ID)
	if !got.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", got.DueDate, due)
	}

	chores, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chores) != 1 {
		t.Errorf("len = %d, want 1", len(chores))
	}

	removed, _ := cs.Delete(ctx, c.ID)
	if !removed {
		t.Error("expected removal")
	}
	chores, _ = cs.List(ctx)
	if len(chores) != 0 {
		t.Errorf("len after delete = %d, want 0", len(chores))
	}
}

func TestRecurringCRUD(t *testing.T) {
	rs := NewRecurringStore(setupKV(t))
	ctx := context.Background()

	rule := model.RecurrenceRule{Cron: "0 9 * * 1", Preset: "weekly", Interval: 1}
	c, err := rs.Create(ctx, "Water plants", "", nil, rule)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newRule := model.RecurrenceRule{Cron: "0 9 * * 1", Preset: "biweekly", Interval: 2}
	updated, err := rs.Update(ctx, c.ID, model.RecurringChorePatch{RecurrenceRule: &newRule})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.RecurrenceRule.Interval != 2 {
		t.Errorf("interval = %d, want 2", updated.RecurrenceRule.Interval)
	}
	if updated.Title != "Water plants" {
		t.Errorf("title = %q", updated.Title)
	}

	got, _ := rs.GetByID(ctx, c.ID)
	if got.RecurrenceRule.Preset != "biweekly" {
		t.Errorf("stored preset = %q", got.RecurrenceRule.Preset)
	}

	removed, _ := rs.Delete(ctx, c.ID)
	if !removed {
		t.Error("expected removal")
	}
	if got, _ := rs.GetByID(ctx, c.ID); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCompletionIdempotentCheck(t *testing.T) {
	cs := NewCompletionStore(setupKV(t))
	ctx := context.Background()
	due := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)

	done, err := cs.IsCompleted(ctx, "r1", due)
	if err != nil {
		t.Fatalf("is completed: %v", err)
	}
	if done {
		t.Fatal("should not be completed yet")
	}

	if _, err := cs.Create(ctx, model.Completion{ChoreID: "r1", ChoreTitle: "Dishes", DueDate: due}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		done, err := cs.IsCompleted(ctx, "r1", due)
		if err != nil {
			t.Fatalf("is completed: %v", err)
		}
		if !done {
			t.Fatalf("call %d: expected completed", i)
		}
	}

	// Same instant in another zone still matches.
	if done, _ := cs.IsCompleted(ctx, "r1", due.In(time.FixedZone("X", 3*3600))); !done {
		t.Error("expected match across zones")
	}
	if done, _ := cs.IsCompleted(ctx, "r1", due.AddDate(0, 0, 7)); done {
		t.Error("a different occurrence should not be completed")
	}

	completions, _ := cs.List(ctx)
	if len(completions) != 1 {
		t.Errorf("len = %d, want 1", len(completions))
	}
}

func TestCompletionHistoryOrder(t *testing.T) {
	cs := NewCompletionStore(setupKV(t))
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		cs.Create(ctx, model.Completion{
			ChoreID:     id,
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
			DueDate:     base,
		})
	}

	history, err := cs.ListHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	if history[0].ChoreID != "c" || history[2].ChoreID != "a" {
		t.Errorf("order = %s,%s,%s, want c,b,a", history[0].ChoreID, history[1].ChoreID, history[2].ChoreID)
	}

	forA, _ := cs.GetForChore(ctx, "a")
	if len(forA) != 1 {
		t.Errorf("completions for a = %d, want 1", len(forA))
	}
}

func TestCompletionStampsCompletedAt(t *testing.T) {
	cs := NewCompletionStore(setupKV(t))
	now := time.Date(2026, 2, 5, 7, 30, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }

	c, err := cs.Create(context.Background(), model.Completion{ChoreID: "x", DueDate: now})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !c.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", c.CompletedAt, now)
	}
}

func TestStateUpdate(t *testing.T) {
	ss := NewStateStore(setupKV(t))
	ctx := context.Background()
	now := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	view := model.ViewList
	st, err := ss.Update(ctx, model.StatePatch{ViewMode: &view})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.ViewMode != model.ViewList {
		t.Errorf("viewMode = %q", st.ViewMode)
	}
	if !st.LastUpdated.Equal(now) {
		t.Errorf("lastUpdated = %v, want %v", st.LastUpdated, now)
	}

	got, err := ss.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViewMode != model.ViewList {
		t.Errorf("stored viewMode = %q", got.ViewMode)
	}
	if got.CurrentWeekStart.Weekday() != time.Monday {
		t.Errorf("currentWeekStart changed to %v", got.CurrentWeekStart)
	}
}
