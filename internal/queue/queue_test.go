package queue

import (
	"encoding/json"
	"reflect"
	"testing"
)

func paths(jobs []Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.SourcePath
	}
	return out
}

// TestAddRejectsDuplicates verifies that a source path is never queued twice.
func TestAddRejectsDuplicates(t *testing.T) {
	q := New()
	adds := []struct {
		path string
		want bool
	}{
		{"/docs/a.pdf", true},
		{"/docs/b.pdf", true},
		{"/docs/a.pdf", false},
		{"/other/a.pdf", true},
		{"", false},
		{"/docs/b.pdf", false},
	}
	for _, a := range adds {
		if got := q.AddPath(a.path); got != a.want {
			t.Errorf("AddPath(%q) = %v, want %v", a.path, got, a.want)
		}
	}

	want := []string{"/docs/a.pdf", "/docs/b.pdf", "/other/a.pdf"}
	if got := paths(q.Snapshot()); !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

// TestNewDropsDuplicates verifies that constructing from a persisted list keeps the first occurrence.
func TestNewDropsDuplicates(t *testing.T) {
	q := New(NewJob("a.pdf"), NewJob("b.pdf"), Job{SourcePath: "a.pdf", Status: StatusComplete})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	j, _ := q.Get(0)
	if j.Status != StatusPending {
		t.Errorf("first occurrence status = %v, want Pending", j.Status)
	}
	if j.DisplayName != "a.pdf" {
		t.Errorf("DisplayName = %q, want a.pdf", j.DisplayName)
	}
}

// TestMove verifies reordering and the out-of-range no-op.
func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		delta  int
		wantOK bool
		want   []string
	}{
		{"up", 1, -1, true, []string{"b", "a", "c", "d"}},
		{"down", 1, 1, true, []string{"a", "c", "b", "d"}},
		{"far", 0, 3, true, []string{"b", "c", "d", "a"}},
		{"top up", 0, -1, false, []string{"a", "b", "c", "d"}},
		{"bottom down", 3, 1, false, []string{"a", "b", "c", "d"}},
		{"index out of range", 7, -1, false, []string{"a", "b", "c", "d"}},
		{"negative index", -1, 1, false, []string{"a", "b", "c", "d"}},
		{"zero delta", 2, 0, false, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(NewJob("a"), NewJob("b"), NewJob("c"), NewJob("d"))
			if ok := q.Move(tt.index, tt.delta); ok != tt.wantOK {
				t.Errorf("Move(%d, %d) = %v, want %v", tt.index, tt.delta, ok, tt.wantOK)
			}
			if got := paths(q.Snapshot()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("after Move: %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRemove verifies multi-index removal ignoring bad indices.
func TestRemove(t *testing.T) {
	q := New(NewJob("a"), NewJob("b"), NewJob("c"), NewJob("d"))
	if n := q.Remove(3, 1, 1, 9, -2); n != 2 {
		t.Errorf("Remove() = %d, want 2", n)
	}
	if got, want := paths(q.Snapshot()), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after Remove: %v, want %v", got, want)
	}
	if n := q.Remove(); n != 0 {
		t.Errorf("Remove() with no indices = %d, want 0", n)
	}
}

// TestSnapshotIsCopy verifies callers cannot mutate the queue through a snapshot.
func TestSnapshotIsCopy(t *testing.T) {
	q := New(NewJob("a"))
	snap := q.Snapshot()
	snap[0].Status = StatusComplete
	if j, _ := q.Get(0); j.Status != StatusPending {
		t.Errorf("queue mutated through snapshot: %v", j.Status)
	}
}

// TestSetStatus verifies status transitions and error reasons.
func TestSetStatus(t *testing.T) {
	q := New(NewJob("a"))
	if err := q.SetStatus("a", StatusError, "boom"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	j, _ := q.Lookup("a")
	if j.Status != StatusError || j.Error != "boom" {
		t.Errorf("job = %+v, want Error/boom", j)
	}
	if err := q.SetStatus("a", StatusComplete, "ignored"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	j, _ = q.Lookup("a")
	if j.Status != StatusComplete || j.Error != "" {
		t.Errorf("job = %+v, want Complete with no error", j)
	}
	if err := q.SetStatus("missing", StatusComplete, ""); err != ErrNotFound {
		t.Errorf("SetStatus(missing) error = %v, want ErrNotFound", err)
	}
}

// TestResetAndCounts verifies that Reset returns finished jobs to pending.
func TestResetAndCounts(t *testing.T) {
	q := New(
		Job{SourcePath: "a", Status: StatusComplete},
		Job{SourcePath: "b", Status: StatusError, Error: "x"},
		Job{SourcePath: "c"},
	)
	counts := q.Counts()
	if counts[StatusComplete] != 1 || counts[StatusError] != 1 || counts[StatusPending] != 1 {
		t.Errorf("Counts() = %v", counts)
	}
	if n := q.Reset(); n != 2 {
		t.Errorf("Reset() = %d, want 2", n)
	}
	if got := q.Counts()[StatusPending]; got != 3 {
		t.Errorf("pending after reset = %d, want 3", got)
	}
}

// TestOnChange verifies the change hook fires for mutations only.
func TestOnChange(t *testing.T) {
	q := New()
	calls := 0
	q.OnChange(func() { calls++ })

	q.AddPath("a")
	q.AddPath("a")
	q.Move(0, 1)
	q.AddPath("b")
	q.Move(0, 1)
	q.Remove(5)

	if calls != 3 {
		t.Errorf("OnChange calls = %d, want 3", calls)
	}
}

// TestStatusJSON verifies statuses persist as their display names.
func TestStatusJSON(t *testing.T) {
	b, err := json.Marshal(Job{Status: StatusComplete, SourcePath: "/x/a.pdf", DisplayName: "a.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"status":"Complete","path":"/x/a.pdf","filename":"a.pdf"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	var j Job
	if err := json.Unmarshal([]byte(`{"status":"Error","path":"p","filename":"f"}`), &j); err != nil {
		t.Fatal(err)
	}
	if j.Status != StatusError {
		t.Errorf("Status = %v, want Error", j.Status)
	}
	if err := json.Unmarshal([]byte(`{"status":"Weird"}`), &j); err == nil {
		t.Error("expected error for unknown status")
	}
}
