package document

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

func TestFromRecord_Project(t *testing.T) {
	end := time.Date(2026, 10, 30, 9, 30, 0, 0, time.UTC)
	p := record.Project{
		ID:                  1,
		Name:                "Project Alpha",
		Status:              "active",
		PercentageCompleted: 45.0,
		EndDate:             &end,
		Owner:               &record.Ref{ID: 1, Name: "Alice"},
	}

	doc := FromRecord(p)

	want := "Project: Project Alpha. Status: active. Completion: 45.0%. Owner: Alice. End date: 2026-10-30."
	if doc.Text() != want {
		t.Errorf("text:\ngot:  %q\nwant: %q", doc.Text(), want)
	}
	if doc.Type() != record.KindProject {
		t.Errorf("expected type project, got %q", doc.Type())
	}
	if doc.ID() != 1 {
		t.Errorf("expected id 1, got %d", doc.ID())
	}
}

func TestFromRecord_ProjectMissingOptionals(t *testing.T) {
	doc := FromRecord(record.Project{ID: 2, Name: "Bare"})

	if !strings.Contains(doc.Text(), "Owner: "+NoOwner+".") {
		t.Errorf("expected owner placeholder, got %q", doc.Text())
	}
	if !strings.Contains(doc.Text(), "End date: "+NotAvailable+".") {
		t.Errorf("expected end date placeholder, got %q", doc.Text())
	}
	if !strings.Contains(doc.Text(), "Completion: 0.0%.") {
		t.Errorf("expected zero completion, got %q", doc.Text())
	}
}

func TestFromRecord_Task(t *testing.T) {
	task := record.Task{
		ID:      3,
		Name:    "Design UI",
		Status:  "open",
		Project: &record.Ref{ID: 1, Name: "Project Alpha"},
		Owner:   &record.Ref{ID: 1, Name: "Alice"},
	}

	doc := FromRecord(task)

	want := "Task: Design UI. Status: open. Owner: Alice. Project: Project Alpha."
	if doc.Text() != want {
		t.Errorf("text:\ngot:  %q\nwant: %q", doc.Text(), want)
	}
	if doc.Type() != record.KindTask || doc.ID() != 3 {
		t.Errorf("unexpected tags: %q/%d", doc.Type(), doc.ID())
	}
}

func TestFromRecord_TaskMissingOptionals(t *testing.T) {
	doc := FromRecord(record.Task{ID: 4, Name: "Orphan", Status: "open"})

	want := "Task: Orphan. Status: open. Owner: unassigned. Project: no project."
	if doc.Text() != want {
		t.Errorf("text:\ngot:  %q\nwant: %q", doc.Text(), want)
	}
}

func TestFromRecord_User(t *testing.T) {
	doc := FromRecord(record.User{ID: 5, Name: "Bob", Email: "bob@example.com"})
	if doc.Text() != "User: Bob. Email: bob@example.com." {
		t.Errorf("unexpected text %q", doc.Text())
	}

	doc = FromRecord(record.User{ID: 6, Name: "Carol"})
	if doc.Text() != "User: Carol. Email: no email." {
		t.Errorf("unexpected text %q", doc.Text())
	}
	if doc.Type() != record.KindUser || doc.ID() != 6 {
		t.Errorf("unexpected tags: %q/%d", doc.Type(), doc.ID())
	}
}

func TestFromRecord_EmptyRefNameUsesPlaceholder(t *testing.T) {
	doc := FromRecord(record.Task{ID: 7, Name: "T", Owner: &record.Ref{ID: 9}})
	if !strings.Contains(doc.Text(), "Owner: unassigned.") {
		t.Errorf("expected unassigned placeholder, got %q", doc.Text())
	}
}

func TestFromRecords_PreservesOrder(t *testing.T) {
	recs := []record.Record{
		record.User{ID: 10, Name: "Z"},
		record.Project{ID: 1, Name: "A"},
		record.Task{ID: 5, Name: "M"},
	}

	docs := FromRecords(recs)
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	wantIDs := []int64{10, 1, 5}
	for i, d := range docs {
		if d.ID() != wantIDs[i] {
			t.Errorf("doc[%d].ID = %d, want %d", i, d.ID(), wantIDs[i])
		}
	}
}

func TestFromRecords_Empty(t *testing.T) {
	if docs := FromRecords(nil); len(docs) != 0 {
		t.Errorf("expected no docs, got %d", len(docs))
	}
}
