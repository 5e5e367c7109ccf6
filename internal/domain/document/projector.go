package document

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// Placeholders used when an optional field is absent.
const (
	NoOwner      = "no owner"
	NotAvailable = "not available"
	Unassigned   = "unassigned"
	NoProject    = "no project"
	NoEmail      = "no email"
)

// DateLayout is the date format used in snippets and answers.
const DateLayout = "2006-01-02"

// FromRecords projects records in input order.
func FromRecords(recs []record.Record) []Document {
	docs := make([]Document, 0, len(recs))
	for _, r := range recs {
		docs = append(docs, FromRecord(r))
	}
	return docs
}

// FromRecord turns a single record into a Document.
func FromRecord(r record.Record) Document {
	switch v := r.(type) {
	case record.Project:
		return fromProject(v)
	case record.Task:
		return fromTask(v)
	case record.User:
		return fromUser(v)
	default:
		// unreachable: Record is sealed
		panic(fmt.Sprintf("document: unknown record type %T", r))
	}
}

func fromProject(p record.Project) Document {
	owner := NoOwner
	if p.Owner != nil && p.Owner.Name != "" {
		owner = p.Owner.Name
	}
	end := NotAvailable
	if p.EndDate != nil {
		end = p.EndDate.Format(DateLayout)
	}

	text := fmt.Sprintf("Project: %s. Status: %s. Completion: %s%%. Owner: %s. End date: %s.",
		p.Name, p.Status, formatPercent(p.PercentageCompleted), owner, end)
	return New(record.KindProject, p.ID, text)
}

func fromTask(t record.Task) Document {
	owner := Unassigned
	if t.Owner != nil && t.Owner.Name != "" {
		owner = t.Owner.Name
	}
	project := NoProject
	if t.Project != nil && t.Project.Name != "" {
		project = t.Project.Name
	}

	text := fmt.Sprintf("Task: %s. Status: %s. Owner: %s. Project: %s.",
		t.Name, t.Status, owner, project)
	return New(record.KindTask, t.ID, text)
}

func fromUser(u record.User) Document {
	email := NoEmail
	if u.Email != "" {
		email = u.Email
	}

	text := fmt.Sprintf("User: %s. Email: %s.", u.Name, email)
	return New(record.KindUser, u.ID, text)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
