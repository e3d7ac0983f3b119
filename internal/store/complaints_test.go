package store

import (
	"context"
	"testing"

	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/model"
)

func TestComplaintWithAttachments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	item := mustItem(t, database, lab.ID, "Oscilloscope", "Electronics", 1, 0, 0)

	c, err := CreateComplaint(ctx, database, &model.Complaint{
		LabID: lab.ID, ItemID: &item.ID, Title: "Broken probe", Severity: model.SeverityHigh,
	})
	if err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}
	if c.Status != model.ComplaintOpen || c.ItemName != "Oscilloscope" {
		t.Errorf("unexpected complaint %+v", c)
	}
	if len(c.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(c.Attachments))
	}

	for _, name := range []string{"a.jpg", "b.jpg"} {
		_, err := AddAttachment(ctx, database, &model.Attachment{
			ComplaintID: c.ID, Key: "complaints/" + name, Filename: name,
			MIME: "image/jpeg", Size: 1024,
		})
		if err != nil {
			t.Fatalf("AddAttachment: %v", err)
		}
	}

	n, err := CountAttachments(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("CountAttachments: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 attachments, got %d", n)
	}

	got, _ := GetComplaint(ctx, database, c.ID)
	if len(got.Attachments) != 2 || got.Attachments[0].Filename != "a.jpg" {
		t.Errorf("unexpected attachments %+v", got.Attachments)
	}

	a, _ := GetAttachment(ctx, database, c.ID, got.Attachments[1].ID)
	if a == nil || a.Key != "complaints/b.jpg" {
		t.Fatalf("unexpected attachment %+v", a)
	}
	if a.URL != AttachmentURL(c.ID, a.ID) {
		t.Errorf("unexpected url %q", a.URL)
	}
	wrong, _ := GetAttachment(ctx, database, c.ID+1, got.Attachments[1].ID)
	if wrong != nil {
		t.Error("expected attachment lookup under another complaint to miss")
	}
}

func TestUpdateComplaintStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lab := mustLab(t, database, "Physics")
	c, _ := CreateComplaint(ctx, database, &model.Complaint{
		LabID: lab.ID, Title: "Leaking tap", Severity: model.SeverityLow,
	})

	comment := "plumber booked"
	ok, err := UpdateComplaintStatus(ctx, database, c.ID, model.ComplaintInProgress, &comment, c.Version)
	if err != nil {
		t.Fatalf("UpdateComplaintStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected update to apply")
	}

	// Nil comment keeps the previous one.
	ok, _ = UpdateComplaintStatus(ctx, database, c.ID, model.ComplaintResolved, nil, 0)
	if !ok {
		t.Fatal("expected unchecked update to apply")
	}

	got, _ := GetComplaint(ctx, database, c.ID)
	if got.Status != model.ComplaintResolved || got.AdminComment != "plumber booked" {
		t.Errorf("unexpected complaint %+v", got)
	}

	ok, _ = UpdateComplaintStatus(ctx, database, c.ID, model.ComplaintOpen, nil, c.Version)
	if ok {
		t.Error("expected stale version to be rejected")
	}
}

func TestListComplaintsFiltered(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	physics := mustLab(t, database, "Physics")
	chem := mustLab(t, database, "Chemistry")
	c1, _ := CreateComplaint(ctx, database, &model.Complaint{LabID: physics.ID, Title: "One", Severity: model.SeverityLow})
	CreateComplaint(ctx, database, &model.Complaint{LabID: chem.ID, Title: "Two", Severity: model.SeverityLow})
	UpdateComplaintStatus(ctx, database, c1.ID, model.ComplaintResolved, nil, 0)

	all, _ := ListComplaints(ctx, database, ComplaintFilter{})
	if len(all) != 2 {
		t.Errorf("expected 2 complaints, got %d", len(all))
	}
	open, _ := ListComplaints(ctx, database, ComplaintFilter{Status: model.ComplaintOpen})
	if len(open) != 1 || open[0].LabID != chem.ID {
		t.Errorf("expected 1 open chemistry complaint, got %+v", open)
	}
	byLab, _ := ListComplaints(ctx, database, ComplaintFilter{LabID: physics.ID})
	if len(byLab) != 1 || byLab[0].Attachments == nil {
		t.Errorf("expected 1 physics complaint with loaded attachments, got %+v", byLab)
	}
}
