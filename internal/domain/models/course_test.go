package models_test

import (
	"testing"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActiveModules_OrderAndFilter(t *testing.T) {
	c := models.Course{
		Modules: []models.Module{
			{ID: primitive.NewObjectID(), Title: "third", Order: 2},
			{ID: primitive.NewObjectID(), Title: "deleted", Order: 0, IsDeleted: true},
			{ID: primitive.NewObjectID(), Title: "first", Order: 0},
			{ID: primitive.NewObjectID(), Title: "second", Order: 1},
		},
	}

	got := c.ActiveModules()
	if len(got) != 3 {
		t.Fatalf("expected 3 active modules, got %d", len(got))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Title, w)
		}
	}
}

func TestActiveModules_TieBreakIsInsertionOrder(t *testing.T) {
	// Duplicate Order values occur when a soft-deleted sibling made a
	// position number reusable. Array position breaks the tie, stably.
	c := models.Course{
		Modules: []models.Module{
			{ID: primitive.NewObjectID(), Title: "older", Order: 1},
			{ID: primitive.NewObjectID(), Title: "newer", Order: 1},
		},
	}

	got := c.ActiveModules()
	if got[0].Title != "older" || got[1].Title != "newer" {
		t.Errorf("tie not broken by insertion order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestActiveLessons_OrderAndFilter(t *testing.T) {
	m := models.Module{
		Lessons: []models.Lesson{
			{ID: primitive.NewObjectID(), Title: "b", Order: 1},
			{ID: primitive.NewObjectID(), Title: "gone", Order: 0, IsDeleted: true},
			{ID: primitive.NewObjectID(), Title: "a", Order: 0},
		},
	}

	got := m.ActiveLessons()
	if len(got) != 2 {
		t.Fatalf("expected 2 active lessons, got %d", len(got))
	}
	if got[0].Title != "a" || got[1].Title != "b" {
		t.Errorf("wrong order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestModuleByID(t *testing.T) {
	id := primitive.NewObjectID()
	c := models.Course{
		Modules: []models.Module{{ID: id, Title: "target"}},
	}

	if m := c.ModuleByID(id); m == nil || m.Title != "target" {
		t.Error("expected to find module by id")
	}
	if m := c.ModuleByID(primitive.NewObjectID()); m != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestIsValidContentType(t *testing.T) {
	for _, ct := range models.ContentTypes {
		if !models.IsValidContentType(ct) {
			t.Errorf("%q should be valid", ct)
		}
	}
	for _, ct := range []string{"pdf", "video", "", "Audio"} {
		if models.IsValidContentType(ct) {
			t.Errorf("%q should be invalid", ct)
		}
	}
}

func TestProgress_Membership(t *testing.T) {
	l := primitive.NewObjectID()
	m := primitive.NewObjectID()
	p := models.NewProgress()
	p.CompletedLessons = append(p.CompletedLessons, l)
	p.CompletedModules = append(p.CompletedModules, m)

	if !p.IsLessonCompleted(l) || p.IsLessonCompleted(primitive.NewObjectID()) {
		t.Error("lesson membership wrong")
	}
	if !p.IsModuleCompleted(m) || p.IsModuleCompleted(primitive.NewObjectID()) {
		t.Error("module membership wrong")
	}
}
