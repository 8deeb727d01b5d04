package bootstrap

import (
	"testing"
	"time"

	"github.com/coursebridge/coursebridge/internal/domain/models"
	"github.com/coursebridge/coursebridge/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureAdmin(ctx, deps, "admin@test.com", "Site Admin", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "admin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}

	if user.Role != models.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
	if user.FullName != "Site Admin" {
		t.Errorf("expected name 'Site Admin', got %q", user.FullName)
	}
	if user.Status != "active" {
		t.Errorf("expected status 'active', got %q", user.Status)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	email := "existing@test.com"
	existing := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  "Existing Trainer",
		Email:     email,
		EmailCI:   text.Fold(email),
		Role:      models.RoleTrainer,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, existing); err != nil {
		t.Fatalf("insert existing user: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}

	// Matching is case-insensitive on email.
	if err := ensureAdmin(ctx, deps, "EXISTING@test.com", "Ignored", zap.NewNop()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected promotion to admin, got %q", user.Role)
	}
	if user.FullName != "Existing Trainer" {
		t.Errorf("existing name should be kept, got %q", user.FullName)
	}

	count, _ := db.Collection("users").CountDocuments(ctx, bson.M{})
	if count != 1 {
		t.Errorf("expected no new user, got %d documents", count)
	}
}
