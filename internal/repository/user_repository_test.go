package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/Maulana-anjari/account-service/internal/domain"
)

func newUserForTest(email string) *domain.User {
	return &domain.User{
		Name:         "Test User",
		Email:        email,
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		PasswordHash: "$argon2id$fake",
	}
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate user: %v", err)
	}
	repo := NewUserRepository(db)

	u := newUserForTest("user@example.com")
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}

	byID, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "user@example.com" || byID.Verified {
		t.Fatalf("unexpected user: %+v", byID)
	}

	byEmail, err := repo.FindByEmail("user@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("id mismatch: got %d want %d", byEmail.ID, u.ID)
	}

	// Matching is exact; a different casing is a different address.
	if _, err := repo.FindByEmail("USER@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected exact-match lookup, got %v", err)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate user: %v", err)
	}
	repo := NewUserRepository(db)

	if err := repo.Create(newUserForTest("dupe@example.com")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(newUserForTest("dupe@example.com"))
	if !errors.Is(err, ErrUserDuplicate) {
		t.Fatalf("expected ErrUserDuplicate, got %v", err)
	}
}

func TestUserRepositoryMarkVerified(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate user: %v", err)
	}
	repo := NewUserRepository(db)

	u := newUserForTest("verify@example.com")
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.MarkVerified(u.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	got, err := repo.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Verified || got.VerifiedAt == nil {
		t.Fatalf("expected verified with timestamp: %+v", got)
	}

	if err := repo.MarkVerified(999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryUpdatePasswordAndDelete(t *testing.T) {
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate user: %v", err)
	}
	repo := NewUserRepository(db)

	u := newUserForTest("rotate@example.com")
	if err := repo.Create(u); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdatePassword(u.ID, "$argon2id$rotated"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, _ := repo.FindByID(u.ID)
	if got.PasswordHash != "$argon2id$rotated" {
		t.Fatalf("hash not rotated: %q", got.PasswordHash)
	}
	if err := repo.UpdatePassword(999, "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := repo.DeleteByID(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
