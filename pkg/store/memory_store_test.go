package store

import (
	"testing"
	"time"

	"hireflow/pkg/domain"
)

func TestMemoryStoreAccountEmailIndex(t *testing.T) {
	s := NewMemoryStore()
	acct := domain.Account{ID: "a1", Email: "owner@example.com", Role: domain.RoleOwner}
	if err := s.SaveAccount(acct); err != nil {
		t.Fatalf("save account: %v", err)
	}
	ok, err := s.HasAccountEmail("owner@example.com")
	if err != nil || !ok {
		t.Fatalf("expected email to exist, ok=%v err=%v", ok, err)
	}
	got, found, err := s.GetAccountByEmail("owner@example.com")
	if err != nil || !found || got.ID != "a1" {
		t.Fatalf("lookup by email failed: %+v found=%v err=%v", got, found, err)
	}

	acct.Email = "new@example.com"
	if err := s.SaveAccount(acct); err != nil {
		t.Fatalf("update account: %v", err)
	}
	if ok, _ := s.HasAccountEmail("owner@example.com"); ok {
		t.Fatalf("old email should be unindexed after change")
	}
}

func TestMemoryStoreFormScoping(t *testing.T) {
	s := NewMemoryStore()
	for _, f := range []domain.Form{
		{ID: "f1", OwnerID: "a1", Active: true},
		{ID: "f2", OwnerID: "a1", Active: false},
		{ID: "f3", OwnerID: "a2", Active: true},
	} {
		if err := s.SaveForm(f); err != nil {
			t.Fatalf("save form: %v", err)
		}
	}
	mine, err := s.ListFormsByOwner("a1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("owner forms = %d, want 2 (err=%v)", len(mine), err)
	}
	active, err := s.ListActiveForms()
	if err != nil || len(active) != 2 {
		t.Fatalf("active forms = %d, want 2 (err=%v)", len(active), err)
	}
}

func TestMemoryStoreApplicationsByOwnerAndMatch(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveForm(domain.Form{ID: "f1", OwnerID: "a1", Active: true}); err != nil {
		t.Fatalf("save form: %v", err)
	}
	app := domain.Application{
		ID:        "app1",
		FormID:    "f1",
		Responses: map[string]string{"Full Name": "Ada"},
		ResumeURL: "https://bucket/x.pdf",
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveApplication(app); err != nil {
		t.Fatalf("save application: %v", err)
	}
	byOwner, err := s.ListApplicationsByOwner("a1")
	if err != nil || len(byOwner) != 1 {
		t.Fatalf("apps by owner = %d, want 1 (err=%v)", len(byOwner), err)
	}

	if err := s.SetApplicationMatch("app1", domain.MatchResult{
		Score:     74,
		Strengths: []string{"Go experience"},
		Reasoning: "solid overlap",
	}); err != nil {
		t.Fatalf("set match: %v", err)
	}
	got, ok, err := s.GetApplication("app1")
	if err != nil || !ok {
		t.Fatalf("get application: ok=%v err=%v", ok, err)
	}
	if got.MatchScore == nil || *got.MatchScore != 74 {
		t.Fatalf("match score = %v, want 74", got.MatchScore)
	}
	if got.MatchReasoning != "solid overlap" {
		t.Fatalf("reasoning = %q", got.MatchReasoning)
	}
}
