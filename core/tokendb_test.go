package core

import "testing"

func TestPutTokenAddDupKeyFails(t *testing.T) {
	db := NewTokenDatabase()
	s := db.NewSavepointSession()
	if err := s.PutToken(TokenTypeDomain, PutOpAdd, "", "cookie", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.PutToken(TokenTypeDomain, PutOpAdd, "", "cookie", []byte("v2"))
	if err == nil {
		t.Fatal("expected DupKey error")
	}
	if k, _ := KindOf(err); k != ErrDupKey {
		t.Fatalf("expected ErrDupKey, got %v", k)
	}
}

func TestPutTokenUpdateUnknownKeyFails(t *testing.T) {
	db := NewTokenDatabase()
	s := db.NewSavepointSession()
	err := s.PutToken(TokenTypeDomain, PutOpUpdate, "", "cookie", []byte("v1"))
	if err == nil {
		t.Fatal("expected UnknownKey error")
	}
	if k, _ := KindOf(err); k != ErrUnknownKey {
		t.Fatalf("expected ErrUnknownKey, got %v", k)
	}
}

func TestPrefixDisciplinePerTokenType(t *testing.T) {
	db := NewTokenDatabase()
	s := db.NewSavepointSession()
	if err := s.PutToken(TokenTypeToken, PutOpAdd, "cookie", "t1", []byte("v")); err != nil {
		t.Fatalf("token type should accept a prefix: %v", err)
	}
	if err := s.PutToken(TokenTypeDomain, PutOpAdd, "cookie", "d1", []byte("v")); err == nil {
		t.Fatal("expected error: domain type forbids a prefix")
	}
	if err := s.PutToken(TokenTypeToken, PutOpAdd, "", "t2", []byte("v")); err == nil {
		t.Fatal("expected error: token type requires a prefix")
	}
}

func TestSavepointUndoRestoresPreSessionState(t *testing.T) {
	db := NewTokenDatabase()
	s1 := db.NewSavepointSession()
	if err := s1.PutToken(TokenTypeDomain, PutOpAdd, "", "d1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s1.Accept(); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	s2 := db.NewSavepointSession()
	if err := s2.PutToken(TokenTypeDomain, PutOpAdd, "", "d2", []byte("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !db.ExistsToken(TokenTypeDomain, "", "d1") || !db.ExistsToken(TokenTypeDomain, "", "d2") {
		t.Fatal("expected both d1 and d2 to be visible before undo")
	}
	if err := s2.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !db.ExistsToken(TokenTypeDomain, "", "d1") {
		t.Fatal("expected d1 to survive undo of s2")
	}
	if db.ExistsToken(TokenTypeDomain, "", "d2") {
		t.Fatal("expected d2 to be gone after undo of s2")
	}
}

func TestSquashRequiresTwoFrames(t *testing.T) {
	db := NewTokenDatabase()
	s1 := db.NewSavepointSession()
	err := s1.Squash()
	if err == nil {
		t.Fatal("expected NoSavepoint error")
	}
	if k, _ := KindOf(err); k != ErrNoSavepoint {
		t.Fatalf("expected ErrNoSavepoint, got %v", k)
	}
}

func TestSquashMergesIntoParent(t *testing.T) {
	db := NewTokenDatabase()
	s1 := db.NewSavepointSession()
	if err := s1.PutToken(TokenTypeDomain, PutOpAdd, "", "d1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2 := db.NewSavepointSession()
	if err := s2.PutToken(TokenTypeDomain, PutOpAdd, "", "d2", []byte("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s2.Squash(); err != nil {
		t.Fatalf("squash failed: %v", err)
	}
	if db.Depth() != 1 {
		t.Fatalf("expected depth 1 after squash, got %d", db.Depth())
	}
	if err := s1.Accept(); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if !db.ExistsToken(TokenTypeDomain, "", "d1") || !db.ExistsToken(TokenTypeDomain, "", "d2") {
		t.Fatal("expected both d1 and d2 to exist after squash+accept")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := NewTokenDatabase()
	s := db.NewSavepointSession()
	if err := s.PutToken(TokenTypeDomain, PutOpAdd, "", "d1", []byte("v1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutAsset("addr1", SymbolIDjmzk, []byte("bal")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Accept(); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	records, err := db.SnapshotWrite()
	if err != nil {
		t.Fatalf("snapshot write failed: %v", err)
	}

	restored := NewTokenDatabase()
	if err := restored.SnapshotRead(records); err != nil {
		t.Fatalf("snapshot read failed: %v", err)
	}
	if !restored.ExistsToken(TokenTypeDomain, "", "d1") {
		t.Fatal("expected restored db to contain d1")
	}
	if !restored.ExistsAsset("addr1", SymbolIDjmzk) {
		t.Fatal("expected restored db to contain asset")
	}
	if restored.Depth() != 0 {
		t.Fatalf("expected restored depth 0, got %d", restored.Depth())
	}
}
