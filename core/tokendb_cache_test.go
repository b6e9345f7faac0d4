package core

import "testing"

func encodeDomainPtr(d *Domain) []byte { return d.Encode() }
func decodeDomainVal(b []byte) (Domain, error) { return DecodeDomain(b) }

func newTestCache(t *testing.T) (*TokenDatabase, *Session, *TokenCache) {
	t.Helper()
	db := NewTokenDatabase()
	s := db.NewSavepointSession()
	hot := NewHotCache(64)
	c := NewTokenCache(db, s, hot)
	return db, s, c
}

func TestCacheReadWriteRoundTrip(t *testing.T) {
	_, _, c := newTestCache(t)
	name, _ := NewName128("cookie")
	var creator PublicKey
	creator.Curve = 1
	dom := &Domain{Name: name, Creator: creator}
	if err := PutToken(c, PutOpAdd, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := ReadToken(c, TokenTypeDomain, "", "cookie", false, decodeDomainVal)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Name != name {
		t.Fatalf("name mismatch: %v", got.Name)
	}
}

func TestCacheDistinctInstanceWriteIsMisuse(t *testing.T) {
	_, _, c := newTestCache(t)
	name, _ := NewName128("cookie")
	dom := &Domain{Name: name}
	if err := PutToken(c, PutOpAdd, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	other := &Domain{Name: name}
	err := PutToken(c, PutOpUpdate, TokenTypeDomain, "", "cookie", other, encodeDomainPtr)
	if err == nil {
		t.Fatal("expected CacheMisuse error")
	}
	if k, _ := KindOf(err); k != ErrCacheMisuse {
		t.Fatalf("expected ErrCacheMisuse, got %v", k)
	}
}

func TestCacheSameInstanceWriteSucceeds(t *testing.T) {
	_, _, c := newTestCache(t)
	name, _ := NewName128("cookie")
	dom := &Domain{Name: name}
	if err := PutToken(c, PutOpAdd, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	dom.Creator.Curve = 2
	if err := PutToken(c, PutOpUpdate, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("expected same-instance update to succeed, got %v", err)
	}
}

func TestCacheLookupTokenOnlyResident(t *testing.T) {
	_, _, c := newTestCache(t)
	if _, ok := LookupToken[Domain](c, TokenTypeDomain, "", "cookie"); ok {
		t.Fatal("expected lookup miss before any read/write")
	}
	name, _ := NewName128("cookie")
	dom := &Domain{Name: name}
	if err := PutToken(c, PutOpAdd, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, ok := LookupToken[Domain](c, TokenTypeDomain, "", "cookie"); !ok {
		t.Fatal("expected lookup hit after put")
	}
}

func TestCacheRollbackDropsSessionEntries(t *testing.T) {
	_, _, c := newTestCache(t)
	name, _ := NewName128("cookie")
	dom := &Domain{Name: name}
	if err := PutToken(c, PutOpAdd, TokenTypeDomain, "", "cookie", dom, encodeDomainPtr); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	c.Rollback()
	if _, ok := LookupToken[Domain](c, TokenTypeDomain, "", "cookie"); ok {
		t.Fatal("expected lookup miss after rollback")
	}
}
