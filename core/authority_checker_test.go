package core

import "testing"

func key(seed byte) PublicKey {
	var k PublicKey
	k.Curve = 1
	k.Data[0] = seed
	return k
}

func accountRef(k PublicKey, weight uint32) AuthorizerWeight {
	return AuthorizerWeight{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: k}, Weight: weight}
}

func TestAuthorityCheckerSimpleAccountSatisfied(t *testing.T) {
	k1 := key(1)
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{accountRef(k1, 1)}}
	c := NewAuthorityChecker([]PublicKey{k1}, nil)
	ok, err := c.Satisfies(perm, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected satisfied")
	}
}

func TestAuthorityCheckerWrongKeyFails(t *testing.T) {
	k1, k2 := key(1), key(2)
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{accountRef(k1, 1)}}
	c := NewAuthorityChecker([]PublicKey{k2}, nil)
	ok, err := c.Satisfies(perm, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected not satisfied")
	}
}

func TestAuthorityCheckerSatisfactionOrderIndependent(t *testing.T) {
	k1, k2 := key(1), key(2)
	perm := PermissionDef{Threshold: 2, Authorizers: []AuthorizerWeight{accountRef(k1, 1), accountRef(k2, 1)}}
	c1 := NewAuthorityChecker([]PublicKey{k1, k2}, nil)
	c2 := NewAuthorityChecker([]PublicKey{k2, k1}, nil)
	ok1, _ := c1.Satisfies(perm, nil)
	ok2, _ := c2.Satisfies(perm, nil)
	if !ok1 || !ok2 {
		t.Fatal("expected both orderings satisfied")
	}
}

func TestAuthorityCheckerGroupBranchThreshold(t *testing.T) {
	k1, k2, k3 := key(1), key(2), key(3)
	root := GroupNode{IsRoot: true, Threshold: 2, Children: []GroupNode{
		{IsLeaf: true, Weight: 1, Key: k1},
		{IsLeaf: true, Weight: 1, Key: k2},
		{IsLeaf: true, Weight: 1, Key: k3},
	}}
	name, _ := NewName128("mygroup")
	groups := func(n Name128) (Group, bool) {
		if n == name {
			return Group{Name: name, Root: root}, true
		}
		return Group{}, false
	}
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerGroup, Name: name}, Weight: 1},
	}}
	c := NewAuthorityChecker([]PublicKey{k1, k2}, groups)
	ok, err := c.Satisfies(perm, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected group threshold satisfied by k1+k2")
	}

	c2 := NewAuthorityChecker([]PublicKey{k1}, groups)
	ok2, err := c2.Satisfies(perm, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok2 {
		t.Fatal("expected group threshold not satisfied by k1 alone")
	}
}

func TestAuthorityCheckerUnknownGroupFails(t *testing.T) {
	name, _ := NewName128("ghost")
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerGroup, Name: name}, Weight: 1},
	}}
	c := NewAuthorityChecker([]PublicKey{key(1)}, func(Name128) (Group, bool) { return Group{}, false })
	_, err := c.Satisfies(perm, nil)
	if err == nil {
		t.Fatal("expected UnknownGroup error")
	}
	if k, _ := KindOf(err); k != ErrUnknownGroup {
		t.Fatalf("expected ErrUnknownGroup, got %v", k)
	}
}

func TestAuthorityCheckerOwnerPublicKey(t *testing.T) {
	k1 := key(1)
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerOwner}, Weight: 1},
	}}
	c := NewAuthorityChecker([]PublicKey{k1}, nil)
	ok, err := c.Satisfies(perm, []Address{PublicKeyAddress(k1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected owner satisfied")
	}
}

func TestAuthorityCheckerRecursionLimitExceeded(t *testing.T) {
	leaf := GroupNode{IsLeaf: true, Weight: 1, Key: key(1)}
	n := leaf
	for i := 0; i < DefaultRecursionLimit+2; i++ {
		n = GroupNode{Threshold: 1, Children: []GroupNode{n}}
	}
	name, _ := NewName128("deep")
	groups := func(nm Name128) (Group, bool) {
		if nm == name {
			return Group{Name: name, Root: n}, true
		}
		return Group{}, false
	}
	perm := PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerGroup, Name: name}, Weight: 1},
	}}
	c := NewAuthorityChecker([]PublicKey{key(1)}, groups)
	_, err := c.Satisfies(perm, nil)
	if err == nil {
		t.Fatal("expected RecursionLimit error")
	}
	if k, _ := KindOf(err); k != ErrRecursionLimit {
		t.Fatalf("expected ErrRecursionLimit, got %v", k)
	}
}
