package core

import "testing"

func TestHandleAddMetaOnDomain(t *testing.T) {
	creator := key(1)
	tc, _ := newHandlerTestContext(creator)
	domainName := domainFixture(t, tc, creator, "mydomain")

	metaKey := mustName128("mykey")
	payload := AddMetaPayload{Key: metaKey, Value: "hello", Creator: PublicKeyAddress(creator)}
	act := &Action{Name: "addmeta", Domain: domainName, Key: metaTargetDomain, Data: payload.Encode()}
	if err := HandleAddMeta(tc, act); err != nil {
		t.Fatalf("addmeta on domain failed: %v", err)
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", domainName.String(), false, DecodeDomain)
	if err != nil {
		t.Fatalf("read back domain failed: %v", err)
	}
	if !HasMeta(dom.Metas, metaKey) {
		t.Fatal("expected domain to carry the added metadata")
	}
}

func TestHandleAddMetaOnDomainRejectsUninvolvedCreator(t *testing.T) {
	creator := key(1)
	stranger := key(9)
	tc, _ := newHandlerTestContext(creator)
	domainName := domainFixture(t, tc, creator, "mydomain")

	metaKey := mustName128("mykey")
	payload := AddMetaPayload{Key: metaKey, Value: "hello", Creator: PublicKeyAddress(stranger)}
	act := &Action{Name: "addmeta", Domain: domainName, Key: metaTargetDomain, Data: payload.Encode()}
	err := HandleAddMeta(tc, act)
	if err == nil {
		t.Fatal("expected error from an uninvolved creator")
	}
	if k, _ := KindOf(err); k != ErrUnsatisfiedAuthorization {
		t.Fatalf("expected ErrUnsatisfiedAuthorization, got %v", k)
	}
}

func TestHandleAddMetaOnToken(t *testing.T) {
	creator := key(1)
	owner := key(2)
	tc, _ := newHandlerTestContext(creator, owner)
	domainName := domainFixture(t, tc, creator, "mydomain")
	tokenName, _ := NewName128("mytoken")
	issuePayload := IssueTokenPayload{Domain: domainName, Names: []Name128{tokenName}, Owners: []Address{PublicKeyAddress(owner)}}
	if err := HandleIssueToken(tc, &Action{Name: "issuetoken", Data: issuePayload.Encode()}); err != nil {
		t.Fatalf("issuetoken failed: %v", err)
	}

	metaKey := mustName128("color")
	payload := AddMetaPayload{Key: metaKey, Value: "blue", Creator: PublicKeyAddress(owner)}
	act := &Action{Name: "addmeta", Domain: domainName, Key: tokenName, Data: payload.Encode()}
	if err := HandleAddMeta(tc, act); err != nil {
		t.Fatalf("addmeta on token failed: %v", err)
	}
	tok, err := ReadToken(tc.Cache, TokenTypeToken, domainName.String(), tokenName.String(), false, DecodeToken)
	if err != nil {
		t.Fatalf("read back token failed: %v", err)
	}
	if !HasMeta(tok.Metas, metaKey) {
		t.Fatal("expected token to carry the added metadata")
	}
}

func TestHandleAddMetaOnGroup(t *testing.T) {
	owner := key(1)
	member := key(2)
	tc, db := newHandlerTestContext(owner)
	groupName, _ := NewName128("mygroup")
	root := GroupNode{IsRoot: true, Threshold: 1, Children: []GroupNode{
		{IsLeaf: true, Weight: 1, Key: member},
	}}
	g := Group{Name: groupName, Key: PublicKeyAddress(owner), Root: root}
	gPayload := NewGroupPayload{Name: groupName, Group: g}
	if err := HandleNewGroup(tc, &Action{Name: "newgroup", Data: gPayload.Encode()}); err != nil {
		t.Fatalf("newgroup failed: %v", err)
	}

	metaKey := mustName128("purpose")
	payload := AddMetaPayload{Key: metaKey, Value: "voting", Creator: PublicKeyAddress(owner)}
	act := &Action{Name: "addmeta", Domain: metaTargetGroup, Key: groupName, Data: payload.Encode()}
	if err := HandleAddMeta(tc, act); err != nil {
		t.Fatalf("addmeta on group failed: %v", err)
	}
	_ = db
}
