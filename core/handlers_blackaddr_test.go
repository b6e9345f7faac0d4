package core

import "testing"

func newFungibleFixture(t *testing.T, tc *TransactionContext, symID uint32, creator, manager PublicKey) {
	t.Helper()
	payload := NewFungiblePayload{
		Sym:         Symbol{Precision: 0, ID: symID},
		SymName:     "testcoin",
		Creator:     creator,
		Issue:       singleKeyPermission("issue", creator),
		Transfer:    PermissionDef{Name: mustName("transfer"), Threshold: 1, Authorizers: []AuthorizerWeight{{Ref: AuthorizerRef{Kind: AuthorizerOwner}, Weight: 1}}},
		Manage:      singleKeyPermission("manage", manager),
		TotalSupply: 1_000_000,
	}
	if err := HandleNewFungible(tc, &Action{Name: "newfungible", Data: payload.Encode()}); err != nil {
		t.Fatalf("newfungible failed: %v", err)
	}
}

func TestHandleBlackAddrRequiresRootGroup(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	stranger := key(3)
	blockedKey := key(4)
	tc, _ := newStakingTestContext(rootKey, stranger, creator)
	newFungibleFixture(t, tc, 10, creator, creator)

	payload := BlackAddrPayload{Sym: Symbol{ID: 10}, Op: BlackAddrAdd, Addrs: []Address{PublicKeyAddress(blockedKey)}}
	err := HandleBlackAddr(tc, &Action{Name: "blackaddr", Data: payload.Encode()})
	if err == nil {
		t.Fatal("expected blackaddr to fail without root group signature")
	}

	tc.SigningKeys = []PublicKey{rootKey}
	if err := HandleBlackAddr(tc, &Action{Name: "blackaddr", Data: payload.Encode()}); err != nil {
		t.Fatalf("blackaddr failed with root group signature: %v", err)
	}
	if err := checkAddressBlacked(tc, 10, PublicKeyAddress(blockedKey)); err == nil {
		t.Fatal("expected blocked address to fail checkAddressBlacked")
	}
	if err := checkAddressBlacked(tc, 10, PublicKeyAddress(creator)); err != nil {
		t.Fatalf("expected unblocked address to pass checkAddressBlacked, got %v", err)
	}
}

func TestHandleBlackAddrRemovesAddress(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	blockedKey := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey, creator)
	newFungibleFixture(t, tc, 11, creator, creator)

	add := BlackAddrPayload{Sym: Symbol{ID: 11}, Op: BlackAddrAdd, Addrs: []Address{PublicKeyAddress(blockedKey)}}
	if err := HandleBlackAddr(tc, &Action{Name: "blackaddr", Data: add.Encode()}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	remove := BlackAddrPayload{Sym: Symbol{ID: 11}, Op: BlackAddrRemove, Addrs: []Address{PublicKeyAddress(blockedKey)}}
	if err := HandleBlackAddr(tc, &Action{Name: "blackaddr", Data: remove.Encode()}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := checkAddressBlacked(tc, 11, PublicKeyAddress(blockedKey)); err != nil {
		t.Fatalf("expected address to be unblocked after removal, got %v", err)
	}
}

func TestTransferFtRejectsBlockedAddress(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	blockedKey := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey, creator)
	newFungibleFixture(t, tc, 12, creator, creator)

	issue := IssueFungiblePayload{Address: PublicKeyAddress(blockedKey), Number: 100, Sym: Symbol{ID: 12}}
	if err := HandleIssueFungible(tc, &Action{Name: "issuefungible", Data: issue.Encode()}); err != nil {
		t.Fatalf("issuefungible failed: %v", err)
	}

	blackPayload := BlackAddrPayload{Sym: Symbol{ID: 12}, Op: BlackAddrAdd, Addrs: []Address{PublicKeyAddress(blockedKey)}}
	if err := HandleBlackAddr(tc, &Action{Name: "blackaddr", Data: blackPayload.Encode()}); err != nil {
		t.Fatalf("blackaddr failed: %v", err)
	}

	tc.SigningKeys = []PublicKey{blockedKey}
	transfer := TransferFtPayload{From: PublicKeyAddress(blockedKey), To: PublicKeyAddress(creator), Number: 10, Sym: Symbol{ID: 12}}
	err := HandleTransferFt(tc, &Action{Name: "transferft", Data: transfer.Encode()})
	if err == nil {
		t.Fatal("expected transferft from a blocked address to fail")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrAddressBlacked {
		t.Fatalf("expected ErrAddressBlacked, got %v", err)
	}
}
