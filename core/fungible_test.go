package core

import "testing"

func TestFungibleEncodeDecodeRoundTrip(t *testing.T) {
	issue, _ := NewName("issue")
	transfer, _ := NewName("transfer")
	manage, _ := NewName("manage")
	var creator PublicKey
	creator.Curve = 1
	f := Fungible{
		Sym:         Symbol{Precision: 5, ID: SymbolIDjmzk},
		SymName:     "JMZK",
		Creator:     creator,
		Issue:       PermissionDef{Name: issue, Threshold: 1, Authorizers: []AuthorizerWeight{{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: creator}, Weight: 1}}},
		Transfer:    PermissionDef{Name: transfer, Threshold: 1, Authorizers: []AuthorizerWeight{{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: creator}, Weight: 1}}},
		Manage:      PermissionDef{Name: manage, Threshold: 1, Authorizers: []AuthorizerWeight{{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: creator}, Weight: 1}}},
		TotalSupply: 1000000,
	}
	got, err := DecodeFungible(f.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.SymName != f.SymName || got.TotalSupply != f.TotalSupply || got.Sym != f.Sym {
		t.Fatalf("round trip mismatch: %+v != %+v", got, f)
	}
}

func TestPropertyAvailableClampsAtZero(t *testing.T) {
	p := Property{Amount: 5, FrozenAmount: 10}
	if p.Available() != 0 {
		t.Fatalf("expected 0, got %d", p.Available())
	}
	p2 := Property{Amount: 10, FrozenAmount: 3}
	if p2.Available() != 7 {
		t.Fatalf("expected 7, got %d", p2.Available())
	}
}

func TestPropertyEncodeDecodeRoundTrip(t *testing.T) {
	p := Property{Amount: 42, FrozenAmount: 1, Sym: Symbol{Precision: 4, ID: SymbolIDpjmzk}, CreatedIndex: 3}
	got, err := DecodeProperty(p.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: %+v != %+v", got, p)
	}
}

func TestPropertyStakesEncodeDecodeRoundTrip(t *testing.T) {
	ps := PropertyStakes{
		Property:      Property{Amount: 100, Sym: Symbol{Precision: 4, ID: SymbolIDjmzk}},
		StakeShares:   []StakeShare{{Units: 10, NetValue: 1.5}},
		PendingShares: []StakeShare{{Units: 5, NetValue: 1.1}},
	}
	got, err := DecodePropertyStakes(ps.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Amount != ps.Amount {
		t.Fatalf("amount mismatch")
	}
	if len(got.StakeShares) != 1 || got.StakeShares[0].Units != 10 {
		t.Fatalf("stake shares mismatch: %+v", got.StakeShares)
	}
	if len(got.PendingShares) != 1 || got.PendingShares[0].NetValue != 1.1 {
		t.Fatalf("pending shares mismatch: %+v", got.PendingShares)
	}
}
