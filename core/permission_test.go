package core

import "testing"

func TestPermissionValidateRejectsZeroThreshold(t *testing.T) {
	p := PermissionDef{
		Name:      mustName("manage"),
		Threshold: 0,
		Authorizers: []AuthorizerWeight{
			{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: key(1)}, Weight: 1},
		},
	}
	if err := p.Validate(false, nil); err == nil {
		t.Fatal("expected threshold 0 to fail validation")
	}
}

func TestPermissionValidateAccepts(t *testing.T) {
	p := PermissionDef{
		Name:      mustName("manage"),
		Threshold: 1,
		Authorizers: []AuthorizerWeight{
			{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: key(1)}, Weight: 1},
		},
	}
	if err := p.Validate(false, nil); err != nil {
		t.Fatalf("expected valid permission to pass, got %v", err)
	}
}

func TestPermissionValidateRejectsNoAuthorizers(t *testing.T) {
	p := PermissionDef{Name: mustName("manage"), Threshold: 1}
	if err := p.Validate(false, nil); err == nil {
		t.Fatal("expected permission with no authorizers to fail validation")
	}
}

func TestPermissionValidateRejectsSumBelowThreshold(t *testing.T) {
	p := PermissionDef{
		Name:      mustName("manage"),
		Threshold: 2,
		Authorizers: []AuthorizerWeight{
			{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: key(1)}, Weight: 1},
		},
	}
	if err := p.Validate(false, nil); err == nil {
		t.Fatal("expected permission with sum below threshold to fail validation")
	}
}

func TestPermissionValidateRejectsOwnerWhenNotAllowed(t *testing.T) {
	p := PermissionDef{
		Name:      mustName("manage"),
		Threshold: 1,
		Authorizers: []AuthorizerWeight{
			{Ref: AuthorizerRef{Kind: AuthorizerOwner}, Weight: 1},
		},
	}
	if err := p.Validate(false, nil); err == nil {
		t.Fatal("expected owner authorizer to fail validation when not allowed")
	}
	if err := p.Validate(true, nil); err != nil {
		t.Fatalf("expected owner authorizer to pass when allowed, got %v", err)
	}
}
