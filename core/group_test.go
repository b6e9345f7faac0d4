package core

import "testing"

func leafNode(weight uint32, seed byte) GroupNode {
	var k PublicKey
	k.Curve = 1
	k.Data[0] = seed
	return GroupNode{IsLeaf: true, Weight: weight, Key: k}
}

func rootNode(threshold uint32, children ...GroupNode) GroupNode {
	return GroupNode{IsRoot: true, Weight: 0, Threshold: threshold, Children: children}
}

func branchNode(weight, threshold uint32, children ...GroupNode) GroupNode {
	return GroupNode{Weight: weight, Threshold: threshold, Children: children}
}

func TestGroupValidateStructureAccepted(t *testing.T) {
	g := Group{Root: rootNode(2, leafNode(1, 1), leafNode(1, 2))}
	if err := g.ValidateStructure(); err != nil {
		t.Fatalf("expected valid group, got %v", err)
	}
}

func TestGroupThresholdExactlyEqualToWeightSumAccepted(t *testing.T) {
	g := Group{Root: rootNode(3, leafNode(1, 1), leafNode(2, 2))}
	if err := g.ValidateStructure(); err != nil {
		t.Fatalf("expected valid group, got %v", err)
	}
}

func TestGroupThresholdOffByOneRejected(t *testing.T) {
	g := Group{Root: rootNode(4, leafNode(1, 1), leafNode(2, 2))}
	err := g.ValidateStructure()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if k, _ := KindOf(err); k != ErrInvalidGroupStructure {
		t.Fatalf("expected ErrInvalidGroupStructure, got %v", k)
	}
}

func TestGroupDepthFiveAccepted(t *testing.T) {
	leaf := leafNode(1, 1)
	n := leaf
	for i := 0; i < 4; i++ {
		n = branchNode(1, 1, n)
	}
	g := Group{Root: rootNode(1, n)}
	if err := g.ValidateStructure(); err != nil {
		t.Fatalf("expected depth-5 group valid, got %v", err)
	}
}

func TestGroupDepthSixRejected(t *testing.T) {
	leaf := leafNode(1, 1)
	n := leaf
	for i := 0; i < 5; i++ {
		n = branchNode(1, 1, n)
	}
	g := Group{Root: rootNode(1, n)}
	err := g.ValidateStructure()
	if err == nil {
		t.Fatal("expected error for depth 6, got nil")
	}
	if k, _ := KindOf(err); k != ErrInvalidGroupStructure {
		t.Fatalf("expected ErrInvalidGroupStructure, got %v", k)
	}
}

func TestGroupDuplicateLeafKeyRejected(t *testing.T) {
	g := Group{Root: rootNode(2, leafNode(1, 9), leafNode(1, 9))}
	err := g.ValidateStructure()
	if err == nil {
		t.Fatal("expected error for duplicate leaf key, got nil")
	}
	if k, _ := KindOf(err); k != ErrInvalidGroupStructure {
		t.Fatalf("expected ErrInvalidGroupStructure, got %v", k)
	}
}

func TestGroupNonRootZeroWeightRejected(t *testing.T) {
	g := Group{Root: rootNode(1, leafNode(0, 1))}
	err := g.ValidateStructure()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGroupEncodeDecodeRoundTrip(t *testing.T) {
	name, _ := NewName128("testgroup")
	g := Group{
		Name: name,
		Key:  ReservedAddress,
		Root: rootNode(2, leafNode(1, 1), leafNode(1, 2)),
	}
	b := g.Encode()
	got, err := DecodeGroup(b)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Name != g.Name {
		t.Fatalf("name mismatch: %v != %v", got.Name, g.Name)
	}
	if len(got.Root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(got.Root.Children))
	}
}
