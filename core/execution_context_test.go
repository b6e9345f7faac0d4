package core

import "testing"

func noopHandler(tc *TransactionContext, act *Action) error { return nil }

func TestExecutionContextDispatchUnknownAction(t *testing.T) {
	ec := NewExecutionContext()
	_, err := ec.Dispatch("newdomain")
	if err == nil {
		t.Fatal("expected UnknownAction error")
	}
	if k, _ := KindOf(err); k != ErrUnknownAction {
		t.Fatalf("expected ErrUnknownAction, got %v", k)
	}
}

func TestExecutionContextDispatchCurrentVersion(t *testing.T) {
	ec := NewExecutionContext()
	ec.Register("transfer", 0, noopHandler)
	ec.Register("transfer", 1, noopHandler)
	h, err := ec.Dispatch("transfer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h == nil {
		t.Fatal("expected handler")
	}
}

func TestExecutionContextInvalidVersion(t *testing.T) {
	ec := NewExecutionContext()
	ec.Register("transfer", 0, noopHandler)
	_, err := ec.DispatchVersion("transfer", 5)
	if err == nil {
		t.Fatal("expected InvalidActionVersion error")
	}
	if k, _ := KindOf(err); k != ErrInvalidActionVersion {
		t.Fatalf("expected ErrInvalidActionVersion, got %v", k)
	}
}

func TestExecutionContextBackwardCompatibleOldVersionsCallable(t *testing.T) {
	ec := NewExecutionContext()
	ec.Register("transfer", 0, noopHandler)
	ec.Register("transfer", 1, noopHandler)
	ec.SetCurrentVersion("transfer", 1)
	// old transactions referencing version 0 must still resolve.
	h, err := ec.DispatchVersion("transfer", 0)
	if err != nil || h == nil {
		t.Fatalf("expected old version still dispatchable, got %v", err)
	}
}

func TestExecutionContextIndexOfStable(t *testing.T) {
	ec := NewExecutionContext()
	ec.Register("newdomain", 0, noopHandler)
	ec.Register("transfer", 0, noopHandler)
	i1, ok := ec.IndexOf("newdomain")
	if !ok || i1 != 0 {
		t.Fatalf("expected index 0 for newdomain, got %d, %v", i1, ok)
	}
	i2, ok := ec.IndexOf("transfer")
	if !ok || i2 != 1 {
		t.Fatalf("expected index 1 for transfer, got %d, %v", i2, ok)
	}
}
