package core

import (
	"testing"
	"time"
)

// newStakingTestContext is newHandlerTestContext plus a groups lookup that
// resolves RootGroupName to a group satisfied by rootKey alone, for the
// newstakepool/updstakepool authority hook.
func newStakingTestContext(rootKey PublicKey, signingKeys ...PublicKey) (*TransactionContext, *TokenDatabase) {
	db := NewTokenDatabase()
	hot := NewHotCache(256)
	execCtx := NewExecutionContext()
	root := Group{
		Name: RootGroupName,
		Key:  PublicKeyAddress(rootKey),
		Root: GroupNode{IsRoot: true, Threshold: 1, Children: []GroupNode{
			{IsLeaf: true, Weight: 1, Key: rootKey},
		}},
	}
	groups := func(n Name128) (Group, bool) {
		if n == RootGroupName {
			return root, true
		}
		return Group{}, false
	}
	tc := NewTransactionContext(db, hot, execCtx, groups, nil, Hash{}, time.Now(), DefaultChainConfig)
	tc.SigningKeys = signingKeys
	return tc, db
}

func stakePoolFixture(t *testing.T, tc *TransactionContext, rootKey PublicKey) {
	t.Helper()
	newPool := NewStakePoolPayload{
		Sym: Symbol{Precision: 0, ID: SymbolIDjmzk},
		DemandR: 1, DemandT: 1, FixedR: 0.1, FixedT: 1,
		PurchaseThreshold: 0,
	}
	if err := HandleNewStakePool(tc, &Action{Name: "newstakepool", Data: newPool.Encode()}); err != nil {
		t.Fatalf("newstakepool failed: %v", err)
	}
}

func fundJmzk(t *testing.T, tc *TransactionContext, addr Address, amount int64) {
	t.Helper()
	key := addr.String()
	bal := &PropertyStakes{Property: Property{Amount: amount, Sym: Symbol{ID: SymbolIDjmzk}, CreatedAt: tc.HeadBlockTime}}
	if err := PutAsset(tc.Cache, key, SymbolIDjmzk, bal, (*PropertyStakes).Encode); err != nil {
		t.Fatalf("fund jmzk failed: %v", err)
	}
}

func TestHandleNewStakePoolRequiresRootGroup(t *testing.T) {
	rootKey := key(1)
	stranger := key(2)
	tc, _ := newStakingTestContext(rootKey, stranger)
	newPool := NewStakePoolPayload{Sym: Symbol{ID: SymbolIDjmzk}, DemandR: 1, DemandT: 1, FixedR: 0.1, FixedT: 1}
	err := HandleNewStakePool(tc, &Action{Name: "newstakepool", Data: newPool.Encode()})
	if err == nil {
		t.Fatal("expected newstakepool to fail without root group signature")
	}

	tc.SigningKeys = []PublicKey{rootKey}
	if err := HandleNewStakePool(tc, &Action{Name: "newstakepool", Data: newPool.Encode()}); err != nil {
		t.Fatalf("newstakepool failed with root group signature: %v", err)
	}
	if tc.DB.ExistsToken(TokenTypeStakePool, "", stakePoolKey(SymbolIDjmzk)) == false {
		t.Fatal("expected stake pool to be created")
	}
}

func TestHandleUpdStakePoolChangesThreshold(t *testing.T) {
	rootKey := key(1)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	upd := UpdStakePoolPayload{Sym: Symbol{ID: SymbolIDjmzk}, PurchaseThreshold: 500}
	if err := HandleUpdStakePool(tc, &Action{Name: "updstakepool", Data: upd.Encode()}); err != nil {
		t.Fatalf("updstakepool failed: %v", err)
	}
	pool, err := ReadToken(tc.Cache, TokenTypeStakePool, "", stakePoolKey(SymbolIDjmzk), false, DecodeStakePool)
	if err != nil {
		t.Fatalf("read back stake pool failed: %v", err)
	}
	if pool.PurchaseThreshold != 500 {
		t.Fatalf("expected purchase threshold 500, got %d", pool.PurchaseThreshold)
	}
}

func TestHandleNewValidatorRequiresCreator(t *testing.T) {
	creator := key(1)
	stranger := key(2)
	signer := key(3)
	tc, _ := newHandlerTestContext(stranger)
	validatorName, _ := NewName128("myvalidator")
	payload := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 1000}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: payload.Encode()}); err == nil {
		t.Fatal("expected newvalidator to fail without creator's signature")
	}

	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: payload.Encode()}); err != nil {
		t.Fatalf("newvalidator failed with creator signature: %v", err)
	}
}

func TestStakeTknsPurchasesUnits(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	signer := key(3)
	staker := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	validatorName, _ := NewName128("myvalidator")
	newValidator := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 1000}
	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: newValidator.Encode()}); err != nil {
		t.Fatalf("newvalidator failed: %v", err)
	}

	fundJmzk(t, tc, PublicKeyAddress(staker), 1000)
	tc.SigningKeys = []PublicKey{staker}
	stake := StakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Amount: 500, Type: StakeTypeActive}
	if err := HandleStakeTkns(tc, &Action{Name: "staketkns", Data: stake.Encode()}); err != nil {
		t.Fatalf("staketkns failed: %v", err)
	}

	bal, err := ReadAsset(tc.Cache, PublicKeyAddress(staker).String(), SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		t.Fatalf("read back staker balance failed: %v", err)
	}
	if bal.Amount != 500 {
		t.Fatalf("expected remaining balance 500, got %d", bal.Amount)
	}
	if len(bal.StakeShares) != 1 || bal.StakeShares[0].Units != 500 {
		t.Fatalf("expected 500 units at net value 1, got %+v", bal.StakeShares)
	}

	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", validatorName.String(), false, DecodeValidator)
	if err != nil {
		t.Fatalf("read back validator failed: %v", err)
	}
	if v.TotalUnits != 500 {
		t.Fatalf("expected validator total units 500, got %d", v.TotalUnits)
	}
}

func TestUnstakeTknsLifecycle(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	signer := key(3)
	staker := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	validatorName, _ := NewName128("myvalidator")
	newValidator := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 0}
	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: newValidator.Encode()}); err != nil {
		t.Fatalf("newvalidator failed: %v", err)
	}

	fundJmzk(t, tc, PublicKeyAddress(staker), 1000)
	tc.SigningKeys = []PublicKey{staker}
	stake := StakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Amount: 1000, Type: StakeTypeActive}
	if err := HandleStakeTkns(tc, &Action{Name: "staketkns", Data: stake.Encode()}); err != nil {
		t.Fatalf("staketkns failed: %v", err)
	}

	propose := UnstakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Op: UnstakeOpPropose, Units: 400}
	if err := HandleUnstakeTkns(tc, &Action{Name: "unstaketkns", Data: propose.Encode()}); err != nil {
		t.Fatalf("unstaketkns propose failed: %v", err)
	}

	settleTooSoon := UnstakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Op: UnstakeOpSettle}
	if err := HandleUnstakeTkns(tc, &Action{Name: "unstaketkns", Data: settleTooSoon.Encode()}); err == nil {
		t.Fatal("expected settle to fail before the pending window elapses")
	} else if k, _ := KindOf(err); k != ErrStakeNotMature {
		t.Fatalf("expected ErrStakeNotMature, got %v", k)
	}

	tc.HeadBlockTime = tc.HeadBlockTime.Add(time.Duration(tc.Config.UnstakePendingDays)*24*time.Hour + time.Hour)
	settle := UnstakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Op: UnstakeOpSettle}
	if err := HandleUnstakeTkns(tc, &Action{Name: "unstaketkns", Data: settle.Encode()}); err != nil {
		t.Fatalf("unstaketkns settle failed: %v", err)
	}

	bal, err := ReadAsset(tc.Cache, PublicKeyAddress(staker).String(), SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		t.Fatalf("read back staker balance failed: %v", err)
	}
	if bal.Amount != 400 {
		t.Fatalf("expected settled balance 400, got %d", bal.Amount)
	}
	if len(bal.PendingShares) != 0 {
		t.Fatalf("expected pending shares cleared, got %+v", bal.PendingShares)
	}
}

func TestUnstakeTknsCancelRestoresUnits(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	signer := key(3)
	staker := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	validatorName, _ := NewName128("myvalidator")
	newValidator := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 0}
	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: newValidator.Encode()}); err != nil {
		t.Fatalf("newvalidator failed: %v", err)
	}

	fundJmzk(t, tc, PublicKeyAddress(staker), 1000)
	tc.SigningKeys = []PublicKey{staker}
	stake := StakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Amount: 1000, Type: StakeTypeActive}
	if err := HandleStakeTkns(tc, &Action{Name: "staketkns", Data: stake.Encode()}); err != nil {
		t.Fatalf("staketkns failed: %v", err)
	}

	propose := UnstakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Op: UnstakeOpPropose, Units: 300}
	if err := HandleUnstakeTkns(tc, &Action{Name: "unstaketkns", Data: propose.Encode()}); err != nil {
		t.Fatalf("unstaketkns propose failed: %v", err)
	}
	cancel := UnstakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Op: UnstakeOpCancel}
	if err := HandleUnstakeTkns(tc, &Action{Name: "unstaketkns", Data: cancel.Encode()}); err != nil {
		t.Fatalf("unstaketkns cancel failed: %v", err)
	}

	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", validatorName.String(), false, DecodeValidator)
	if err != nil {
		t.Fatalf("read back validator failed: %v", err)
	}
	if v.TotalUnits != 1000 {
		t.Fatalf("expected validator total units restored to 1000, got %d", v.TotalUnits)
	}
}

func TestRecvStkBonusRaisesNetValueAndCreditsCommission(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	signer := key(3)
	staker := key(4)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	validatorName, _ := NewName128("myvalidator")
	newValidator := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 1000} // 10%
	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: newValidator.Encode()}); err != nil {
		t.Fatalf("newvalidator failed: %v", err)
	}

	fundJmzk(t, tc, PublicKeyAddress(staker), 1000)
	tc.SigningKeys = []PublicKey{staker}
	stake := StakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Amount: 1000, Type: StakeTypeActive}
	if err := HandleStakeTkns(tc, &Action{Name: "staketkns", Data: stake.Encode()}); err != nil {
		t.Fatalf("staketkns failed: %v", err)
	}

	tc.SigningKeys = []PublicKey{signer}
	bonus := RecvStkBonusPayload{Validator: validatorName, Amount: 100}
	if err := HandleRecvStkBonus(tc, &Action{Name: "recvstkbonus", Data: bonus.Encode()}); err != nil {
		t.Fatalf("recvstkbonus failed: %v", err)
	}

	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", validatorName.String(), false, DecodeValidator)
	if err != nil {
		t.Fatalf("read back validator failed: %v", err)
	}
	if v.CurrentNetValue <= 1 {
		t.Fatalf("expected net value to rise above 1, got %f", v.CurrentNetValue)
	}

	commissionBal, err := ReadAsset(tc.Cache, validatorAddress(validatorName).String(), SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		t.Fatalf("read back validator commission balance failed: %v", err)
	}
	if commissionBal.Amount != 10 {
		t.Fatalf("expected commission balance 10, got %d", commissionBal.Amount)
	}
}

func TestValiWithdrawRequiresWithdrawAddress(t *testing.T) {
	rootKey := key(1)
	creator := key(2)
	signer := key(3)
	staker := key(4)
	dest := key(5)
	tc, _ := newStakingTestContext(rootKey, rootKey)
	stakePoolFixture(t, tc, rootKey)

	validatorName, _ := NewName128("myvalidator")
	newValidator := NewValidatorPayload{Name: validatorName, Creator: creator, Signer: signer, Withdraw: PublicKeyAddress(creator), Commission: 1000}
	tc.SigningKeys = []PublicKey{creator}
	if err := HandleNewValidator(tc, &Action{Name: "newvalidator", Data: newValidator.Encode()}); err != nil {
		t.Fatalf("newvalidator failed: %v", err)
	}

	fundJmzk(t, tc, PublicKeyAddress(staker), 1000)
	tc.SigningKeys = []PublicKey{staker}
	stake := StakeTknsPayload{Staker: PublicKeyAddress(staker), Validator: validatorName, Amount: 1000, Type: StakeTypeActive}
	if err := HandleStakeTkns(tc, &Action{Name: "staketkns", Data: stake.Encode()}); err != nil {
		t.Fatalf("staketkns failed: %v", err)
	}
	tc.SigningKeys = []PublicKey{signer}
	bonus := RecvStkBonusPayload{Validator: validatorName, Amount: 100}
	if err := HandleRecvStkBonus(tc, &Action{Name: "recvstkbonus", Data: bonus.Encode()}); err != nil {
		t.Fatalf("recvstkbonus failed: %v", err)
	}

	withdraw := ValiWithdrawPayload{Validator: validatorName, Address: PublicKeyAddress(dest), Number: 5}
	tc.SigningKeys = []PublicKey{staker}
	if err := HandleValiWithdraw(tc, &Action{Name: "valiwithdraw", Data: withdraw.Encode()}); err == nil {
		t.Fatal("expected valiwithdraw to fail without the withdraw address's signature")
	}

	tc.SigningKeys = []PublicKey{creator}
	if err := HandleValiWithdraw(tc, &Action{Name: "valiwithdraw", Data: withdraw.Encode()}); err != nil {
		t.Fatalf("valiwithdraw failed with withdraw address signature: %v", err)
	}
	destBal, err := ReadAsset(tc.Cache, PublicKeyAddress(dest).String(), SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		t.Fatalf("read back destination balance failed: %v", err)
	}
	if destBal.Amount != 5 {
		t.Fatalf("expected destination balance 5, got %d", destBal.Amount)
	}
}
