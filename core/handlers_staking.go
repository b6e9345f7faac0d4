package core

import (
	"math"
	"time"
)

// rootGroupPermission builds the ad hoc single-authorizer permission
// satisfied by the genesis-seeded root governance group, required by
// newstakepool and updstakepool.
func rootGroupPermission() PermissionDef {
	return PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerGroup, Name: RootGroupName}, Weight: 1},
	}}
}

// singleAccountPermission is the ad hoc permission satisfied by exactly one
// named key, used for the staking actions whose authority hook is a direct
// check against the action's own creator/staker field rather than a
// domain/fungible permission lookup.
func singleAccountPermission(key PublicKey) PermissionDef {
	return PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: key}, Weight: 1},
	}}
}

// NewStakePoolPayload is the decoded newstakepool action payload.
type NewStakePoolPayload struct {
	Sym               Symbol
	DemandR           float64
	DemandT           float64
	FixedR            float64
	FixedT            float64
	PurchaseThreshold int64
}

func (p NewStakePoolPayload) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, p.Sym)
	for _, f := range []float64{p.DemandR, p.DemandT, p.FixedR, p.FixedT} {
		var bits [8]byte
		encodeFloat64(bits[:], f)
		e.WriteRaw(bits[:])
	}
	e.WriteVarInt(p.PurchaseThreshold)
	return e.Bytes()
}

func DecodeNewStakePoolPayload(b []byte) (NewStakePoolPayload, error) {
	d := NewDecoder(b)
	var p NewStakePoolPayload
	var err error
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	fields := []*float64{&p.DemandR, &p.DemandT, &p.FixedR, &p.FixedT}
	for _, f := range fields {
		bits, err := d.ReadRaw(8)
		if err != nil {
			return p, err
		}
		*f = decodeFloat64(bits)
	}
	if p.PurchaseThreshold, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// stakePoolKey is the Tokens column family key for a stake pool, keyed by
// symbol id the same way a fungible record is.
func stakePoolKey(symID uint32) string {
	return symbolKey(symID)
}

// HandleNewStakePool implements newstakepool: creates the demand/fixed
// curve for a symbol's stake pool. Authority requires satisfaction of the
// root governance group.
func HandleNewStakePool(tc *TransactionContext, act *Action) error {
	p, err := DecodeNewStakePoolPayload(act.Data)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(rootGroupPermission(), nil); err != nil {
		return err
	}
	if tc.DB.ExistsToken(TokenTypeStakePool, "", stakePoolKey(p.Sym.ID)) {
		return newChainError(ErrStakePoolExists, "stake pool already exists", "sym_id", p.Sym.ID)
	}
	pool := &StakePool{
		SymID:             p.Sym.ID,
		DemandR:           p.DemandR,
		DemandT:           p.DemandT,
		DemandQ:           1,
		DemandW:           0,
		FixedR:            p.FixedR,
		FixedT:            p.FixedT,
		BeginTime:         tc.HeadBlockTime,
		Total:             0,
		PurchaseThreshold: p.PurchaseThreshold,
	}
	return PutToken(tc.Cache, PutOpAdd, TokenTypeStakePool, "", stakePoolKey(p.Sym.ID), pool, (*StakePool).Encode)
}

// UpdStakePoolPayload is the decoded updstakepool action payload.
type UpdStakePoolPayload struct {
	Sym               Symbol
	PurchaseThreshold int64
}

func (p UpdStakePoolPayload) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, p.Sym)
	e.WriteVarInt(p.PurchaseThreshold)
	return e.Bytes()
}

func DecodeUpdStakePoolPayload(b []byte) (UpdStakePoolPayload, error) {
	d := NewDecoder(b)
	var p UpdStakePoolPayload
	var err error
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if p.PurchaseThreshold, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleUpdStakePool implements updstakepool: adjusts the purchase
// threshold a stake pool enforces on new stake. Authority requires
// satisfaction of the root governance group, same as newstakepool.
func HandleUpdStakePool(tc *TransactionContext, act *Action) error {
	p, err := DecodeUpdStakePoolPayload(act.Data)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(rootGroupPermission(), nil); err != nil {
		return err
	}
	pool, err := ReadToken(tc.Cache, TokenTypeStakePool, "", stakePoolKey(p.Sym.ID), false, DecodeStakePool)
	if err != nil {
		return err
	}
	pool.PurchaseThreshold = p.PurchaseThreshold
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeStakePool, "", stakePoolKey(p.Sym.ID), pool, (*StakePool).Encode)
}

// NewValidatorPayload is the decoded newvalidator action payload.
type NewValidatorPayload struct {
	Name       Name128
	Creator    PublicKey
	Signer     PublicKey
	Withdraw   Address
	Commission uint32
}

func (p NewValidatorPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Name)
	encodePublicKey(e, p.Creator)
	encodePublicKey(e, p.Signer)
	encodeAddress(e, p.Withdraw)
	e.WriteFixedU32(p.Commission)
	return e.Bytes()
}

func DecodeNewValidatorPayload(b []byte) (NewValidatorPayload, error) {
	d := NewDecoder(b)
	var p NewValidatorPayload
	var err error
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	if p.Creator, err = decodePublicKey(d, "creator"); err != nil {
		return p, err
	}
	if p.Signer, err = decodePublicKey(d, "signer"); err != nil {
		return p, err
	}
	if p.Withdraw, err = decodeAddress(d, "withdraw"); err != nil {
		return p, err
	}
	if p.Commission, err = d.ReadFixedU32(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

const maxCommissionBasisPoints = 10000

// HandleNewValidator implements newvalidator: authority is a direct check
// against creator (the action's own field), not a permission lookup.
func HandleNewValidator(tc *TransactionContext, act *Action) error {
	p, err := DecodeNewValidatorPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Name.Reserved() {
		return newChainError(ErrInvalidType, "validator name is reserved", "name", p.Name.String())
	}
	if p.Commission > maxCommissionBasisPoints {
		return newChainError(ErrInvalidType, "commission exceeds 100%", "commission", p.Commission)
	}
	if err := tc.RequireAuthority(singleAccountPermission(p.Creator), nil); err != nil {
		return err
	}
	if tc.DB.ExistsToken(TokenTypeValidator, "", p.Name.String()) {
		return newChainError(ErrValidatorExists, "validator already exists", "name", p.Name.String())
	}
	v := &Validator{
		Name:            p.Name,
		Signer:          p.Signer,
		Withdraw:        p.Withdraw,
		Manage:          singleAccountPermission(p.Creator),
		Commission:      p.Commission,
		InitialNetValue: 1,
		CurrentNetValue: 1,
		TotalUnits:      0,
	}
	return PutToken(tc.Cache, PutOpAdd, TokenTypeValidator, "", p.Name.String(), v, (*Validator).Encode)
}

// StakeTknsPayload is the decoded staketkns action payload.
type StakeTknsPayload struct {
	Staker    Address
	Validator Name128
	Amount    int64
	Type      uint8 // 0 = active, 1 = fixed
	FixedDays uint32
}

func (p StakeTknsPayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.Staker)
	encodeName128(e, p.Validator)
	e.WriteVarInt(p.Amount)
	e.WriteByte(p.Type)
	e.WriteFixedU32(p.FixedDays)
	return e.Bytes()
}

func DecodeStakeTknsPayload(b []byte) (StakeTknsPayload, error) {
	d := NewDecoder(b)
	var p StakeTknsPayload
	var err error
	if p.Staker, err = decodeAddress(d, "staker"); err != nil {
		return p, err
	}
	if p.Validator, err = decodeName128(d, "validator"); err != nil {
		return p, err
	}
	if p.Amount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Type, err = d.ReadByte(); err != nil {
		return p, err
	}
	if p.FixedDays, err = d.ReadFixedU32(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

const (
	StakeTypeActive uint8 = 0
	StakeTypeFixed  uint8 = 1
)

// fixedNetValueBonus converts a fixed-type stake's lock duration into a
// multiplier on the pool's active net value curve: longer locks are worth
// more units per jmzk staked, tapering logarithmically so the bonus never
// runs away for very long locks.
func fixedNetValueBonus(pool StakePool, fixedDays uint32) float64 {
	if fixedDays == 0 {
		return 1
	}
	bonus := pool.FixedR * math.Log10(float64(fixedDays)*pool.FixedT+1)
	return 1 + bonus
}

// HandleStakeTkns implements staketkns: debits the staker's jmzk balance,
// converts the amount to pool units at the pool's current net value (scaled
// by a bonus for fixed-type locks) and credits the validator with the
// units. Authority is a direct check against staker.
func HandleStakeTkns(tc *TransactionContext, act *Action) error {
	p, err := DecodeStakeTknsPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Amount <= 0 {
		return newChainError(ErrInvalidType, "staketkns amount must be positive")
	}
	if p.Type != StakeTypeActive && p.Type != StakeTypeFixed {
		return newChainError(ErrInvalidStakeType, "unknown stake type", "type", p.Type)
	}
	if err := tc.RequireAuthority(singleAccountPermission(p.Staker.Key), nil); err != nil {
		return err
	}
	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Validator.String(), false, DecodeValidator)
	if err != nil {
		return err
	}
	pool, err := ReadToken(tc.Cache, TokenTypeStakePool, "", stakePoolKey(SymbolIDjmzk), false, DecodeStakePool)
	if err != nil {
		return err
	}
	if pool.PurchaseThreshold > 0 && p.Amount < pool.PurchaseThreshold {
		return newChainError(ErrInvalidType, "stake below pool purchase threshold",
			"amount", p.Amount, "threshold", pool.PurchaseThreshold)
	}

	stakerKey := p.Staker.String()
	balance, err := ReadAsset(tc.Cache, stakerKey, SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if balance.Available() < p.Amount {
		return newChainError(ErrInsufficientBalance, "staker jmzk balance insufficient")
	}

	netValue := v.CurrentNetValue * fixedNetValueBonus(*pool, p.FixedDays)
	units := int64(float64(p.Amount) / netValue)
	if units <= 0 {
		return newChainError(ErrInvalidType, "stake amount too small to purchase a whole unit")
	}

	balance.Amount -= p.Amount
	balance.StakeShares = append(balance.StakeShares, StakeShare{
		Units:    units,
		NetValue: netValue,
		StakedAt: tc.HeadBlockTime,
	})
	if err := PutAsset(tc.Cache, stakerKey, SymbolIDjmzk, balance, (*PropertyStakes).Encode); err != nil {
		return err
	}

	v.TotalUnits += units
	if err := PutToken(tc.Cache, PutOpUpdate, TokenTypeValidator, "", p.Validator.String(), v, (*Validator).Encode); err != nil {
		return err
	}
	pool.Total += p.Amount
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeStakePool, "", stakePoolKey(SymbolIDjmzk), pool, (*StakePool).Encode)
}

// ToActiveTknsPayload is the decoded toactivetkns action payload: converts
// a staker's matured fixed-type units back to active-type units at the
// pool's current net value.
type ToActiveTknsPayload struct {
	Staker    Address
	Validator Name128
	Units     int64
}

func (p ToActiveTknsPayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.Staker)
	encodeName128(e, p.Validator)
	e.WriteVarInt(p.Units)
	return e.Bytes()
}

func DecodeToActiveTknsPayload(b []byte) (ToActiveTknsPayload, error) {
	d := NewDecoder(b)
	var p ToActiveTknsPayload
	var err error
	if p.Staker, err = decodeAddress(d, "staker"); err != nil {
		return p, err
	}
	if p.Validator, err = decodeName128(d, "validator"); err != nil {
		return p, err
	}
	if p.Units, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleToActiveTkns implements toactivetkns: re-prices units carried over
// from a fixed-type lock onto the validator's current net value, so the
// bonus baked into their original fixed-type NetValue is realized once and
// they behave like ordinary active units from here on. Authority is a
// direct check against staker.
func HandleToActiveTkns(tc *TransactionContext, act *Action) error {
	p, err := DecodeToActiveTknsPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Units <= 0 {
		return newChainError(ErrInvalidType, "toactivetkns units must be positive")
	}
	if err := tc.RequireAuthority(singleAccountPermission(p.Staker.Key), nil); err != nil {
		return err
	}
	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Validator.String(), false, DecodeValidator)
	if err != nil {
		return err
	}
	stakerKey := p.Staker.String()
	balance, err := ReadAsset(tc.Cache, stakerKey, SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	remaining, err := deductUnits(balance.StakeShares, p.Units)
	if err != nil {
		return err
	}
	principal := float64(p.Units) * averageNetValue(balance.StakeShares, p.Units)
	balance.StakeShares = remaining
	balance.StakeShares = append(balance.StakeShares, StakeShare{
		Units:    int64(principal / v.CurrentNetValue),
		NetValue: v.CurrentNetValue,
		StakedAt: tc.HeadBlockTime,
	})
	return PutAsset(tc.Cache, stakerKey, SymbolIDjmzk, balance, (*PropertyStakes).Encode)
}

// deductUnits removes units from the front of shares (oldest first),
// returning the remaining shares or an error if shares carries fewer units
// in total than requested.
func deductUnits(shares []StakeShare, units int64) ([]StakeShare, error) {
	remaining := units
	out := make([]StakeShare, 0, len(shares))
	for _, s := range shares {
		if remaining <= 0 {
			out = append(out, s)
			continue
		}
		if s.Units <= remaining {
			remaining -= s.Units
			continue
		}
		out = append(out, StakeShare{Units: s.Units - remaining, NetValue: s.NetValue, StakedAt: s.StakedAt})
		remaining = 0
	}
	if remaining > 0 {
		return nil, newChainError(ErrInsufficientBalance, "insufficient staked units", "requested", units)
	}
	return out, nil
}

// averageNetValue computes the principal-weighted average NetValue of the
// oldest `units` units in shares, matching the FIFO order deductUnits
// consumes.
func averageNetValue(shares []StakeShare, units int64) float64 {
	remaining := units
	var principal float64
	for _, s := range shares {
		if remaining <= 0 {
			break
		}
		take := s.Units
		if take > remaining {
			take = remaining
		}
		principal += float64(take) * s.NetValue
		remaining -= take
	}
	if units == 0 {
		return 0
	}
	return principal / float64(units)
}

const (
	UnstakeOpPropose uint8 = 0
	UnstakeOpCancel  uint8 = 1
	UnstakeOpSettle  uint8 = 2
)

// UnstakeTknsPayload is the decoded unstaketkns action payload, covering
// all three ops: Propose moves units to the pending queue, Cancel returns
// them, Settle releases the matured principal once unstake_pending_days
// has elapsed.
type UnstakeTknsPayload struct {
	Staker    Address
	Validator Name128
	Op        uint8
	Units     int64 // only meaningful for Propose
}

func (p UnstakeTknsPayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.Staker)
	encodeName128(e, p.Validator)
	e.WriteByte(p.Op)
	e.WriteVarInt(p.Units)
	return e.Bytes()
}

func DecodeUnstakeTknsPayload(b []byte) (UnstakeTknsPayload, error) {
	d := NewDecoder(b)
	var p UnstakeTknsPayload
	var err error
	if p.Staker, err = decodeAddress(d, "staker"); err != nil {
		return p, err
	}
	if p.Validator, err = decodeName128(d, "validator"); err != nil {
		return p, err
	}
	if p.Op, err = d.ReadByte(); err != nil {
		return p, err
	}
	if p.Units, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleUnstakeTkns implements unstaketkns across its three ops. Authority
// is a direct check against staker for all three: Propose/Cancel/Settle are
// all actions the staker alone drives.
func HandleUnstakeTkns(tc *TransactionContext, act *Action) error {
	p, err := DecodeUnstakeTknsPayload(act.Data)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(singleAccountPermission(p.Staker.Key), nil); err != nil {
		return err
	}
	stakerKey := p.Staker.String()
	balance, err := ReadAsset(tc.Cache, stakerKey, SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Validator.String(), false, DecodeValidator)
	if err != nil {
		return err
	}

	switch p.Op {
	case UnstakeOpPropose:
		if p.Units <= 0 {
			return newChainError(ErrInvalidType, "unstaketkns propose units must be positive")
		}
		remaining, err := deductUnits(balance.StakeShares, p.Units)
		if err != nil {
			return err
		}
		balance.StakeShares = remaining
		balance.PendingShares = append(balance.PendingShares, StakeShare{
			Units:    p.Units,
			NetValue: v.CurrentNetValue,
			StakedAt: tc.HeadBlockTime,
		})
		v.TotalUnits -= p.Units
		if err := PutToken(tc.Cache, PutOpUpdate, TokenTypeValidator, "", p.Validator.String(), v, (*Validator).Encode); err != nil {
			return err
		}
		return PutAsset(tc.Cache, stakerKey, SymbolIDjmzk, balance, (*PropertyStakes).Encode)

	case UnstakeOpCancel:
		if len(balance.PendingShares) == 0 {
			return newChainError(ErrUnknownStakeRequest, "no pending unstake request")
		}
		var restored int64
		for _, s := range balance.PendingShares {
			restored += s.Units
		}
		balance.StakeShares = append(balance.StakeShares, balance.PendingShares...)
		balance.PendingShares = nil
		v.TotalUnits += restored
		if err := PutToken(tc.Cache, PutOpUpdate, TokenTypeValidator, "", p.Validator.String(), v, (*Validator).Encode); err != nil {
			return err
		}
		return PutAsset(tc.Cache, stakerKey, SymbolIDjmzk, balance, (*PropertyStakes).Encode)

	case UnstakeOpSettle:
		if len(balance.PendingShares) == 0 {
			return newChainError(ErrUnknownStakeRequest, "no pending unstake request")
		}
		pendingWindow := time.Duration(tc.Config.UnstakePendingDays) * 24 * time.Hour
		var settled, keep []StakeShare
		for _, s := range balance.PendingShares {
			if tc.HeadBlockTime.Sub(s.StakedAt) >= pendingWindow {
				settled = append(settled, s)
			} else {
				keep = append(keep, s)
			}
		}
		if len(settled) == 0 {
			return newChainError(ErrStakeNotMature, "unstake pending window has not elapsed")
		}
		var payout int64
		for _, s := range settled {
			payout += int64(float64(s.Units) * s.NetValue)
		}
		balance.PendingShares = keep
		balance.Amount += payout
		return PutAsset(tc.Cache, stakerKey, SymbolIDjmzk, balance, (*PropertyStakes).Encode)

	default:
		return newChainError(ErrInvalidType, "unknown unstaketkns op", "op", p.Op)
	}
}

// ValiWithdrawPayload is the decoded valiwithdraw action payload: moves the
// validator's accrued commission balance (held at the validator's own
// generated address) out to an arbitrary destination.
type ValiWithdrawPayload struct {
	Validator Name128
	Address   Address
	Number    int64
}

func (p ValiWithdrawPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Validator)
	encodeAddress(e, p.Address)
	e.WriteVarInt(p.Number)
	return e.Bytes()
}

func DecodeValiWithdrawPayload(b []byte) (ValiWithdrawPayload, error) {
	d := NewDecoder(b)
	var p ValiWithdrawPayload
	var err error
	if p.Validator, err = decodeName128(d, "validator"); err != nil {
		return p, err
	}
	if p.Address, err = decodeAddress(d, "address"); err != nil {
		return p, err
	}
	if p.Number, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// validatorAddress is the generated address a validator's withdrawable
// commission balance accrues at, analogous to FungibleAddress.
func validatorAddress(name Name128) Address {
	return GeneratedAddress(ValidatorAddrPrefix, name, 0)
}

// HandleValiWithdraw implements valiwithdraw: authority is the validator's
// own Withdraw permission (an address, not a PermissionDef, so it is
// satisfied the same way transferft satisfies an owner address).
func HandleValiWithdraw(tc *TransactionContext, act *Action) error {
	p, err := DecodeValiWithdrawPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Number <= 0 {
		return newChainError(ErrInvalidType, "valiwithdraw number must be positive")
	}
	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Validator.String(), false, DecodeValidator)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		ownerAuthorizer(v.Withdraw),
	}}, nil); err != nil {
		return err
	}
	fromKey := validatorAddress(p.Validator).String()
	from, err := ReadAsset(tc.Cache, fromKey, SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if from.Available() < p.Number {
		return newChainError(ErrInsufficientBalance, "validator commission balance insufficient")
	}
	from.Amount -= p.Number
	if err := PutAsset(tc.Cache, fromKey, SymbolIDjmzk, from, (*PropertyStakes).Encode); err != nil {
		return err
	}
	toKey := p.Address.String()
	to, err := ReadAsset(tc.Cache, toKey, SymbolIDjmzk, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if to == nil {
		to = &PropertyStakes{Property: Property{Sym: Symbol{ID: SymbolIDjmzk}, CreatedAt: tc.HeadBlockTime}}
	}
	to.Amount += p.Number
	return PutAsset(tc.Cache, toKey, SymbolIDjmzk, to, (*PropertyStakes).Encode)
}

// RecvStkBonusPayload is the decoded recvstkbonus action payload: a block
// reward is split between the validator's commission and its stakers by
// raising the validator's net value.
type RecvStkBonusPayload struct {
	Validator Name128
	Amount    int64
}

func (p RecvStkBonusPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Validator)
	e.WriteVarInt(p.Amount)
	return e.Bytes()
}

func DecodeRecvStkBonusPayload(b []byte) (RecvStkBonusPayload, error) {
	d := NewDecoder(b)
	var p RecvStkBonusPayload
	var err error
	if p.Validator, err = decodeName128(d, "validator"); err != nil {
		return p, err
	}
	if p.Amount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleRecvStkBonus implements recvstkbonus: authority is the validator's
// own Signer key (the block producer identity, not its Manage permission),
// since this is the action the producer schedule's signing process emits
// once per period. The scheduling gate tying this to a specific block
// height/period (the original's StakingContext) has no replicated block
// context to hang off in this core yet; the handler trusts its caller to
// invoke it at most once per reward period, recorded as a simplification.
func HandleRecvStkBonus(tc *TransactionContext, act *Action) error {
	p, err := DecodeRecvStkBonusPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Amount <= 0 {
		return newChainError(ErrInvalidType, "recvstkbonus amount must be positive")
	}
	v, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Validator.String(), false, DecodeValidator)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(singleAccountPermission(v.Signer), nil); err != nil {
		return err
	}
	if v.TotalUnits <= 0 {
		return newChainError(ErrInvalidType, "validator has no staked units to receive a bonus")
	}

	commission := int64(math.Floor(float64(p.Amount) * float64(v.Commission) / float64(maxCommissionBasisPoints)))
	stakerShare := p.Amount - commission

	v.CurrentNetValue += float64(stakerShare) / float64(v.TotalUnits)
	if err := PutToken(tc.Cache, PutOpUpdate, TokenTypeValidator, "", p.Validator.String(), v, (*Validator).Encode); err != nil {
		return err
	}

	toKey := validatorAddress(p.Validator).String()
	to, err := ReadAsset(tc.Cache, toKey, SymbolIDjmzk, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if to == nil {
		to = &PropertyStakes{Property: Property{Sym: Symbol{ID: SymbolIDjmzk}, CreatedAt: tc.HeadBlockTime}}
	}
	to.Amount += commission
	return PutAsset(tc.Cache, toKey, SymbolIDjmzk, to, (*PropertyStakes).Encode)
}
