package core

import "strconv"

// NewFungiblePayload is the decoded newfungible action payload. The entire
// total_supply is minted into the fungible's generated initial address
// (FungibleAddress(sym.id)); issuefungible later moves it out to holders.
type NewFungiblePayload struct {
	Sym         Symbol
	SymName     string
	Creator     PublicKey
	Issue       PermissionDef
	Transfer    PermissionDef
	Manage      PermissionDef
	TotalSupply int64
}

func (p NewFungiblePayload) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, p.Sym)
	e.WriteString(p.SymName)
	encodePublicKey(e, p.Creator)
	p.Issue.encode(e)
	p.Transfer.encode(e)
	p.Manage.encode(e)
	e.WriteVarInt(p.TotalSupply)
	return e.Bytes()
}

func DecodeNewFungiblePayload(b []byte) (NewFungiblePayload, error) {
	d := NewDecoder(b)
	var p NewFungiblePayload
	var err error
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if p.SymName, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Creator, err = decodePublicKey(d, "creator"); err != nil {
		return p, err
	}
	if p.Issue, err = decodePermission(d, "issue"); err != nil {
		return p, err
	}
	if p.Transfer, err = decodePermission(d, "transfer"); err != nil {
		return p, err
	}
	if p.Manage, err = decodePermission(d, "manage"); err != nil {
		return p, err
	}
	if p.TotalSupply, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleNewFungible implements newfungible.
func HandleNewFungible(tc *TransactionContext, act *Action) error {
	p, err := DecodeNewFungiblePayload(act.Data)
	if err != nil {
		return err
	}
	if !p.Sym.Valid() || p.Sym.ID == 0 {
		return newChainError(ErrInvalidType, "invalid symbol", "sym", p.Sym.String())
	}
	if p.TotalSupply <= 0 {
		return newChainError(ErrFungibleSupply, "total_supply must be positive")
	}
	if tc.DB.ExistsToken(TokenTypeFungible, "", symbolKey(p.Sym.ID)) {
		return newChainError(ErrFungibleExists, "fungible already exists", "sym_id", p.Sym.ID)
	}
	if err := validateDomainPermissions(p.Issue, p.Transfer, p.Manage, groupExistsFn(tc)); err != nil {
		return err
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: p.Creator}, Weight: 1},
	}}, nil); err != nil {
		return err
	}
	f := &Fungible{
		Sym:         p.Sym,
		SymName:     p.SymName,
		Creator:     p.Creator,
		Issue:       p.Issue,
		Transfer:    p.Transfer,
		Manage:      p.Manage,
		TotalSupply: p.TotalSupply,
		CreateTime:  tc.HeadBlockTime,
	}
	if err := PutToken(tc.Cache, PutOpAdd, TokenTypeFungible, "", symbolKey(p.Sym.ID), f, (*Fungible).Encode); err != nil {
		return err
	}
	initial := FungibleAddress(p.Sym.ID).String()
	prop := &PropertyStakes{Property: Property{Amount: p.TotalSupply, Sym: p.Sym, CreatedAt: tc.HeadBlockTime}}
	return PutAsset(tc.Cache, initial, p.Sym.ID, prop, (*PropertyStakes).Encode)
}

// UpdFungiblePayload is the decoded updfungible action payload: each
// permission is updated only if its Has flag is set, analogous to
// UpdateDomainPayload.
type UpdFungiblePayload struct {
	Sym         Symbol
	HasIssue    bool
	Issue       PermissionDef
	HasTransfer bool
	Transfer    PermissionDef
	HasManage   bool
	Manage      PermissionDef
}

func (p UpdFungiblePayload) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, p.Sym)
	e.WriteBool(p.HasIssue)
	if p.HasIssue {
		p.Issue.encode(e)
	}
	e.WriteBool(p.HasTransfer)
	if p.HasTransfer {
		p.Transfer.encode(e)
	}
	e.WriteBool(p.HasManage)
	if p.HasManage {
		p.Manage.encode(e)
	}
	return e.Bytes()
}

func DecodeUpdFungiblePayload(b []byte) (UpdFungiblePayload, error) {
	d := NewDecoder(b)
	var p UpdFungiblePayload
	var err error
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if p.HasIssue, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasIssue {
		if p.Issue, err = decodePermission(d, "issue"); err != nil {
			return p, err
		}
	}
	if p.HasTransfer, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasTransfer {
		if p.Transfer, err = decodePermission(d, "transfer"); err != nil {
			return p, err
		}
	}
	if p.HasManage, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasManage {
		if p.Manage, err = decodePermission(d, "manage"); err != nil {
			return p, err
		}
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleUpdateFungible implements updfungible, analogous to updatedomain:
// authority is the fungible's own Manage permission, and only the
// permissions flagged present in the payload are replaced.
func HandleUpdateFungible(tc *TransactionContext, act *Action) error {
	p, err := DecodeUpdFungiblePayload(act.Data)
	if err != nil {
		return err
	}
	f, err := ReadToken(tc.Cache, TokenTypeFungible, "", symbolKey(p.Sym.ID), false, DecodeFungible)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(f.Manage, nil); err != nil {
		return err
	}
	issue, transfer, manage := f.Issue, f.Transfer, f.Manage
	if p.HasIssue {
		issue = p.Issue
	}
	if p.HasTransfer {
		transfer = p.Transfer
	}
	if p.HasManage {
		manage = p.Manage
	}
	if err := validateDomainPermissions(issue, transfer, manage, groupExistsFn(tc)); err != nil {
		return err
	}
	f.Issue, f.Transfer, f.Manage = issue, transfer, manage
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeFungible, "", symbolKey(p.Sym.ID), f, (*Fungible).Encode)
}

// symbolKey is the Tokens column family key for a fungible's own record,
// keyed directly by the symbol id (not subject to the Name128 charset
// restriction, since it is never parsed back as a structural name).
func symbolKey(symID uint32) string {
	return strconv.FormatUint(uint64(symID), 10)
}

// IssueFungiblePayload is the decoded issuefungible action payload.
type IssueFungiblePayload struct {
	Address Address
	Number  int64
	Sym     Symbol
	Memo    string
}

func (p IssueFungiblePayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.Address)
	e.WriteVarInt(p.Number)
	encodeSymbol(e, p.Sym)
	e.WriteString(p.Memo)
	return e.Bytes()
}

func DecodeIssueFungiblePayload(b []byte) (IssueFungiblePayload, error) {
	d := NewDecoder(b)
	var p IssueFungiblePayload
	var err error
	if p.Address, err = decodeAddress(d, "address"); err != nil {
		return p, err
	}
	if p.Number, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if p.Memo, err = d.ReadString(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleIssueFungible implements issuefungible: withdraws number units from
// the fungible's initial address and credits address.
func HandleIssueFungible(tc *TransactionContext, act *Action) error {
	p, err := DecodeIssueFungiblePayload(act.Data)
	if err != nil {
		return err
	}
	if p.Number <= 0 {
		return newChainError(ErrInvalidType, "issuefungible number must be positive")
	}
	f, err := ReadToken(tc.Cache, TokenTypeFungible, "", symbolKey(p.Sym.ID), false, DecodeFungible)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(f.Issue, nil); err != nil {
		return err
	}
	if !p.Address.IsPublicKey() && !p.Address.IsGenerated() {
		return newChainError(ErrInvalidType, "issuefungible address must not be reserved")
	}
	initial := FungibleAddress(p.Sym.ID).String()
	from, err := ReadAsset(tc.Cache, initial, p.Sym.ID, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if from.Available() < p.Number {
		return newChainError(ErrInsufficientBalance, "initial address balance insufficient")
	}
	from.Amount -= p.Number
	if err := PutAsset(tc.Cache, initial, p.Sym.ID, from, (*PropertyStakes).Encode); err != nil {
		return err
	}
	toKey := p.Address.String()
	to, err := ReadAsset(tc.Cache, toKey, p.Sym.ID, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if to == nil {
		to = &PropertyStakes{Property: Property{Sym: p.Sym, CreatedAt: tc.HeadBlockTime}}
	}
	to.Amount += p.Number
	return PutAsset(tc.Cache, toKey, p.Sym.ID, to, (*PropertyStakes).Encode)
}

// TransferFtPayload is the decoded transferft action payload.
type TransferFtPayload struct {
	From   Address
	To     Address
	Number int64
	Sym    Symbol
	Memo   string
}

func (p TransferFtPayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.From)
	encodeAddress(e, p.To)
	e.WriteVarInt(p.Number)
	encodeSymbol(e, p.Sym)
	e.WriteString(p.Memo)
	return e.Bytes()
}

func DecodeTransferFtPayload(b []byte) (TransferFtPayload, error) {
	d := NewDecoder(b)
	var p TransferFtPayload
	var err error
	if p.From, err = decodeAddress(d, "from"); err != nil {
		return p, err
	}
	if p.To, err = decodeAddress(d, "to"); err != nil {
		return p, err
	}
	if p.Number, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if p.Memo, err = d.ReadString(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleTransferFt implements transferft: debits from, credits to, for any
// symbol other than pjmzk (pjmzk only ever moves via jmzk2pjmzk/staking
// settlement, never a direct user transfer). jmzk and pjmzk never carry a
// passive bonus; every other symbol's configured bonus (if any) is split out
// per calculatePassiveBonus and credited to its collection address, with a
// paybonus action queued to record the deduction.
func HandleTransferFt(tc *TransactionContext, act *Action) error {
	p, err := DecodeTransferFtPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Sym.ID == SymbolIDpjmzk {
		return newChainError(ErrInvalidType, "pjmzk cannot be transferred directly")
	}
	if p.Number <= 0 {
		return newChainError(ErrInvalidType, "transferft number must be positive")
	}
	if p.From == p.To {
		return newChainError(ErrInvalidType, "transferft from and to must differ")
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		ownerAuthorizer(p.From),
	}}, nil); err != nil {
		return err
	}
	if err := checkAddressBlacked(tc, p.Sym.ID, p.From); err != nil {
		return err
	}
	if err := checkAddressBlacked(tc, p.Sym.ID, p.To); err != nil {
		return err
	}
	actualAmount, bonus := p.Number, int64(0)
	if p.Sym.ID != SymbolIDjmzk {
		if actualAmount, bonus, err = calculatePassiveBonus(tc, p.Sym.ID, p.Number, "transferft"); err != nil {
			return err
		}
	}
	receiveAmount := actualAmount - bonus

	fromKey := p.From.String()
	from, err := ReadAsset(tc.Cache, fromKey, p.Sym.ID, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if from.Available() < actualAmount {
		return newChainError(ErrInsufficientBalance, "balance insufficient", "available", from.Available(), "requested", actualAmount)
	}
	from.Amount -= actualAmount
	if err := PutAsset(tc.Cache, fromKey, p.Sym.ID, from, (*PropertyStakes).Encode); err != nil {
		return err
	}
	toKey := p.To.String()
	to, err := ReadAsset(tc.Cache, toKey, p.Sym.ID, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if to == nil {
		to = &PropertyStakes{Property: Property{Sym: p.Sym, CreatedAt: tc.HeadBlockTime}}
	}
	to.Amount += receiveAmount
	if err := PutAsset(tc.Cache, toKey, p.Sym.ID, to, (*PropertyStakes).Encode); err != nil {
		return err
	}
	if bonus <= 0 {
		return nil
	}
	bonusKey := BonusAddress(p.Sym.ID).String()
	collected, err := ReadAsset(tc.Cache, bonusKey, p.Sym.ID, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if collected == nil {
		collected = &PropertyStakes{Property: Property{Sym: p.Sym, CreatedAt: tc.HeadBlockTime}}
	}
	collected.Amount += bonus
	if err := PutAsset(tc.Cache, bonusKey, p.Sym.ID, collected, (*PropertyStakes).Encode); err != nil {
		return err
	}
	tc.EnqueueGenerated(Action{Name: "paybonus", Data: PayBonusPayload{Payer: p.From, Sym: p.Sym, Number: bonus}.Encode()})
	return nil
}

// ownerAuthorizer builds the single-authorizer permission entry that
// satisfies "the address itself must sign": a public-key address requires
// that key, a generated group-owned address requires the group.
func ownerAuthorizer(addr Address) AuthorizerWeight {
	if addr.IsGroupOwner() {
		return AuthorizerWeight{Ref: AuthorizerRef{Kind: AuthorizerGroup, Name: addr.Name}, Weight: 1}
	}
	return AuthorizerWeight{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: addr.Key}, Weight: 1}
}

// Evt2PjmzkPayload is the decoded jmzk2pjmzk action payload: burns jmzk from
// address, mints the same number of pjmzk for it.
type Evt2PjmzkPayload struct {
	Address Address
	Number  int64
	Memo    string
}

func (p Evt2PjmzkPayload) Encode() []byte {
	e := NewEncoder()
	encodeAddress(e, p.Address)
	e.WriteVarInt(p.Number)
	e.WriteString(p.Memo)
	return e.Bytes()
}

func DecodeEvt2PjmzkPayload(b []byte) (Evt2PjmzkPayload, error) {
	d := NewDecoder(b)
	var p Evt2PjmzkPayload
	var err error
	if p.Address, err = decodeAddress(d, "address"); err != nil {
		return p, err
	}
	if p.Number, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Memo, err = d.ReadString(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func HandleEvt2Pjmzk(tc *TransactionContext, act *Action) error {
	p, err := DecodeEvt2PjmzkPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Number <= 0 {
		return newChainError(ErrInvalidType, "jmzk2pjmzk number must be positive")
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		ownerAuthorizer(p.Address),
	}}, nil); err != nil {
		return err
	}
	key := p.Address.String()
	jmzkBal, err := ReadAsset(tc.Cache, key, SymbolIDjmzk, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if jmzkBal.Available() < p.Number {
		return newChainError(ErrInsufficientBalance, "jmzk balance insufficient")
	}
	jmzkBal.Amount -= p.Number
	if err := PutAsset(tc.Cache, key, SymbolIDjmzk, jmzkBal, (*PropertyStakes).Encode); err != nil {
		return err
	}
	pjmzkBal, err := ReadAsset(tc.Cache, key, SymbolIDpjmzk, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if pjmzkBal == nil {
		pjmzkBal = &PropertyStakes{Property: Property{Sym: Symbol{Precision: jmzkBal.Sym.Precision, ID: SymbolIDpjmzk}, CreatedAt: tc.HeadBlockTime}}
	}
	pjmzkBal.Amount += p.Number
	return PutAsset(tc.Cache, key, SymbolIDpjmzk, pjmzkBal, (*PropertyStakes).Encode)
}
