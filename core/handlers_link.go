package core

import "strconv"

// EveriPassPayload is the decoded everipass action payload: the raw encoded
// link blob.
type EveriPassPayload struct {
	LinkBytes []byte
}

func (p EveriPassPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteBytes(p.LinkBytes)
	return e.Bytes()
}

func DecodeEveriPassPayload(b []byte) (EveriPassPayload, error) {
	d := NewDecoder(b)
	var p EveriPassPayload
	var err error
	if p.LinkBytes, err = d.ReadBytes(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func linkKeySet(keys []PublicKey) map[PublicKey]bool {
	s := make(map[PublicKey]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}

// HandleEveriPass implements everipass: spec.md §4.7.
func HandleEveriPass(tc *TransactionContext, act *Action) error {
	p, err := DecodeEveriPassPayload(act.Data)
	if err != nil {
		return err
	}
	link, err := DecodeLink(p.LinkBytes)
	if err != nil {
		return err
	}
	if link.Type != LinkTypeEveriPass {
		return newChainError(ErrInvalidLinkType, "link is not an everiPass link")
	}
	if !tc.Config.LoadtestMode {
		expiry := int64(link.Timestamp) + int64(tc.Config.LinkExpiredSecs)
		if tc.HeadBlockTime.Unix() > expiry {
			return newChainError(ErrExpiredLink, "link has expired")
		}
	}
	if !link.HasDomain() || !link.HasToken() {
		return newChainError(ErrInvalidType, "everipass link must carry domain and token")
	}
	prefix, key := tokenKeyStr(link.Domain, link.Token)
	tok, err := ReadToken(tc.Cache, TokenTypeToken, prefix, key, false, DecodeToken)
	if err != nil {
		return err
	}
	if tok.Destroyed() {
		return newChainError(ErrTokenDestroyed, "token is destroyed", "domain", link.Domain.String(), "name", link.Token.String())
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", link.Domain.String(), false, DecodeDomain)
	if err != nil {
		return err
	}
	if link.Destroy {
		checker := &AuthorityChecker{SigningKeys: link.Keys, RecursionLimit: int(tc.Config.MaxRecursionDepth), Groups: tc.Groups, Scripts: tc.Scripts, CheckScript: true}
		ok, err := checker.Satisfies(dom.Transfer, tok.Owners)
		if err != nil {
			return err
		}
		if !ok {
			return newChainError(ErrUnsatisfiedAuthorization, "link keys do not satisfy domain transfer permission")
		}
		tok.Owners = []Address{ReservedAddress}
		return PutToken(tc.Cache, PutOpUpdate, TokenTypeToken, prefix, key, tok, (*Token).Encode)
	}
	present := linkKeySet(link.Keys)
	for _, owner := range tok.Owners {
		if !owner.IsPublicKey() || !present[owner.Key] {
			return newChainError(ErrUnsatisfiedAuthorization, "token owner key not present in link")
		}
	}
	return nil
}

// EveriPayPayload is the decoded everipay action payload.
type EveriPayPayload struct {
	LinkBytes []byte
	Payee     Address
	Number    int64
	Sym       Symbol
}

func (p EveriPayPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteBytes(p.LinkBytes)
	encodeAddress(e, p.Payee)
	e.WriteVarInt(p.Number)
	encodeSymbol(e, p.Sym)
	return e.Bytes()
}

func DecodeEveriPayPayload(b []byte) (EveriPayPayload, error) {
	d := NewDecoder(b)
	var p EveriPayPayload
	var err error
	if p.LinkBytes, err = d.ReadBytes(); err != nil {
		return p, err
	}
	if p.Payee, err = decodeAddress(d, "payee"); err != nil {
		return p, err
	}
	if p.Number, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func linkMaxPay(link Link) (int64, error) {
	if link.HasMaxPayStr() {
		v, err := strconv.ParseInt(link.MaxPayStr, 10, 64)
		if err != nil {
			return 0, newChainError(ErrInvalidType, "link max_pay_str is not a valid integer", "value", link.MaxPayStr)
		}
		return v, nil
	}
	if link.HasMaxPay() {
		return int64(link.MaxPay), nil
	}
	return 0, newChainError(ErrInvalidType, "everiPay link carries no max_pay")
}

// HandleEveriPay implements everipay: spec.md §4.7. link_id is checked
// against the jmzk_link token family (an already-recorded link_id fails with
// DuplicateLink) and then recorded there; the payer is the transaction's sole
// recovered signer.
func HandleEveriPay(tc *TransactionContext, act *Action) error {
	p, err := DecodeEveriPayPayload(act.Data)
	if err != nil {
		return err
	}
	link, err := DecodeLink(p.LinkBytes)
	if err != nil {
		return err
	}
	if link.Type != LinkTypeEveriPay {
		return newChainError(ErrInvalidLinkType, "link is not an everiPay link")
	}
	if !tc.Config.LoadtestMode {
		expiry := int64(link.Timestamp) + int64(tc.Config.LinkExpiredSecs)
		if tc.HeadBlockTime.Unix() > expiry {
			return newChainError(ErrExpiredLink, "link has expired")
		}
	}
	if !link.HasLinkID() {
		return newChainError(ErrInvalidType, "everiPay link carries no link_id")
	}
	if !link.HasSymbolID() || link.SymbolID != p.Sym.ID {
		return newChainError(ErrInvalidType, "everipay symbol does not match link")
	}
	if len(tc.SigningKeys) != 1 {
		return newChainError(ErrInvalidType, "everipay requires exactly one transaction signature")
	}
	maxPay, err := linkMaxPay(link)
	if err != nil {
		return err
	}
	if p.Number <= 0 || p.Number > maxPay {
		return newChainError(ErrInvalidType, "everipay number exceeds link max_pay", "number", p.Number, "max_pay", maxPay)
	}
	if tc.DB.ExistsToken(TokenTypeLink, "", link.LinkID.String()) {
		return newChainError(ErrDuplicateLink, "link_id already consumed", "link_id", link.LinkID.String())
	}
	rec := &LinkRecord{LinkID: link.LinkID, TrxID: tc.TrxID}
	if err := PutToken(tc.Cache, PutOpAdd, TokenTypeLink, "", link.LinkID.String(), rec, (*LinkRecord).Encode); err != nil {
		return err
	}

	payer := PublicKeyAddress(tc.SigningKeys[0])
	payerKey := payer.String()
	from, err := ReadAsset(tc.Cache, payerKey, p.Sym.ID, false, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if from.Available() < p.Number {
		return newChainError(ErrInsufficientBalance, "payer balance insufficient")
	}
	from.Amount -= p.Number
	if err := PutAsset(tc.Cache, payerKey, p.Sym.ID, from, (*PropertyStakes).Encode); err != nil {
		return err
	}
	payeeKey := p.Payee.String()
	to, err := ReadAsset(tc.Cache, payeeKey, p.Sym.ID, true, DecodePropertyStakes)
	if err != nil {
		return err
	}
	if to == nil {
		to = &PropertyStakes{Property: Property{Sym: p.Sym, CreatedAt: tc.HeadBlockTime}}
	}
	to.Amount += p.Number
	return PutAsset(tc.Cache, payeeKey, p.Sym.ID, to, (*PropertyStakes).Encode)
}
