package core

// IssueTokenPayload is the decoded issuetoken action payload.
type IssueTokenPayload struct {
	Domain Name128
	Names  []Name128
	Owners []Address
}

func (p IssueTokenPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Domain)
	e.WriteVarUint(uint64(len(p.Names)))
	for _, n := range p.Names {
		encodeName128(e, n)
	}
	e.WriteVarUint(uint64(len(p.Owners)))
	for _, o := range p.Owners {
		encodeAddress(e, o)
	}
	return e.Bytes()
}

func DecodeIssueTokenPayload(b []byte) (IssueTokenPayload, error) {
	d := NewDecoder(b)
	var p IssueTokenPayload
	var err error
	if p.Domain, err = decodeName128(d, "domain"); err != nil {
		return p, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return p, err
	}
	p.Names = make([]Name128, 0, n)
	for i := uint64(0); i < n; i++ {
		nm, err := decodeName128(d, "name")
		if err != nil {
			return p, err
		}
		p.Names = append(p.Names, nm)
	}
	m, err := d.ReadVarUint()
	if err != nil {
		return p, err
	}
	p.Owners = make([]Address, 0, m)
	for i := uint64(0); i < m; i++ {
		o, err := decodeAddress(d, "owner")
		if err != nil {
			return p, err
		}
		p.Owners = append(p.Owners, o)
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleIssueToken implements issuetoken: spec.md §4.7.
func HandleIssueToken(tc *TransactionContext, act *Action) error {
	p, err := DecodeIssueTokenPayload(act.Data)
	if err != nil {
		return err
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", p.Domain.String(), false, DecodeDomain)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(dom.Issue, nil); err != nil {
		return err
	}
	if len(p.Owners) == 0 {
		return newChainError(ErrInvalidType, "issuetoken requires at least one owner")
	}
	for _, o := range p.Owners {
		if !o.IsPublicKey() {
			return newChainError(ErrInvalidType, "issuetoken owners must be public-key addresses")
		}
	}
	for _, name := range p.Names {
		if name.Reserved() {
			return newChainError(ErrInvalidType, "token name is reserved", "name", name.String())
		}
		if tc.DB.ExistsToken(TokenTypeToken, p.Domain.String(), name.String()) {
			return newChainError(ErrTokenExists, "token already exists", "name", name.String())
		}
	}
	for _, name := range p.Names {
		tok := &Token{Domain: p.Domain, Name: name, Owners: append([]Address(nil), p.Owners...)}
		if err := PutToken(tc.Cache, PutOpAdd, TokenTypeToken, p.Domain.String(), name.String(), tok, (*Token).Encode); err != nil {
			return err
		}
	}
	return nil
}

// TransferPayload is the decoded transfer action payload.
type TransferPayload struct {
	Domain Name128
	Name   Name128
	To     []Address
}

func (p TransferPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Domain)
	encodeName128(e, p.Name)
	e.WriteVarUint(uint64(len(p.To)))
	for _, a := range p.To {
		encodeAddress(e, a)
	}
	return e.Bytes()
}

func DecodeTransferPayload(b []byte) (TransferPayload, error) {
	d := NewDecoder(b)
	var p TransferPayload
	var err error
	if p.Domain, err = decodeName128(d, "domain"); err != nil {
		return p, err
	}
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return p, err
	}
	p.To = make([]Address, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := decodeAddress(d, "to")
		if err != nil {
			return p, err
		}
		p.To = append(p.To, a)
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func tokenKeyStr(domain, name Name128) (string, string) { return domain.String(), name.String() }

// HandleTransfer implements transfer: spec.md §4.7.
func HandleTransfer(tc *TransactionContext, act *Action) error {
	p, err := DecodeTransferPayload(act.Data)
	if err != nil {
		return err
	}
	prefix, key := tokenKeyStr(p.Domain, p.Name)
	tok, err := ReadToken(tc.Cache, TokenTypeToken, prefix, key, false, DecodeToken)
	if err != nil {
		return err
	}
	if tok.Destroyed() {
		return newChainError(ErrTokenDestroyed, "token is destroyed", "domain", p.Domain.String(), "name", p.Name.String())
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", p.Domain.String(), false, DecodeDomain)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(dom.Transfer, tok.Owners); err != nil {
		return err
	}
	tok.Owners = append([]Address(nil), p.To...)
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeToken, prefix, key, tok, (*Token).Encode)
}

// DestroyTokenPayload is the decoded destroytoken action payload.
type DestroyTokenPayload struct {
	Domain Name128
	Name   Name128
}

func (p DestroyTokenPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Domain)
	encodeName128(e, p.Name)
	return e.Bytes()
}

func DecodeDestroyTokenPayload(b []byte) (DestroyTokenPayload, error) {
	d := NewDecoder(b)
	var p DestroyTokenPayload
	var err error
	if p.Domain, err = decodeName128(d, "domain"); err != nil {
		return p, err
	}
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleDestroyToken implements destroytoken: spec.md §4.7.
func HandleDestroyToken(tc *TransactionContext, act *Action) error {
	p, err := DecodeDestroyTokenPayload(act.Data)
	if err != nil {
		return err
	}
	prefix, key := tokenKeyStr(p.Domain, p.Name)
	tok, err := ReadToken(tc.Cache, TokenTypeToken, prefix, key, false, DecodeToken)
	if err != nil {
		return err
	}
	if tok.Destroyed() {
		return newChainError(ErrTokenDestroyed, "token already destroyed", "domain", p.Domain.String(), "name", p.Name.String())
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", p.Domain.String(), false, DecodeDomain)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(dom.Transfer, tok.Owners); err != nil {
		return err
	}
	tok.Owners = []Address{ReservedAddress}
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeToken, prefix, key, tok, (*Token).Encode)
}
