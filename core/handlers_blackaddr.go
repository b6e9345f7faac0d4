package core

// BlackAddrOp selects whether a blackaddr action adds or removes addresses
// from a fungible's block list.
type BlackAddrOp uint8

const (
	BlackAddrAdd BlackAddrOp = iota
	BlackAddrRemove
)

// BlackAddrs is the per-fungible set of addresses barred from sending or
// receiving that symbol, stored under TokenTypeBlackAddrs keyed by symbol id.
type BlackAddrs struct {
	SymID uint32
	Addrs []Address
}

func (b BlackAddrs) Encode() []byte {
	e := NewEncoder()
	e.WriteFixedU32(b.SymID)
	e.WriteVarUint(uint64(len(b.Addrs)))
	for _, a := range b.Addrs {
		encodeAddress(e, a)
	}
	return e.Bytes()
}

func DecodeBlackAddrs(data []byte) (BlackAddrs, error) {
	d := NewDecoder(data)
	var b BlackAddrs
	var err error
	if b.SymID, err = d.ReadFixedU32(); err != nil {
		return b, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return b, err
	}
	b.Addrs = make([]Address, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := decodeAddress(d, "addr")
		if err != nil {
			return b, err
		}
		b.Addrs = append(b.Addrs, a)
	}
	if err := d.Finish(); err != nil {
		return b, err
	}
	return b, nil
}

func (b *BlackAddrs) has(addr Address) bool {
	for _, a := range b.Addrs {
		if a.Kind == addr.Kind && a.Key == addr.Key {
			return true
		}
	}
	return false
}

// blackAddrsKey is the Tokens column family key for a fungible's block
// list, keyed directly by its symbol id like a fungible's own record.
func blackAddrsKey(symID uint32) string {
	return symbolKey(symID)
}

// BlackAddrPayload is the decoded blackaddr action payload.
type BlackAddrPayload struct {
	Sym   Symbol
	Op    BlackAddrOp
	Addrs []Address
}

func (p BlackAddrPayload) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, p.Sym)
	e.WriteByte(byte(p.Op))
	e.WriteVarUint(uint64(len(p.Addrs)))
	for _, a := range p.Addrs {
		encodeAddress(e, a)
	}
	return e.Bytes()
}

func DecodeBlackAddrPayload(data []byte) (BlackAddrPayload, error) {
	d := NewDecoder(data)
	var p BlackAddrPayload
	var err error
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = BlackAddrOp(op)
	n, err := d.ReadVarUint()
	if err != nil {
		return p, err
	}
	p.Addrs = make([]Address, 0, n)
	for i := uint64(0); i < n; i++ {
		a, err := decodeAddress(d, "addr")
		if err != nil {
			return p, err
		}
		p.Addrs = append(p.Addrs, a)
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleBlackAddr implements blackaddr: requires satisfaction of the
// genesis-seeded root governance group, the same authority newstakepool and
// updstakepool require, since barring an address from a fungible is a
// chain-governance action rather than something the fungible's own manage
// permission controls.
func HandleBlackAddr(tc *TransactionContext, act *Action) error {
	p, err := DecodeBlackAddrPayload(act.Data)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(rootGroupPermission(), nil); err != nil {
		return err
	}
	blacks, err := ReadToken(tc.Cache, TokenTypeBlackAddrs, "", blackAddrsKey(p.Sym.ID), true, DecodeBlackAddrs)
	if err != nil {
		return err
	}
	op := PutOpUpdate
	if blacks == nil {
		blacks = &BlackAddrs{SymID: p.Sym.ID}
		op = PutOpAdd
	}
	switch p.Op {
	case BlackAddrAdd:
		for _, a := range p.Addrs {
			if !blacks.has(a) {
				blacks.Addrs = append(blacks.Addrs, a)
			}
		}
	case BlackAddrRemove:
		kept := blacks.Addrs[:0]
		for _, a := range blacks.Addrs {
			drop := false
			for _, r := range p.Addrs {
				if a.Kind == r.Kind && a.Key == r.Key {
					drop = true
					break
				}
			}
			if !drop {
				kept = append(kept, a)
			}
		}
		blacks.Addrs = kept
	default:
		return newChainError(ErrInvalidType, "unknown blackaddr op", "op", p.Op)
	}
	return PutToken(tc.Cache, op, TokenTypeBlackAddrs, "", blackAddrsKey(p.Sym.ID), blacks, (*BlackAddrs).Encode)
}

// checkAddressBlacked fails a transfer touching addr if the fungible
// identified by symID has a block list and addr is on it. Reserved and
// generated addresses are never subject to blocking, mirroring the source
// project's exemption for the burn address and synthetic pool addresses.
func checkAddressBlacked(tc *TransactionContext, symID uint32, addr Address) error {
	if !addr.IsPublicKey() {
		return nil
	}
	blacks, err := ReadToken(tc.Cache, TokenTypeBlackAddrs, "", blackAddrsKey(symID), true, DecodeBlackAddrs)
	if err != nil {
		return err
	}
	if blacks == nil {
		return nil
	}
	if blacks.has(addr) {
		return newChainError(ErrAddressBlacked, "address is blocked for this symbol", "address", addr.String(), "sym_id", symID)
	}
	return nil
}
