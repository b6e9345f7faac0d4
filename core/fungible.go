package core

import "time"

// Fungible is a divisible asset identified by a symbol with precision.
// Created by newfungible, which mints Symbol's total supply into the
// fungible's generated "initial address" (FungibleAddress).
type Fungible struct {
	Sym         Symbol
	SymName     string
	Creator     PublicKey
	Issue       PermissionDef
	Transfer    PermissionDef
	Manage      PermissionDef
	TotalSupply int64
	CreateTime  time.Time
	Metas       []Metadata
}

func (f Fungible) Encode() []byte {
	e := NewEncoder()
	encodeSymbol(e, f.Sym)
	e.WriteString(f.SymName)
	encodePublicKey(e, f.Creator)
	f.Issue.encode(e)
	f.Transfer.encode(e)
	f.Manage.encode(e)
	e.WriteVarInt(f.TotalSupply)
	e.WriteFixedU64(uint64(f.CreateTime.UnixMicro()))
	encodeMetas(e, f.Metas)
	return e.Bytes()
}

func DecodeFungible(b []byte) (Fungible, error) {
	d := NewDecoder(b)
	var f Fungible
	var err error
	if f.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return f, err
	}
	if f.SymName, err = d.ReadString(); err != nil {
		return f, err
	}
	if f.Creator, err = decodePublicKey(d, "creator"); err != nil {
		return f, err
	}
	if f.Issue, err = decodePermission(d, "issue"); err != nil {
		return f, err
	}
	if f.Transfer, err = decodePermission(d, "transfer"); err != nil {
		return f, err
	}
	if f.Manage, err = decodePermission(d, "manage"); err != nil {
		return f, err
	}
	supply, err := d.ReadVarInt()
	if err != nil {
		return f, err
	}
	f.TotalSupply = supply
	ts, err := d.ReadFixedU64()
	if err != nil {
		return f, err
	}
	f.CreateTime = time.UnixMicro(int64(ts)).UTC()
	if f.Metas, err = decodeMetas(d, "metas"); err != nil {
		return f, err
	}
	if err := d.Finish(); err != nil {
		return f, err
	}
	return f, nil
}

// Property is an address's balance of a symbol: the core per-address asset
// record. For jmzk/pjmzk it is extended by PropertyStakes.
type Property struct {
	Amount        int64
	FrozenAmount  int64
	Sym           Symbol
	CreatedAt     time.Time
	CreatedIndex  uint32
}

func (p Property) Available() int64 {
	avail := p.Amount - p.FrozenAmount
	if avail < 0 {
		return 0
	}
	return avail
}

func (p Property) Encode() []byte {
	e := NewEncoder()
	e.WriteVarInt(p.Amount)
	e.WriteVarInt(p.FrozenAmount)
	encodeSymbol(e, p.Sym)
	e.WriteFixedU64(uint64(p.CreatedAt.UnixMicro()))
	e.WriteFixedU32(p.CreatedIndex)
	return e.Bytes()
}

func DecodeProperty(b []byte) (Property, error) {
	d := NewDecoder(b)
	var p Property
	var err error
	if p.Amount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.FrozenAmount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	ts, err := d.ReadFixedU64()
	if err != nil {
		return p, err
	}
	p.CreatedAt = time.UnixMicro(int64(ts)).UTC()
	if p.CreatedIndex, err = d.ReadFixedU32(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// StakeShare records one staking purchase: the principal amount and the
// pool net_value snapshot taken at stake time, used to compute the holder's
// proportional claim when the pool's net value later changes.
type StakeShare struct {
	Units    int64
	NetValue float64
	StakedAt time.Time
}

// PropertyStakes extends Property for the jmzk/pjmzk symbols with the
// staking bookkeeping described in spec.md §3 and §4.7: active stake_shares
// plus pending_shares awaiting the unstake settlement window.
type PropertyStakes struct {
	Property
	StakeShares   []StakeShare
	PendingShares []StakeShare
}

func (p PropertyStakes) Encode() []byte {
	e := NewEncoder()
	e.WriteRaw(p.Property.Encode())
	encodeStakeShares(e, p.StakeShares)
	encodeStakeShares(e, p.PendingShares)
	return e.Bytes()
}

func encodeStakeShares(e *Encoder, shares []StakeShare) {
	e.WriteVarUint(uint64(len(shares)))
	for _, s := range shares {
		e.WriteVarInt(s.Units)
		var bits [8]byte
		encodeFloat64(bits[:], s.NetValue)
		e.WriteRaw(bits[:])
		e.WriteFixedU64(uint64(s.StakedAt.UnixMicro()))
	}
}

// DecodePropertyStakes decodes a PropertyStakes record. Because Property's
// own encoding is not length-prefixed, PropertyStakes decodes it via a
// single shared decoder rather than splitting buffers.
func DecodePropertyStakes(b []byte) (PropertyStakes, error) {
	d := NewDecoder(b)
	var p PropertyStakes
	var err error
	if p.Amount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.FrozenAmount, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if p.Sym, err = decodeSymbol(d, "sym"); err != nil {
		return p, err
	}
	ts, err := d.ReadFixedU64()
	if err != nil {
		return p, err
	}
	p.CreatedAt = time.UnixMicro(int64(ts)).UTC()
	if p.CreatedIndex, err = d.ReadFixedU32(); err != nil {
		return p, err
	}
	if p.StakeShares, err = decodeStakeShares(d); err != nil {
		return p, err
	}
	if p.PendingShares, err = decodeStakeShares(d); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func decodeStakeShares(d *Decoder) ([]StakeShare, error) {
	n, err := d.ReadVarUint()
	if err != nil {
		return nil, err
	}
	out := make([]StakeShare, 0, n)
	for i := uint64(0); i < n; i++ {
		units, err := d.ReadVarInt()
		if err != nil {
			return nil, err
		}
		bits, err := d.ReadRaw(8)
		if err != nil {
			return nil, err
		}
		nv := decodeFloat64(bits)
		ts, err := d.ReadFixedU64()
		if err != nil {
			return nil, err
		}
		out = append(out, StakeShare{Units: units, NetValue: nv, StakedAt: time.UnixMicro(int64(ts)).UTC()})
	}
	return out, nil
}
