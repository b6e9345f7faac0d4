package core

import "time"

// Validator is a staking validator: the entity block producers and stakers
// delegate to, tracked by its net value (used to compute a staker's
// proportional claim) and its accumulated unit count.
type Validator struct {
	Name            Name128
	Signer          PublicKey
	Withdraw        Address
	Manage          PermissionDef
	Commission      uint32 // basis points: 10000 is 100%
	InitialNetValue float64
	CurrentNetValue float64
	TotalUnits      int64
}

func (v Validator) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, v.Name)
	encodePublicKey(e, v.Signer)
	encodeAddress(e, v.Withdraw)
	v.Manage.encode(e)
	e.WriteFixedU32(v.Commission)
	var initBits, curBits [8]byte
	encodeFloat64(initBits[:], v.InitialNetValue)
	encodeFloat64(curBits[:], v.CurrentNetValue)
	e.WriteRaw(initBits[:])
	e.WriteRaw(curBits[:])
	e.WriteVarInt(v.TotalUnits)
	return e.Bytes()
}

func DecodeValidator(b []byte) (Validator, error) {
	d := NewDecoder(b)
	var v Validator
	var err error
	if v.Name, err = decodeName128(d, "name"); err != nil {
		return v, err
	}
	if v.Signer, err = decodePublicKey(d, "signer"); err != nil {
		return v, err
	}
	if v.Withdraw, err = decodeAddress(d, "withdraw"); err != nil {
		return v, err
	}
	if v.Manage, err = decodePermission(d, "manage"); err != nil {
		return v, err
	}
	if v.Commission, err = d.ReadFixedU32(); err != nil {
		return v, err
	}
	initBits, err := d.ReadRaw(8)
	if err != nil {
		return v, err
	}
	v.InitialNetValue = decodeFloat64(initBits)
	curBits, err := d.ReadRaw(8)
	if err != nil {
		return v, err
	}
	v.CurrentNetValue = decodeFloat64(curBits)
	if v.TotalUnits, err = d.ReadVarInt(); err != nil {
		return v, err
	}
	if err := d.Finish(); err != nil {
		return v, err
	}
	return v, nil
}

// StakePool is the per-symbol staking curve configuration and running
// totals: demand_r/t/q/w and fixed_r/t parameterize the active/fixed
// conversion curve described in spec.md §4.7; Total and PurchaseThreshold
// gate new stake purchases.
type StakePool struct {
	SymID             uint32
	DemandR           float64
	DemandT           float64
	DemandQ           float64
	DemandW           float64
	FixedR            float64
	FixedT            float64
	BeginTime         time.Time
	Total             int64
	PurchaseThreshold int64
}

func (p StakePool) Encode() []byte {
	e := NewEncoder()
	e.WriteFixedU32(p.SymID)
	for _, f := range []float64{p.DemandR, p.DemandT, p.DemandQ, p.DemandW, p.FixedR, p.FixedT} {
		var bits [8]byte
		encodeFloat64(bits[:], f)
		e.WriteRaw(bits[:])
	}
	e.WriteFixedU64(uint64(p.BeginTime.UnixMicro()))
	e.WriteVarInt(p.Total)
	e.WriteVarInt(p.PurchaseThreshold)
	return e.Bytes()
}

func DecodeStakePool(b []byte) (StakePool, error) {
	d := NewDecoder(b)
	var p StakePool
	var err error
	if p.SymID, err = d.ReadFixedU32(); err != nil {
		return p, err
	}
	fields := make([]*float64, 6)
	fields[0], fields[1], fields[2] = &p.DemandR, &p.DemandT, &p.DemandQ
	fields[3], fields[4], fields[5] = &p.DemandW, &p.FixedR, &p.FixedT
	for _, f := range fields {
		bits, err := d.ReadRaw(8)
		if err != nil {
			return p, err
		}
		*f = decodeFloat64(bits)
	}
	ts, err := d.ReadFixedU64()
	if err != nil {
		return p, err
	}
	p.BeginTime = time.UnixMicro(int64(ts)).UTC()
	if p.Total, err = d.ReadVarInt(); err != nil {
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

// NetValueForUnits converts a unit count to its current principal+yield
// value under the pool's current net value, used when settling an unstake.
func (p StakePool) NetValueForUnits(units int64, currentNetValue float64) int64 {
	return int64(float64(units) * currentNetValue)
}
