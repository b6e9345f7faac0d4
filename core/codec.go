package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder builds the canonical deterministic byte encoding described in
// spec.md §4.1: fixed-width little-endian for integers/floats,
// varint-length-prefixed for byte strings/sequences, a 1-byte discriminant
// then payload for tagged unions, signed zigzag for varints, and maps
// encoded as a varint count followed by (key,value) pairs in insertion
// order. The same encoder is used for TDB record values and for link
// payload bodies (spec.md §6).
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder { return &Encoder{buf: make([]byte, 0, 64)} }

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

func (e *Encoder) WriteBool(b bool) {
	if b {
		e.WriteByte(1)
	} else {
		e.WriteByte(0)
	}
}

func (e *Encoder) WriteFixedU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteFixedU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// WriteVarUint writes v as an unsigned LEB128 varint.
func (e *Encoder) WriteVarUint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteVarInt zigzag-encodes a signed integer then writes it as a varint.
func (e *Encoder) WriteVarInt(v int64) {
	zz := uint64((v << 1) ^ (v >> 63))
	e.WriteVarUint(zz)
}

// WriteBytes writes a varint length prefix followed by the raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteVarUint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteString writes a varint-length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) {
	e.WriteBytes([]byte(s))
}

// WriteRaw appends fixed-width bytes with no length prefix, for fields whose
// width is implied by the type (Name, Name128, Hash, public keys...).
func (e *Encoder) WriteRaw(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteDiscriminant writes the 1-byte tag of a tagged union.
func (e *Encoder) WriteDiscriminant(tag byte) { e.WriteByte(tag) }

// Decoder reads the canonical encoding produced by Encoder. After decoding a
// record the input buffer MUST be fully consumed; DecodeError(trailing_bytes)
// is returned by Finish if not.
type Decoder struct {
	buf []byte
	pos int
	// path tracks the field currently being decoded for error reporting.
	path []string
}

func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

func (d *Decoder) push(field string) { d.path = append(d.path, field) }
func (d *Decoder) pop()              { d.path = d.path[:len(d.path)-1] }

func (d *Decoder) pathString() string {
	s := ""
	for i, p := range d.path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

func (d *Decoder) fail(msg string, kv ...any) error {
	return newChainError(ErrDecode, msg, kv...).withPath(d.pathString())
}

func (d *Decoder) remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) need(n int) error {
	if d.remaining() < n {
		return d.fail("truncated", "need", n, "have", d.remaining())
	}
	return nil
}

func (d *Decoder) ReadByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	if b > 1 {
		return false, d.fail("bad bool value", "value", b)
	}
	return b == 1, nil
}

func (d *Decoder) ReadFixedU32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) ReadFixedU64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *Decoder) ReadVarUint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if shift >= 70 {
			return 0, d.fail("oversize varint")
		}
		b, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, nil
}

func (d *Decoder) ReadVarInt() (int64, error) {
	zz, err := d.ReadVarUint()
	if err != nil {
		return 0, err
	}
	return int64(zz>>1) ^ -int64(zz&1), nil
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if n > uint64(1<<28) {
		return nil, d.fail("oversize byte string", "len", n)
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadRaw reads exactly n fixed-width bytes.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+n])
	d.pos += n
	return out, nil
}

func (d *Decoder) ReadDiscriminant() (byte, error) {
	return d.ReadByte()
}

// Finish verifies that the input buffer was fully consumed. Trailing bytes
// are a hard error per spec.md §4.1.
func (d *Decoder) Finish() error {
	if d.remaining() != 0 {
		return d.fail("trailing bytes", "remaining", d.remaining())
	}
	return nil
}

// --- helpers shared by record types ---------------------------------------

func encodeName(e *Encoder, n Name)       { e.WriteRaw(n[:]) }
func encodeName128(e *Encoder, n Name128) { e.WriteRaw(n[:]) }
func encodeHash(e *Encoder, h Hash)       { e.WriteRaw(h[:]) }

func decodeName(d *Decoder, field string) (Name, error) {
	d.push(field)
	defer d.pop()
	var n Name
	b, err := d.ReadRaw(len(n))
	if err != nil {
		return n, err
	}
	copy(n[:], b)
	return n, nil
}

func decodeName128(d *Decoder, field string) (Name128, error) {
	d.push(field)
	defer d.pop()
	var n Name128
	b, err := d.ReadRaw(len(n))
	if err != nil {
		return n, err
	}
	copy(n[:], b)
	return n, nil
}

func decodeHash(d *Decoder, field string) (Hash, error) {
	d.push(field)
	defer d.pop()
	var h Hash
	b, err := d.ReadRaw(len(h))
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func encodePublicKey(e *Encoder, k PublicKey) {
	e.WriteByte(k.Curve)
	e.WriteRaw(k.Data[:])
}

func decodePublicKey(d *Decoder, field string) (PublicKey, error) {
	d.push(field)
	defer d.pop()
	var k PublicKey
	curve, err := d.ReadByte()
	if err != nil {
		return k, err
	}
	b, err := d.ReadRaw(len(k.Data))
	if err != nil {
		return k, err
	}
	k.Curve = curve
	copy(k.Data[:], b)
	return k, nil
}

func encodeSignature(e *Encoder, s Signature) {
	e.WriteByte(s.Curve)
	e.WriteRaw(s.Data[:])
}

func decodeSignature(d *Decoder, field string) (Signature, error) {
	d.push(field)
	defer d.pop()
	var s Signature
	curve, err := d.ReadByte()
	if err != nil {
		return s, err
	}
	b, err := d.ReadRaw(len(s.Data))
	if err != nil {
		return s, err
	}
	s.Curve = curve
	copy(s.Data[:], b)
	return s, nil
}

const (
	addrTagReserved  byte = 0
	addrTagPublicKey byte = 1
	addrTagGenerated byte = 2
)

func encodeAddress(e *Encoder, a Address) {
	switch a.Kind {
	case AddressReserved:
		e.WriteDiscriminant(addrTagReserved)
	case AddressPublicKey:
		e.WriteDiscriminant(addrTagPublicKey)
		encodePublicKey(e, a.Key)
	case AddressGenerated:
		e.WriteDiscriminant(addrTagGenerated)
		encodeName(e, a.Prefix)
		encodeName128(e, a.Name)
		e.WriteFixedU32(a.Nonce)
	}
}

func decodeAddress(d *Decoder, field string) (Address, error) {
	d.push(field)
	defer d.pop()
	tag, err := d.ReadDiscriminant()
	if err != nil {
		return Address{}, err
	}
	switch tag {
	case addrTagReserved:
		return ReservedAddress, nil
	case addrTagPublicKey:
		k, err := decodePublicKey(d, "key")
		if err != nil {
			return Address{}, err
		}
		return PublicKeyAddress(k), nil
	case addrTagGenerated:
		prefix, err := decodeName(d, "prefix")
		if err != nil {
			return Address{}, err
		}
		name, err := decodeName128(d, "name")
		if err != nil {
			return Address{}, err
		}
		nonce, err := d.ReadFixedU32()
		if err != nil {
			return Address{}, err
		}
		return GeneratedAddress(prefix, name, nonce), nil
	default:
		return Address{}, d.fail(fmt.Sprintf("bad address discriminant %d", tag))
	}
}

func encodeSymbol(e *Encoder, s Symbol) {
	e.WriteByte(s.Precision)
	e.WriteFixedU32(s.ID)
}

// encodeFloat64 writes v's IEEE-754 bits little-endian into a caller-owned
// 8-byte slice, used for net_value snapshots in staking records.
func encodeFloat64(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}

func decodeFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func decodeSymbol(d *Decoder, field string) (Symbol, error) {
	d.push(field)
	defer d.pop()
	p, err := d.ReadByte()
	if err != nil {
		return Symbol{}, err
	}
	id, err := d.ReadFixedU32()
	if err != nil {
		return Symbol{}, err
	}
	return Symbol{Precision: p, ID: id}, nil
}
