package core

import (
	"bytes"
	"testing"
)

func TestVarUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		e := NewEncoder()
		e.WriteVarUint(v)
		d := NewDecoder(e.Bytes())
		got, err := d.ReadVarUint()
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("roundtrip mismatch: want %d got %d", v, got)
		}
		if err := d.Finish(); err != nil {
			t.Fatalf("trailing bytes for %d: %v", v, err)
		}
	}
}

func TestVarIntZigzagRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -64, 64, 1 << 30, -(1 << 30)}
	for _, v := range values {
		e := NewEncoder()
		e.WriteVarInt(v)
		d := NewDecoder(e.Bytes())
		got, err := d.ReadVarInt()
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("roundtrip mismatch: want %d got %d", v, got)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteBytes([]byte("hello, jmzk"))
	d := NewDecoder(e.Bytes())
	got, err := d.ReadBytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello, jmzk")) {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeTrailingBytesIsHardError(t *testing.T) {
	e := NewEncoder()
	e.WriteVarUint(1)
	e.WriteByte(0xFF) // extra byte
	d := NewDecoder(e.Bytes())
	if _, err := d.ReadVarUint(); err != nil {
		t.Fatal(err)
	}
	err := d.Finish()
	if err == nil {
		t.Fatal("expected trailing bytes error")
	}
	ce, ok := err.(*ChainError)
	if !ok || ce.Kind != ErrDecode {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestDecodeTruncatedIsError(t *testing.T) {
	d := NewDecoder([]byte{0x80}) // varint continuation with nothing after
	if _, err := d.ReadVarUint(); err == nil {
		t.Fatal("expected truncated error")
	}
}

func TestAddressCodecRoundTrip(t *testing.T) {
	cases := []Address{
		ReservedAddress,
		PublicKeyAddress(PublicKey{Curve: 1, Data: [33]byte{1, 2, 3}}),
		GeneratedAddress(mustName("fungible"), mustName128("1"), 0),
	}
	for _, a := range cases {
		e := NewEncoder()
		encodeAddress(e, a)
		d := NewDecoder(e.Bytes())
		got, err := decodeAddress(d, "addr")
		if err != nil {
			t.Fatal(err)
		}
		if got != a {
			t.Fatalf("roundtrip mismatch: want %+v got %+v", a, got)
		}
		if err := d.Finish(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNameReservedRule(t *testing.T) {
	n, err := NewName128(".group")
	if err != nil {
		t.Fatal(err)
	}
	if !n.Reserved() {
		t.Fatal("expected .group to be reserved")
	}
	n2, err := NewName128("cookie")
	if err != nil {
		t.Fatal(err)
	}
	if n2.Reserved() {
		t.Fatal("expected cookie to be non-reserved")
	}
}
