// Package core implements the jmzk/EVT state-transition core: the token
// database, its write-through cache, the action execution pipeline and the
// authority checker described in the project specification. It is consumed
// as a library by an external controller that supplies the block/transaction
// stream; this package never does its own networking, consensus or framing.
package core

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Name is a 13-byte packed label drawn from the alphabet [.a-z1-5].
type Name [13]byte

var nameAlphabet = "." + "abcdefghijklmnopqrstuvwxyz" + "12345"

var nameCharsetRe = regexp.MustCompile(`^[.a-z1-5]*$`)

// NewName packs s into a Name. s must be no longer than 13 characters drawn
// from the Name alphabet.
func NewName(s string) (Name, error) {
	var n Name
	if len(s) > len(n) {
		return n, newChainError(ErrInvalidType, "name longer than 13 bytes", "len", len(s))
	}
	if !nameCharsetRe.MatchString(s) {
		return n, newChainError(ErrInvalidType, "name has invalid characters", "value", s)
	}
	copy(n[:], s)
	return n, nil
}

// String renders the packed label, trimming trailing zero bytes.
func (n Name) String() string {
	return strings.TrimRight(string(n[:]), "\x00")
}

// Reserved reports whether the name is reserved for system use (first byte
// is '.').
func (n Name) Reserved() bool {
	return len(n.String()) > 0 && n[0] == '.'
}

// Name128 is a 21-byte packed label used for domain and token names.
type Name128 [21]byte

// NewName128 packs s into a Name128.
func NewName128(s string) (Name128, error) {
	var n Name128
	if len(s) > len(n) {
		return n, newChainError(ErrInvalidType, "name128 longer than 21 bytes", "len", len(s))
	}
	if !nameCharsetRe.MatchString(s) {
		return n, newChainError(ErrInvalidType, "name128 has invalid characters", "value", s)
	}
	copy(n[:], s)
	return n, nil
}

func (n Name128) String() string {
	return strings.TrimRight(string(n[:]), "\x00")
}

// Reserved reports whether the name128 is reserved (first byte is '.').
func (n Name128) Reserved() bool {
	return len(n.String()) > 0 && n[0] == '.'
}

// Well-known reserved Name128 prefixes used to target metadata at
// collections other than a specific domain/token.
var (
	GroupMetaTarget    = mustName128(".group")
	FungibleMetaTarget = mustName128(".fungible")
	SuspendDomain      = mustName128(".suspend")
	FungibleAddrPrefix  = mustName("fungible")
	BonusAddrPrefix     = mustName("psvbonus")
	ValidatorAddrPrefix = mustName("validator")
	// RootGroupName is the genesis-seeded governance group whose
	// satisfaction newstakepool/updstakepool require, in place of a
	// jmzk_org reference resolved from controller genesis state.
	RootGroupName = mustName128(".root")
)

func mustName128(s string) Name128 {
	n, err := NewName128(s)
	if err != nil {
		panic(err)
	}
	return n
}

func mustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// PublicKey is a curve-tagged fixed-width public key.
type PublicKey struct {
	Curve byte
	Data  [33]byte // compressed secp256k1 point
}

func (k PublicKey) String() string {
	return fmt.Sprintf("PUB_K1_%s", hex.EncodeToString(k.Data[:]))
}

func (k PublicKey) IsEmpty() bool {
	return k.Curve == 0 && k.Data == [33]byte{}
}

// Signature is a curve-tagged fixed-width signature.
type Signature struct {
	Curve byte
	Data  [65]byte
}

// Symbol identifies a fungible asset: its decimal precision and numeric id.
// id 1 is reserved for jmzk, id 2 for pjmzk.
type Symbol struct {
	Precision uint8
	ID        uint32
}

const (
	SymbolIDjmzk  uint32 = 1
	SymbolIDpjmzk uint32 = 2
)

func (s Symbol) Valid() bool {
	return s.Precision <= 18
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%d", s.Precision, s.ID)
}

// AddressKind tags the union held by Address.
type AddressKind uint8

const (
	AddressReserved AddressKind = iota
	AddressPublicKey
	AddressGenerated
)

// Address is a tagged union identifying an owner of tokens or assets: either
// the reserved (burn) address, a public key, or a synthetically generated
// address tied to another entity (prefix, key, nonce).
type Address struct {
	Kind   AddressKind
	Key    PublicKey
	Prefix Name
	Name   Name128
	Nonce  uint32
}

// ReservedAddress is the single reserved address value, used to mark
// destroyed tokens and as the address for system-owned fungible pools.
var ReservedAddress = Address{Kind: AddressReserved}

// PublicKeyAddress wraps a public key as an address.
func PublicKeyAddress(k PublicKey) Address {
	return Address{Kind: AddressPublicKey, Key: k}
}

// GeneratedAddress derives a synthetic address from a prefix name, a
// name128 key and a nonce. It is used for the fungible "initial address"
// (prefix "fungible", key = symbol id, nonce 0), the passive-bonus
// collection address (prefix "psvbonus"), and group-backed owner
// references (prefix ".group").
func GeneratedAddress(prefix Name, key Name128, nonce uint32) Address {
	return Address{Kind: AddressGenerated, Prefix: prefix, Name: key, Nonce: nonce}
}

// FungibleAddress is the address holding a fungible's unissued supply,
// keyed by the symbol id packed as a Name128 (the Name128 alphabet excludes
// '0' and '6'-'9', so the id is encoded in base 31 using letters 'a'-'z'
// and digits '1'-'5').
func FungibleAddress(symID uint32) Address {
	return GeneratedAddress(FungibleAddrPrefix, encodeSymIDName128(symID), 0)
}

// BonusAddress is the address collecting passive-bonus deductions for a
// fungible symbol.
func BonusAddress(symID uint32) Address {
	return GeneratedAddress(BonusAddrPrefix, encodeSymIDName128(symID), 0)
}

// encodeSymIDName128 packs a symbol id into the Name128 alphabet without
// its '.' ("abcdefghijklmnopqrstuvwxyz12345", 31 symbols, 'a' is zero) so it
// can serve as the Name128 component of a generated address.
func encodeSymIDName128(symID uint32) Name128 {
	const alphabet = "abcdefghijklmnopqrstuvwxyz12345"
	const base = uint32(len(alphabet))
	if symID == 0 {
		n, _ := NewName128("a")
		return n
	}
	var digits []byte
	v := symID
	for v > 0 {
		digits = append([]byte{alphabet[v%base]}, digits...)
		v /= base
	}
	n, err := NewName128(string(digits))
	if err != nil {
		panic(err)
	}
	return n
}

func (a Address) IsReserved() bool {
	return a.Kind == AddressReserved
}

func (a Address) IsPublicKey() bool {
	return a.Kind == AddressPublicKey
}

func (a Address) IsGenerated() bool {
	return a.Kind == AddressGenerated
}

// IsGroupOwner reports whether a generated address is the ".group" owner
// reference used by a transfer permission's owner authorizer.
func (a Address) IsGroupOwner() bool {
	return a.Kind == AddressGenerated && a.Prefix.String() == ".group"
}

func (a Address) String() string {
	switch a.Kind {
	case AddressReserved:
		return "EVT00000000000000000000000000000000000000000000000000"
	case AddressPublicKey:
		return a.Key.String()
	case AddressGenerated:
		return fmt.Sprintf("EVT@%s.%s.%d", a.Prefix.String(), a.Name.String(), a.Nonce)
	default:
		return "EVT<invalid>"
	}
}

// Hash is a 32-byte cryptographic digest.
type Hash [32]byte

func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }
