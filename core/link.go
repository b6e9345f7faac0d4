package core

import "github.com/google/uuid"

// LinkID is the 128-bit deduplication key carried by every everipass/
// everipay link. A given LinkID may be consumed at most once in the
// chain's history (spec.md §3).
type LinkID [16]byte

func NewLinkID() LinkID {
	return LinkID(uuid.New())
}

func (l LinkID) String() string {
	return uuid.UUID(l).String()
}

// Link header flag bits, packed into a single byte: bit 0 is the version
// marker (must be set for a valid link), bits 1-2 select the link type.
const (
	linkFlagVersion1  byte = 1 << 0
	linkFlagEveriPass byte = 1 << 1
	linkFlagEveriPay  byte = 1 << 2
	linkFlagDestroy   byte = 1 << 3
)

type LinkType uint8

const (
	LinkTypeUnknown LinkType = iota
	LinkTypeEveriPass
	LinkTypeEveriPay
)

// Link is the decoded form of the compact binary blob carried by
// everipass/everipay actions: a 1-byte header followed by a tagged segment
// list. Segment tags are defined in segment* consts below.
type Link struct {
	Type       LinkType
	Timestamp  uint32
	Domain     Name128
	Token      Name128
	SymbolID   uint32
	MaxPay     uint32
	MaxPayStr  string
	LinkID     LinkID
	Keys       []PublicKey
	hasDomain  bool
	hasToken   bool
	hasSymbol  bool
	hasMaxPay  bool
	hasMaxPayStr bool
	hasLinkID bool
	Destroy   bool
}

func (l Link) HasDomain() bool    { return l.hasDomain }
func (l Link) HasToken() bool     { return l.hasToken }
func (l Link) HasSymbolID() bool  { return l.hasSymbol }
func (l Link) HasMaxPay() bool    { return l.hasMaxPay }
func (l Link) HasMaxPayStr() bool { return l.hasMaxPayStr }
func (l Link) HasLinkID() bool    { return l.hasLinkID }

// WithDestroy marks an everipass link as requesting the token be destroyed
// rather than merely passed.
func (l Link) WithDestroy() Link { l.Destroy = true; return l }

const (
	segmentTimestamp byte = 1
	segmentDomain    byte = 2
	segmentToken     byte = 3
	segmentSymbolID  byte = 4
	segmentMaxPay    byte = 5
	segmentMaxPayStr byte = 6
	segmentLinkID    byte = 7
	segmentKeys      byte = 8
)

func (l Link) Encode() []byte {
	e := NewEncoder()
	header := linkFlagVersion1
	switch l.Type {
	case LinkTypeEveriPass:
		header |= linkFlagEveriPass
	case LinkTypeEveriPay:
		header |= linkFlagEveriPay
	}
	if l.Destroy {
		header |= linkFlagDestroy
	}
	e.WriteByte(header)

	e.WriteByte(segmentTimestamp)
	e.WriteFixedU32(l.Timestamp)

	if l.hasDomain {
		e.WriteByte(segmentDomain)
		encodeName128(e, l.Domain)
	}
	if l.hasToken {
		e.WriteByte(segmentToken)
		encodeName128(e, l.Token)
	}
	if l.hasSymbol {
		e.WriteByte(segmentSymbolID)
		e.WriteFixedU32(l.SymbolID)
	}
	if l.hasMaxPay {
		e.WriteByte(segmentMaxPay)
		e.WriteFixedU32(l.MaxPay)
	}
	if l.hasMaxPayStr {
		e.WriteByte(segmentMaxPayStr)
		e.WriteString(l.MaxPayStr)
	}
	if l.hasLinkID {
		e.WriteByte(segmentLinkID)
		e.WriteRaw(l.LinkID[:])
	}
	if l.Keys != nil {
		e.WriteByte(segmentKeys)
		e.WriteVarUint(uint64(len(l.Keys)))
		for _, k := range l.Keys {
			encodePublicKey(e, k)
		}
	}
	return e.Bytes()
}

// DecodeLink parses the compact link blob used by everipass/everipay. A
// link is invalid unless the header carries version1 and exactly one of
// everiPass or everiPay (spec.md §6).
func DecodeLink(b []byte) (Link, error) {
	d := NewDecoder(b)
	header, err := d.ReadByte()
	if err != nil {
		return Link{}, err
	}
	if header&linkFlagVersion1 == 0 {
		return Link{}, newChainError(ErrInvalidLinkVersion, "link missing version1 flag")
	}
	isPass := header&linkFlagEveriPass != 0
	isPay := header&linkFlagEveriPay != 0
	if isPass == isPay {
		return Link{}, newChainError(ErrInvalidLinkType, "link must carry exactly one of everiPass or everiPay")
	}
	var l Link
	if isPass {
		l.Type = LinkTypeEveriPass
	} else {
		l.Type = LinkTypeEveriPay
	}
	l.Destroy = header&linkFlagDestroy != 0

	for d.remaining() > 0 {
		tag, err := d.ReadByte()
		if err != nil {
			return Link{}, err
		}
		switch tag {
		case segmentTimestamp:
			ts, err := d.ReadFixedU32()
			if err != nil {
				return Link{}, err
			}
			l.Timestamp = ts
		case segmentDomain:
			dom, err := decodeName128(d, "domain")
			if err != nil {
				return Link{}, err
			}
			l.Domain = dom
			l.hasDomain = true
		case segmentToken:
			tok, err := decodeName128(d, "token")
			if err != nil {
				return Link{}, err
			}
			l.Token = tok
			l.hasToken = true
		case segmentSymbolID:
			sym, err := d.ReadFixedU32()
			if err != nil {
				return Link{}, err
			}
			l.SymbolID = sym
			l.hasSymbol = true
		case segmentMaxPay:
			mp, err := d.ReadFixedU32()
			if err != nil {
				return Link{}, err
			}
			l.MaxPay = mp
			l.hasMaxPay = true
		case segmentMaxPayStr:
			s, err := d.ReadString()
			if err != nil {
				return Link{}, err
			}
			l.MaxPayStr = s
			l.hasMaxPayStr = true
		case segmentLinkID:
			raw, err := d.ReadRaw(16)
			if err != nil {
				return Link{}, err
			}
			copy(l.LinkID[:], raw)
			l.hasLinkID = true
		case segmentKeys:
			n, err := d.ReadVarUint()
			if err != nil {
				return Link{}, err
			}
			l.Keys = make([]PublicKey, 0, n)
			for i := uint64(0); i < n; i++ {
				k, err := decodePublicKey(d, "key")
				if err != nil {
					return Link{}, err
				}
				l.Keys = append(l.Keys, k)
			}
		default:
			return Link{}, d.fail("unrecognized link segment tag", "tag", tag)
		}
	}
	return l, nil
}

// WithDomain, WithToken, WithSymbolID, WithMaxPay, WithMaxPayStr and
// WithLinkID are builder-style setters used by tests and by action handlers
// constructing links to encode.
func (l Link) WithDomain(name Name128) Link     { l.Domain = name; l.hasDomain = true; return l }
func (l Link) WithToken(name Name128) Link      { l.Token = name; l.hasToken = true; return l }
func (l Link) WithSymbolID(id uint32) Link      { l.SymbolID = id; l.hasSymbol = true; return l }
func (l Link) WithMaxPay(v uint32) Link         { l.MaxPay = v; l.hasMaxPay = true; return l }
func (l Link) WithMaxPayStr(s string) Link      { l.MaxPayStr = s; l.hasMaxPayStr = true; return l }
func (l Link) WithLinkID(id LinkID) Link        { l.LinkID = id; l.hasLinkID = true; return l }

// LinkRecord is the TDB "jmzk_link" token: the dedup record stored once a
// link_id has been consumed, binding it to the transaction that consumed it.
type LinkRecord struct {
	LinkID LinkID
	TrxID  Hash
}

func (r LinkRecord) Encode() []byte {
	e := NewEncoder()
	e.WriteRaw(r.LinkID[:])
	encodeHash(e, r.TrxID)
	return e.Bytes()
}

func DecodeLinkRecord(b []byte) (LinkRecord, error) {
	d := NewDecoder(b)
	var r LinkRecord
	raw, err := d.ReadRaw(16)
	if err != nil {
		return r, err
	}
	copy(r.LinkID[:], raw)
	if r.TrxID, err = decodeHash(d, "trx_id"); err != nil {
		return r, err
	}
	if err := d.Finish(); err != nil {
		return r, err
	}
	return r, nil
}
