package core

import "testing"

func TestLinkEveriPassRoundTrip(t *testing.T) {
	dom, _ := NewName128("mydomain")
	tok, _ := NewName128("mytoken")
	var k PublicKey
	k.Curve = 1
	l := Link{Type: LinkTypeEveriPass, Timestamp: 12345}
	l = l.WithDomain(dom).WithToken(tok)
	l.Keys = []PublicKey{k}

	got, err := DecodeLink(l.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Type != LinkTypeEveriPass || got.Timestamp != 12345 {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !got.HasDomain() || got.Domain != dom {
		t.Fatalf("domain mismatch: %+v", got)
	}
	if len(got.Keys) != 1 || got.Keys[0] != k {
		t.Fatalf("keys mismatch: %+v", got.Keys)
	}
}

func TestLinkEveriPayRoundTrip(t *testing.T) {
	id := NewLinkID()
	l := Link{Type: LinkTypeEveriPay, Timestamp: 99}
	l = l.WithSymbolID(SymbolIDjmzk).WithMaxPay(500).WithLinkID(id)

	got, err := DecodeLink(l.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Type != LinkTypeEveriPay {
		t.Fatalf("expected everipay type")
	}
	if !got.HasSymbolID() || got.SymbolID != SymbolIDjmzk {
		t.Fatalf("symbol id mismatch: %+v", got)
	}
	if got.LinkID != id {
		t.Fatalf("link id mismatch")
	}
}

func TestLinkRequiresVersionFlag(t *testing.T) {
	_, err := DecodeLink([]byte{0x00, segmentTimestamp, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for missing version flag")
	}
	if k, _ := KindOf(err); k != ErrInvalidLinkVersion {
		t.Fatalf("expected ErrInvalidLinkVersion, got %v", k)
	}
}

func TestLinkRejectsBothPassAndPay(t *testing.T) {
	header := linkFlagVersion1 | linkFlagEveriPass | linkFlagEveriPay
	_, err := DecodeLink([]byte{header, segmentTimestamp, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for ambiguous link type")
	}
	if k, _ := KindOf(err); k != ErrInvalidLinkType {
		t.Fatalf("expected ErrInvalidLinkType, got %v", k)
	}
}

func TestLinkRejectsNeitherPassNorPay(t *testing.T) {
	_, err := DecodeLink([]byte{linkFlagVersion1, segmentTimestamp, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for missing link type")
	}
}

func TestLinkRecordEncodeDecodeRoundTrip(t *testing.T) {
	r := LinkRecord{LinkID: NewLinkID(), TrxID: Hash{1, 2, 3}}
	got, err := DecodeLinkRecord(r.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v != %+v", got, r)
	}
}
