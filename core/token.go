package core

// Token is a non-fungible, named item within a domain with an ordered
// owner list. Created by issuetoken; owners are replaced wholesale by
// transfer; destroytoken marks it destroyed by setting owners to
// [ReservedAddress]. Destroyed tokens are immutable.
type Token struct {
	Domain Name128
	Name   Name128
	Owners []Address
	Metas  []Metadata
}

// Destroyed reports whether the token has been destroyed: its owner list
// is exactly [ReservedAddress].
func (t Token) Destroyed() bool {
	return len(t.Owners) == 1 && t.Owners[0].IsReserved()
}

func (t Token) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, t.Domain)
	encodeName128(e, t.Name)
	e.WriteVarUint(uint64(len(t.Owners)))
	for _, o := range t.Owners {
		encodeAddress(e, o)
	}
	encodeMetas(e, t.Metas)
	return e.Bytes()
}

func DecodeToken(b []byte) (Token, error) {
	d := NewDecoder(b)
	var t Token
	var err error
	if t.Domain, err = decodeName128(d, "domain"); err != nil {
		return t, err
	}
	if t.Name, err = decodeName128(d, "name"); err != nil {
		return t, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return t, err
	}
	t.Owners = make([]Address, 0, n)
	for i := uint64(0); i < n; i++ {
		o, err := decodeAddress(d, "owner")
		if err != nil {
			return t, err
		}
		t.Owners = append(t.Owners, o)
	}
	if t.Metas, err = decodeMetas(d, "metas"); err != nil {
		return t, err
	}
	if err := d.Finish(); err != nil {
		return t, err
	}
	return t, nil
}
