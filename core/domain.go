package core

import "time"

// Domain is a namespace grouping non-fungible tokens and their permissions.
// Domains are created by newdomain, mutated by updatedomain/addmeta, and
// never destroyed.
type Domain struct {
	Name       Name128
	Creator    PublicKey
	CreateTime time.Time
	Issue      PermissionDef
	Transfer   PermissionDef
	Manage     PermissionDef
	Metas      []Metadata
}

// Metadata is a single key/value annotation attached to a domain, token,
// group or fungible, recording who added it.
type Metadata struct {
	Key     Name128
	Value   string
	Creator Address
}

func (d Domain) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, d.Name)
	encodePublicKey(e, d.Creator)
	e.WriteFixedU64(uint64(d.CreateTime.UnixMicro()))
	d.Issue.encode(e)
	d.Transfer.encode(e)
	d.Manage.encode(e)
	encodeMetas(e, d.Metas)
	return e.Bytes()
}

func DecodeDomain(b []byte) (Domain, error) {
	d := NewDecoder(b)
	var dom Domain
	name, err := decodeName128(d, "name")
	if err != nil {
		return dom, err
	}
	dom.Name = name
	creator, err := decodePublicKey(d, "creator")
	if err != nil {
		return dom, err
	}
	dom.Creator = creator
	ts, err := d.ReadFixedU64()
	if err != nil {
		return dom, err
	}
	dom.CreateTime = time.UnixMicro(int64(ts)).UTC()
	if dom.Issue, err = decodePermission(d, "issue"); err != nil {
		return dom, err
	}
	if dom.Transfer, err = decodePermission(d, "transfer"); err != nil {
		return dom, err
	}
	if dom.Manage, err = decodePermission(d, "manage"); err != nil {
		return dom, err
	}
	if dom.Metas, err = decodeMetas(d, "metas"); err != nil {
		return dom, err
	}
	if err := d.Finish(); err != nil {
		return dom, err
	}
	return dom, nil
}

func encodeMetas(e *Encoder, metas []Metadata) {
	e.WriteVarUint(uint64(len(metas)))
	for _, m := range metas {
		encodeName128(e, m.Key)
		e.WriteString(m.Value)
		encodeAddress(e, m.Creator)
	}
}

func decodeMetas(d *Decoder, field string) ([]Metadata, error) {
	d.push(field)
	defer d.pop()
	n, err := d.ReadVarUint()
	if err != nil {
		return nil, err
	}
	out := make([]Metadata, 0, n)
	for i := uint64(0); i < n; i++ {
		key, err := decodeName128(d, "key")
		if err != nil {
			return nil, err
		}
		val, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		creator, err := decodeAddress(d, "creator")
		if err != nil {
			return nil, err
		}
		out = append(out, Metadata{Key: key, Value: val, Creator: creator})
	}
	return out, nil
}

// HasMeta reports whether a metadata key is already present, per the
// "metadata key unique within target" rule of spec.md §4.7.
func HasMeta(metas []Metadata, key Name128) bool {
	for _, m := range metas {
		if m.Key == key {
			return true
		}
	}
	return false
}

// ValidatePermissionNames enforces the fixed naming rule for a domain's (or
// fungible's) three permissions: issue.name == "issue", transfer.name ==
// "transfer", manage.name == "manage".
func ValidatePermissionNames(issue, transfer, manage PermissionDef) error {
	if issue.Name.String() != "issue" {
		return newChainError(ErrInvalidPermission, "issue permission must be named 'issue'")
	}
	if transfer.Name.String() != "transfer" {
		return newChainError(ErrInvalidPermission, "transfer permission must be named 'transfer'")
	}
	if manage.Name.String() != "manage" {
		return newChainError(ErrInvalidPermission, "manage permission must be named 'manage'")
	}
	return nil
}
