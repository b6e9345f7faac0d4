package core

// AuthorizerKind tags which kind of authorizer a permission entry names.
type AuthorizerKind uint8

const (
	AuthorizerAccount AuthorizerKind = iota
	AuthorizerOwner
	AuthorizerGroup
	AuthorizerScript
)

// AuthorizerRef names one authorizer within a permission: an account
// (public-key address), the owner relation, a named group, or a named
// script.
type AuthorizerRef struct {
	Kind AuthorizerKind
	Key  PublicKey // AuthorizerAccount
	Name Name128   // AuthorizerGroup / AuthorizerScript
}

// AuthorizerWeight pairs an authorizer reference with its weight in the
// threshold sum.
type AuthorizerWeight struct {
	Ref    AuthorizerRef
	Weight uint32
}

// PermissionDef is a weighted-threshold authorizer list, e.g. a domain's
// issue/transfer/manage permission.
type PermissionDef struct {
	Name      Name // must equal "issue", "transfer" or "manage" for domain/fungible permissions
	Threshold uint32
	Authorizers []AuthorizerWeight
}

// Validate enforces spec.md §4.7's structural rules for a permission
// definition: threshold > 0, every authorizer weight > 0, the sum of
// weights reaches the threshold, no authorizer is duplicated, and an owner
// authorizer is only allowed when ownerAllowed is true (transfer
// permissions only).
func (p PermissionDef) Validate(ownerAllowed bool, groupExists func(Name128) bool) error {
	if p.Threshold == 0 {
		return newChainError(ErrInvalidPermission, "permission threshold must be positive", "permission", p.Name.String())
	}
	if len(p.Authorizers) == 0 {
		return newChainError(ErrInvalidPermission, "permission has no authorizers", "permission", p.Name.String())
	}
	seen := make(map[AuthorizerRef]struct{}, len(p.Authorizers))
	var sum uint64
	for _, aw := range p.Authorizers {
		if aw.Weight == 0 {
			return newChainError(ErrInvalidPermission, "authorizer weight must be positive")
		}
		if aw.Ref.Kind == AuthorizerOwner && !ownerAllowed {
			return newChainError(ErrInvalidPermission, "owner authorizer only allowed in transfer permission")
		}
		if aw.Ref.Kind == AuthorizerGroup && groupExists != nil && !groupExists(aw.Ref.Name) {
			return newChainError(ErrInvalidPermission, "referenced group does not exist", "group", aw.Ref.Name.String())
		}
		if _, dup := seen[aw.Ref]; dup {
			return newChainError(ErrInvalidPermission, "duplicate authorizer in permission")
		}
		seen[aw.Ref] = struct{}{}
		sum += uint64(aw.Weight)
	}
	if sum < uint64(p.Threshold) {
		return newChainError(ErrInvalidPermission, "sum of authorizer weights below threshold",
			"sum", sum, "threshold", p.Threshold)
	}
	return nil
}

func (p PermissionDef) encode(e *Encoder) {
	encodeName(e, p.Name)
	e.WriteFixedU32(p.Threshold)
	e.WriteVarUint(uint64(len(p.Authorizers)))
	for _, aw := range p.Authorizers {
		e.WriteByte(byte(aw.Ref.Kind))
		switch aw.Ref.Kind {
		case AuthorizerAccount:
			encodePublicKey(e, aw.Ref.Key)
		case AuthorizerGroup, AuthorizerScript:
			encodeName128(e, aw.Ref.Name)
		case AuthorizerOwner:
			// no payload
		}
		e.WriteFixedU32(aw.Weight)
	}
}

func decodePermission(d *Decoder, field string) (PermissionDef, error) {
	d.push(field)
	defer d.pop()
	var p PermissionDef
	name, err := decodeName(d, "name")
	if err != nil {
		return p, err
	}
	p.Name = name
	threshold, err := d.ReadFixedU32()
	if err != nil {
		return p, err
	}
	p.Threshold = threshold
	n, err := d.ReadVarUint()
	if err != nil {
		return p, err
	}
	p.Authorizers = make([]AuthorizerWeight, 0, n)
	for i := uint64(0); i < n; i++ {
		kindByte, err := d.ReadByte()
		if err != nil {
			return p, err
		}
		ref := AuthorizerRef{Kind: AuthorizerKind(kindByte)}
		switch ref.Kind {
		case AuthorizerAccount:
			k, err := decodePublicKey(d, "key")
			if err != nil {
				return p, err
			}
			ref.Key = k
		case AuthorizerGroup, AuthorizerScript:
			nm, err := decodeName128(d, "name")
			if err != nil {
				return p, err
			}
			ref.Name = nm
		case AuthorizerOwner:
			// no payload
		default:
			return p, d.fail("bad authorizer kind")
		}
		weight, err := d.ReadFixedU32()
		if err != nil {
			return p, err
		}
		p.Authorizers = append(p.Authorizers, AuthorizerWeight{Ref: ref, Weight: weight})
	}
	return p, nil
}
