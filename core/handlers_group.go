package core

// NewGroupPayload is the decoded newgroup action payload.
type NewGroupPayload struct {
	Name  Name128
	Group Group
}

func (p NewGroupPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Name)
	e.WriteBytes(p.Group.Encode())
	return e.Bytes()
}

func DecodeNewGroupPayload(b []byte) (NewGroupPayload, error) {
	d := NewDecoder(b)
	var p NewGroupPayload
	var err error
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	raw, err := d.ReadBytes()
	if err != nil {
		return p, err
	}
	if p.Group, err = DecodeGroup(raw); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleNewGroup implements newgroup: spec.md §4.7. Authority requires
// satisfaction of group.key unless the key is reserved (a reserved key
// means the group can never again be updated and needs no creation
// authority either, mirroring the source's check_authority<newgroup>).
func HandleNewGroup(tc *TransactionContext, act *Action) error {
	p, err := DecodeNewGroupPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Name.Reserved() {
		return newChainError(ErrInvalidType, "group name is reserved", "name", p.Name.String())
	}
	if p.Group.Name != p.Name {
		return newChainError(ErrInvalidType, "group name does not match action name",
			"action", p.Name.String(), "group", p.Group.Name.String())
	}
	if p.Group.Key.IsGenerated() {
		return newChainError(ErrInvalidType, "group key cannot be a generated address")
	}
	if tc.DB.ExistsToken(TokenTypeGroup, "", p.Name.String()) {
		return newChainError(ErrGroupExists, "group already exists", "name", p.Name.String())
	}
	if err := p.Group.ValidateStructure(); err != nil {
		return err
	}
	if !p.Group.Key.IsReserved() {
		if !p.Group.Key.IsPublicKey() {
			return newChainError(ErrInvalidType, "group key must be a public key or reserved address")
		}
		if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
			{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: p.Group.Key.Key}, Weight: 1},
		}}, nil); err != nil {
			return err
		}
	}
	return PutToken(tc.Cache, PutOpAdd, TokenTypeGroup, "", p.Name.String(), &p.Group, (*Group).Encode)
}

// UpdateGroupPayload is the decoded updategroup action payload.
type UpdateGroupPayload struct {
	Name  Name128
	Group Group
}

func (p UpdateGroupPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Name)
	e.WriteBytes(p.Group.Encode())
	return e.Bytes()
}

func DecodeUpdateGroupPayload(b []byte) (UpdateGroupPayload, error) {
	d := NewDecoder(b)
	var p UpdateGroupPayload
	var err error
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	raw, err := d.ReadBytes()
	if err != nil {
		return p, err
	}
	if p.Group, err = DecodeGroup(raw); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleUpdateGroup implements updategroup: spec.md §4.7. The existing
// group's key must not be reserved (a reserved-key group can never be
// updated); authority requires satisfaction of the current key.
func HandleUpdateGroup(tc *TransactionContext, act *Action) error {
	p, err := DecodeUpdateGroupPayload(act.Data)
	if err != nil {
		return err
	}
	existing, err := ReadToken(tc.Cache, TokenTypeGroup, "", p.Name.String(), false, DecodeGroup)
	if err != nil {
		return err
	}
	if existing.Key.IsReserved() {
		return newChainError(ErrInvalidPermission, "group with reserved key cannot be updated")
	}
	if !existing.Key.IsPublicKey() {
		return newChainError(ErrInvalidType, "group key must be a public key")
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: existing.Key.Key}, Weight: 1},
	}}, nil); err != nil {
		return err
	}
	if p.Group.Name != p.Name {
		return newChainError(ErrInvalidType, "group name does not match action name")
	}
	if err := p.Group.ValidateStructure(); err != nil {
		return err
	}
	*existing = p.Group
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeGroup, "", p.Name.String(), existing, (*Group).Encode)
}
