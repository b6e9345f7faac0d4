package core

import "strconv"

// Sentinel domain/key values selecting addmeta's target, mirroring the
// source contract's act.domain/act.key dispatch.
var (
	metaTargetGroup    = mustName128(".group")
	metaTargetFungible = mustName128(".fungible")
	metaTargetDomain   = mustName128(".meta")
)

// AddMetaPayload is the decoded addmeta action payload. The target (group,
// fungible, domain or token) is selected by the enclosing Action's
// Domain/Key fields, not by this payload.
type AddMetaPayload struct {
	Key     Name128
	Value   string
	Creator Address
}

func (p AddMetaPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Key)
	e.WriteString(p.Value)
	encodeAddress(e, p.Creator)
	return e.Bytes()
}

func DecodeAddMetaPayload(b []byte) (AddMetaPayload, error) {
	d := NewDecoder(b)
	var p AddMetaPayload
	var err error
	if p.Key, err = decodeName128(d, "key"); err != nil {
		return p, err
	}
	if p.Value, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Creator, err = decodeAddress(d, "creator"); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// permissionInvolves reports whether creator structurally appears in perm's
// authorizer list: an account authorizer matching creator's key, or (when
// creator is itself a group reference) a group authorizer naming that
// group. This is a membership check, not a signature-satisfaction check;
// addmeta only requires the creator be a recognised participant.
func permissionInvolves(perm PermissionDef, creator Address) bool {
	for _, aw := range perm.Authorizers {
		switch aw.Ref.Kind {
		case AuthorizerAccount:
			if creator.IsPublicKey() && aw.Ref.Key == creator.Key {
				return true
			}
		case AuthorizerGroup:
			if creator.IsGroupOwner() && aw.Ref.Name == creator.Name {
				return true
			}
		}
	}
	return false
}

func ownersInclude(owners []Address, creator Address) bool {
	for _, o := range owners {
		if o == creator {
			return true
		}
	}
	return false
}

// HandleAddMeta implements addmeta: spec.md §4.7. act.Domain/act.Key select
// the target per the ".group"/".fungible"/".meta" sentinel convention;
// otherwise the target is the token named by (act.Domain, act.Key).
func HandleAddMeta(tc *TransactionContext, act *Action) error {
	p, err := DecodeAddMetaPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Key.Reserved() {
		return newChainError(ErrInvalidType, "metadata key is reserved", "key", p.Key.String())
	}

	switch {
	case act.Domain == metaTargetGroup:
		g, err := ReadToken(tc.Cache, TokenTypeGroup, "", act.Key.String(), false, DecodeGroup)
		if err != nil {
			return err
		}
		if HasMeta(g.Metas, p.Key) {
			return newChainError(ErrInvalidType, "metadata key already exists", "key", p.Key.String())
		}
		involved := false
		if p.Creator.IsGroupOwner() {
			involved = p.Creator.Name == g.Name
		} else {
			involved = g.Key == p.Creator
		}
		if !involved {
			return newChainError(ErrUnsatisfiedAuthorization, "creator not involved in group", "group", g.Name.String())
		}
		g.Metas = append(g.Metas, Metadata{Key: p.Key, Value: p.Value, Creator: p.Creator})
		return PutToken(tc.Cache, PutOpUpdate, TokenTypeGroup, "", act.Key.String(), g, (*Group).Encode)

	case act.Domain == metaTargetFungible:
		symID, convErr := strconv.ParseUint(act.Key.String(), 10, 32)
		if convErr != nil {
			return newChainError(ErrInvalidType, "addmeta fungible target key must be a symbol id", "key", act.Key.String())
		}
		f, err := ReadToken(tc.Cache, TokenTypeFungible, "", symbolKey(uint32(symID)), false, DecodeFungible)
		if err != nil {
			return err
		}
		if HasMeta(f.Metas, p.Key) {
			return newChainError(ErrInvalidType, "metadata key already exists", "key", p.Key.String())
		}
		involved := f.Creator == p.Creator || permissionInvolves(f.Manage, p.Creator)
		if !involved {
			return newChainError(ErrUnsatisfiedAuthorization, "creator not involved in fungible", "sym_id", symID)
		}
		f.Metas = append(f.Metas, Metadata{Key: p.Key, Value: p.Value, Creator: p.Creator})
		return PutToken(tc.Cache, PutOpUpdate, TokenTypeFungible, "", symbolKey(uint32(symID)), f, (*Fungible).Encode)

	case act.Key == metaTargetDomain:
		dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", act.Domain.String(), false, DecodeDomain)
		if err != nil {
			return err
		}
		if HasMeta(dom.Metas, p.Key) {
			return newChainError(ErrInvalidType, "metadata key already exists", "key", p.Key.String())
		}
		if !permissionInvolves(dom.Manage, p.Creator) {
			return newChainError(ErrUnsatisfiedAuthorization, "creator not involved in domain", "domain", act.Domain.String())
		}
		dom.Metas = append(dom.Metas, Metadata{Key: p.Key, Value: p.Value, Creator: p.Creator})
		return PutToken(tc.Cache, PutOpUpdate, TokenTypeDomain, "", act.Domain.String(), dom, (*Domain).Encode)

	default:
		tok, err := ReadToken(tc.Cache, TokenTypeToken, act.Domain.String(), act.Key.String(), false, DecodeToken)
		if err != nil {
			return err
		}
		if tok.Destroyed() {
			return newChainError(ErrTokenDestroyed, "token is destroyed", "domain", act.Domain.String(), "name", act.Key.String())
		}
		if HasMeta(tok.Metas, p.Key) {
			return newChainError(ErrInvalidType, "metadata key already exists", "key", p.Key.String())
		}
		dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", act.Domain.String(), false, DecodeDomain)
		if err != nil {
			return err
		}
		involved := ownersInclude(tok.Owners, p.Creator) ||
			permissionInvolves(dom.Issue, p.Creator) ||
			permissionInvolves(dom.Transfer, p.Creator)
		if !involved {
			return newChainError(ErrUnsatisfiedAuthorization, "creator not involved in token", "domain", act.Domain.String(), "name", act.Key.String())
		}
		tok.Metas = append(tok.Metas, Metadata{Key: p.Key, Value: p.Value, Creator: p.Creator})
		return PutToken(tc.Cache, PutOpUpdate, TokenTypeToken, act.Domain.String(), act.Key.String(), tok, (*Token).Encode)
	}
}
