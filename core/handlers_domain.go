package core

// NewDomainPayload is the decoded newdomain action payload.
type NewDomainPayload struct {
	Name     Name128
	Creator  PublicKey
	Issue    PermissionDef
	Transfer PermissionDef
	Manage   PermissionDef
}

func (p NewDomainPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Name)
	encodePublicKey(e, p.Creator)
	p.Issue.encode(e)
	p.Transfer.encode(e)
	p.Manage.encode(e)
	return e.Bytes()
}

func DecodeNewDomainPayload(b []byte) (NewDomainPayload, error) {
	d := NewDecoder(b)
	var p NewDomainPayload
	var err error
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	if p.Creator, err = decodePublicKey(d, "creator"); err != nil {
		return p, err
	}
	if p.Issue, err = decodePermission(d, "issue"); err != nil {
		return p, err
	}
	if p.Transfer, err = decodePermission(d, "transfer"); err != nil {
		return p, err
	}
	if p.Manage, err = decodePermission(d, "manage"); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

func validateDomainPermissions(issue, transfer, manage PermissionDef, groupExists func(Name128) bool) error {
	if err := ValidatePermissionNames(issue, transfer, manage); err != nil {
		return err
	}
	if err := issue.Validate(false, groupExists); err != nil {
		return err
	}
	if err := transfer.Validate(true, groupExists); err != nil {
		return err
	}
	if err := manage.Validate(false, groupExists); err != nil {
		return err
	}
	return nil
}

// groupExistsFn adapts a TransactionContext's group lookup to the
// predicate shape PermissionDef.Validate expects.
func groupExistsFn(tc *TransactionContext) func(Name128) bool {
	return func(n Name128) bool {
		if tc.Groups == nil {
			return false
		}
		_, ok := tc.Groups(n)
		return ok
	}
}

// HandleNewDomain implements newdomain: spec.md §4.7.
func HandleNewDomain(tc *TransactionContext, act *Action) error {
	p, err := DecodeNewDomainPayload(act.Data)
	if err != nil {
		return err
	}
	if p.Name.Reserved() {
		return newChainError(ErrInvalidType, "domain name is reserved", "name", p.Name.String())
	}
	if tc.DB.ExistsToken(TokenTypeDomain, "", p.Name.String()) {
		return newChainError(ErrDomainExists, "domain already exists", "name", p.Name.String())
	}
	if err := validateDomainPermissions(p.Issue, p.Transfer, p.Manage, groupExistsFn(tc)); err != nil {
		return err
	}
	if err := tc.RequireAuthority(PermissionDef{Threshold: 1, Authorizers: []AuthorizerWeight{
		{Ref: AuthorizerRef{Kind: AuthorizerAccount, Key: p.Creator}, Weight: 1},
	}}, nil); err != nil {
		return err
	}
	dom := &Domain{
		Name:       p.Name,
		Creator:    p.Creator,
		CreateTime: tc.HeadBlockTime,
		Issue:      p.Issue,
		Transfer:   p.Transfer,
		Manage:     p.Manage,
	}
	return PutToken(tc.Cache, PutOpAdd, TokenTypeDomain, "", p.Name.String(), dom, (*Domain).Encode)
}

// UpdateDomainPayload is the decoded updatedomain action payload; any of
// Issue/Transfer/Manage may be absent (HasIssue/HasTransfer/HasManage false)
// to leave that permission unchanged.
type UpdateDomainPayload struct {
	Name        Name128
	Issue       PermissionDef
	HasIssue    bool
	Transfer    PermissionDef
	HasTransfer bool
	Manage      PermissionDef
	HasManage   bool
}

func (p UpdateDomainPayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Name)
	e.WriteBool(p.HasIssue)
	if p.HasIssue {
		p.Issue.encode(e)
	}
	e.WriteBool(p.HasTransfer)
	if p.HasTransfer {
		p.Transfer.encode(e)
	}
	e.WriteBool(p.HasManage)
	if p.HasManage {
		p.Manage.encode(e)
	}
	return e.Bytes()
}

func DecodeUpdateDomainPayload(b []byte) (UpdateDomainPayload, error) {
	d := NewDecoder(b)
	var p UpdateDomainPayload
	var err error
	if p.Name, err = decodeName128(d, "name"); err != nil {
		return p, err
	}
	if p.HasIssue, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasIssue {
		if p.Issue, err = decodePermission(d, "issue"); err != nil {
			return p, err
		}
	}
	if p.HasTransfer, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasTransfer {
		if p.Transfer, err = decodePermission(d, "transfer"); err != nil {
			return p, err
		}
	}
	if p.HasManage, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.HasManage {
		if p.Manage, err = decodePermission(d, "manage"); err != nil {
			return p, err
		}
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// HandleUpdateDomain implements updatedomain: spec.md §4.7.
func HandleUpdateDomain(tc *TransactionContext, act *Action) error {
	payload, err := DecodeUpdateDomainPayload(act.Data)
	if err != nil {
		return err
	}
	dom, err := ReadToken(tc.Cache, TokenTypeDomain, "", payload.Name.String(), false, DecodeDomain)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(dom.Manage, nil); err != nil {
		return err
	}
	issue, transfer, manage := dom.Issue, dom.Transfer, dom.Manage
	if payload.HasIssue {
		issue = payload.Issue
	}
	if payload.HasTransfer {
		transfer = payload.Transfer
	}
	if payload.HasManage {
		manage = payload.Manage
	}
	if err := validateDomainPermissions(issue, transfer, manage, groupExistsFn(tc)); err != nil {
		return err
	}
	dom.Issue, dom.Transfer, dom.Manage = issue, transfer, manage
	return PutToken(tc.Cache, PutOpUpdate, TokenTypeDomain, "", payload.Name.String(), dom, (*Domain).Encode)
}
