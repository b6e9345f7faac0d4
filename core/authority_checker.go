package core

// DefaultRecursionLimit bounds authority-check recursion depth (spec.md
// §4.5); exceeding it fails with ErrRecursionLimit.
const DefaultRecursionLimit = 32

// GroupLookup resolves a group by name for the AuthorizerGroup case.
type GroupLookup func(Name128) (Group, bool)

// ScriptRunner executes a registered filter script by name against the
// action under check; see script.go for the wasmer-go-backed
// implementation used in production.
type ScriptRunner interface {
	Run(name Name128, signingKeys []PublicKey) (bool, error)
}

// AuthorityChecker evaluates whether a set of signing keys satisfies a
// permission's authorizer tree (spec.md §4.5).
type AuthorityChecker struct {
	SigningKeys    []PublicKey
	RecursionLimit int
	Groups         GroupLookup
	Scripts        ScriptRunner
	CheckScript    bool // if false, script authorizers are optimistically accepted
}

func NewAuthorityChecker(signingKeys []PublicKey, groups GroupLookup) *AuthorityChecker {
	return &AuthorityChecker{
		SigningKeys:    signingKeys,
		RecursionLimit: DefaultRecursionLimit,
		Groups:         groups,
		CheckScript:    true,
	}
}

// usedKeys is the scoped used-key bitset: a map from key index to whether
// it has been counted toward some satisfied authorizer. It is snapshotted
// and restored around every speculative sub-check so a failed branch never
// leaks used-key markings to its siblings.
type usedKeys struct {
	used map[int]bool
}

func newUsedKeys() *usedKeys { return &usedKeys{used: make(map[int]bool)} }

func (u *usedKeys) snapshot() map[int]bool {
	cp := make(map[int]bool, len(u.used))
	for k, v := range u.used {
		cp[k] = v
	}
	return cp
}

func (u *usedKeys) restore(snap map[int]bool) { u.used = snap }

func (c *AuthorityChecker) keyIndex(k PublicKey) (int, bool) {
	for i, sk := range c.SigningKeys {
		if sk == k {
			return i, true
		}
	}
	return -1, false
}

// Satisfies reports whether perm is satisfied by the checker's signing
// keys. owner, when non-nil, supplies the resolved owner addresses for an
// AuthorizerOwner entry (NFT owners, or the fungible transfer's `from`).
func (c *AuthorityChecker) Satisfies(perm PermissionDef, owner []Address) (bool, error) {
	uk := newUsedKeys()
	ok, err := c.satisfiesPermission(perm, owner, uk, 0)
	return ok, err
}

func (c *AuthorityChecker) satisfiesPermission(perm PermissionDef, owner []Address, uk *usedKeys, depth int) (bool, error) {
	if depth > c.RecursionLimit {
		return false, newChainError(ErrRecursionLimit, "authority check exceeded recursion limit", "limit", c.RecursionLimit)
	}
	var tally uint64
	for _, aw := range perm.Authorizers {
		satisfied, err := c.satisfiesAuthorizer(aw.Ref, owner, uk, depth+1)
		if err != nil {
			return false, err
		}
		if satisfied {
			tally += uint64(aw.Weight)
			if tally >= uint64(perm.Threshold) {
				return true, nil
			}
		}
	}
	return tally >= uint64(perm.Threshold), nil
}

func (c *AuthorityChecker) satisfiesAuthorizer(ref AuthorizerRef, owner []Address, uk *usedKeys, depth int) (bool, error) {
	if depth > c.RecursionLimit {
		return false, newChainError(ErrRecursionLimit, "authority check exceeded recursion limit", "limit", c.RecursionLimit)
	}
	switch ref.Kind {
	case AuthorizerAccount:
		idx, found := c.keyIndex(ref.Key)
		if !found {
			return false, nil
		}
		uk.used[idx] = true
		return true, nil
	case AuthorizerOwner:
		return c.satisfiesOwner(owner, uk, depth)
	case AuthorizerGroup:
		return c.satisfiesGroupByName(ref.Name, uk, depth)
	case AuthorizerScript:
		if !c.CheckScript {
			return true, nil
		}
		if c.Scripts == nil {
			return false, newChainError(ErrInvalidScriptResult, "no script runner configured")
		}
		return c.Scripts.Run(ref.Name, c.SigningKeys)
	default:
		return false, newChainError(ErrInvalidType, "unknown authorizer kind")
	}
}

// satisfiesOwner requires every owner address to independently be satisfied:
// a public-key owner must have its key among the signing keys; a
// group-backed (".group" prefix) generated owner must have that group
// satisfied.
func (c *AuthorityChecker) satisfiesOwner(owner []Address, uk *usedKeys, depth int) (bool, error) {
	if len(owner) == 0 {
		return false, nil
	}
	for _, o := range owner {
		switch {
		case o.IsPublicKey():
			idx, found := c.keyIndex(o.Key)
			if !found {
				return false, nil
			}
			uk.used[idx] = true
		case o.IsGroupOwner():
			ok, err := c.satisfiesGroupByName(o.Name, uk, depth+1)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		default:
			return false, nil
		}
	}
	return true, nil
}

func (c *AuthorityChecker) satisfiesGroupByName(name Name128, uk *usedKeys, depth int) (bool, error) {
	if c.Groups == nil {
		return false, newChainError(ErrUnknownGroup, "no group lookup configured")
	}
	g, ok := c.Groups(name)
	if !ok {
		return false, newChainError(ErrUnknownGroup, "referenced group does not exist", "group", name.String())
	}
	return c.satisfiesGroupNode(g.Root, uk, depth)
}

// satisfiesGroupNode recursively satisfies a group's tree: a Branch is
// satisfied when the sum of satisfied child weights reaches its threshold
// (short-circuiting once reached); a Leaf is satisfied when its key is a
// signing key. Each child is tried under a snapshot-and-restore of the
// used-key set so a failed sibling branch cannot leak used-key markings.
func (c *AuthorityChecker) satisfiesGroupNode(node GroupNode, uk *usedKeys, depth int) (bool, error) {
	if depth > c.RecursionLimit {
		return false, newChainError(ErrRecursionLimit, "authority check exceeded recursion limit", "limit", c.RecursionLimit)
	}
	if node.IsLeaf {
		idx, found := c.keyIndex(node.Key)
		if !found {
			return false, nil
		}
		uk.used[idx] = true
		return true, nil
	}
	var tally uint64
	for _, child := range node.Children {
		snap := uk.snapshot()
		satisfied, err := c.satisfiesGroupNode(child, uk, depth+1)
		if err != nil {
			return false, err
		}
		if satisfied {
			tally += uint64(child.Weight)
			if tally >= uint64(node.Threshold) {
				return true, nil
			}
		} else {
			uk.restore(snap)
		}
	}
	return tally >= uint64(node.Threshold), nil
}
