package core

// MaxGroupDepth is the maximum nesting depth of a group's authorizer tree,
// per spec.md §8 ("Group depth = 5 accepted, 6 rejected").
const MaxGroupDepth = 5

// GroupNode is either a Branch (weighted-threshold of children) or a Leaf
// (a single public key with a weight). The root node of a group always has
// Weight == 0 and IsRoot set; every non-root node carries Weight > 0.
type GroupNode struct {
	IsLeaf    bool
	IsRoot    bool
	Weight    uint32 // 0 only for the root
	Threshold uint32 // Branch only
	Children  []GroupNode
	Key       PublicKey // Leaf only
}

// Group is a weighted-threshold tree of public keys, usable wherever a
// permission authorizer is expected. Reserved-keyed groups (Key is the
// reserved address placeholder) cannot be updated by ordinary users.
type Group struct {
	Name  Name128
	Key   Address // reserved or a public key address; controls who may updategroup
	Root  GroupNode
	Metas []Metadata
}

// ValidateStructure enforces spec.md §3's group invariants: the root has
// weight 0 and the root marker, every non-root node has weight > 0, depth
// stays within MaxGroupDepth, a branch's threshold is reachable by the sum
// of its children's weights, and no leaf key appears twice anywhere within
// a single branch's subtree.
func (g Group) ValidateStructure() error {
	if !g.Root.IsRoot || g.Root.Weight != 0 {
		return newChainError(ErrInvalidGroupStructure, "root node must be marked root with weight 0")
	}
	if g.Root.IsLeaf {
		return newChainError(ErrInvalidGroupStructure, "root node cannot be a leaf")
	}
	return validateGroupNode(g.Root)
}

// validateGroupNode walks the tree iteratively via an explicit stack, per
// the Re-architecture note in spec.md §9 ("Recursive group traversal" ->
// "iterative traversal with an explicit stack"). For every branch it also
// checks that no leaf key is duplicated anywhere within that branch's
// subtree (a key counted twice toward one threshold is equivalent to a
// second, uncontrolled signer).
type groupStackFrame struct {
	node  GroupNode
	depth int
}

func validateGroupNode(root GroupNode) error {
	stack := []groupStackFrame{{node: root, depth: 0}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.depth > MaxGroupDepth {
			return newChainError(ErrInvalidGroupStructure, "group depth exceeds maximum",
				"depth", frame.depth, "max", MaxGroupDepth)
		}
		if !frame.node.IsRoot && frame.node.Weight == 0 {
			return newChainError(ErrInvalidGroupStructure, "non-root node must have weight > 0")
		}
		if frame.node.IsLeaf {
			continue
		}
		if len(frame.node.Children) == 0 {
			return newChainError(ErrInvalidGroupStructure, "branch node has no children")
		}
		var sum uint64
		for _, c := range frame.node.Children {
			sum += uint64(c.Weight)
		}
		if sum < uint64(frame.node.Threshold) {
			return newChainError(ErrInvalidGroupStructure, "branch threshold unreachable by children weights")
		}
		if dupLeafKeyInSubtree(frame.node) {
			return newChainError(ErrInvalidGroupStructure, "duplicate leaf key within branch")
		}
		for _, c := range frame.node.Children {
			stack = append(stack, groupStackFrame{node: c, depth: frame.depth + 1})
		}
	}
	return nil
}

// dupLeafKeyInSubtree reports whether any public key appears at more than
// one leaf within node's subtree, walked with an explicit stack.
func dupLeafKeyInSubtree(node GroupNode) bool {
	seen := make(map[PublicKey]struct{})
	stack := []GroupNode{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsLeaf {
			if _, dup := seen[n.Key]; dup {
				return true
			}
			seen[n.Key] = struct{}{}
			continue
		}
		stack = append(stack, n.Children...)
	}
	return false
}

func encodeGroupNode(e *Encoder, n GroupNode) {
	e.WriteBool(n.IsLeaf)
	e.WriteBool(n.IsRoot)
	e.WriteFixedU32(n.Weight)
	if n.IsLeaf {
		encodePublicKey(e, n.Key)
		return
	}
	e.WriteFixedU32(n.Threshold)
	e.WriteVarUint(uint64(len(n.Children)))
	for _, c := range n.Children {
		encodeGroupNode(e, c)
	}
}

func decodeGroupNode(d *Decoder, field string) (GroupNode, error) {
	d.push(field)
	defer d.pop()
	var n GroupNode
	isLeaf, err := d.ReadBool()
	if err != nil {
		return n, err
	}
	n.IsLeaf = isLeaf
	isRoot, err := d.ReadBool()
	if err != nil {
		return n, err
	}
	n.IsRoot = isRoot
	weight, err := d.ReadFixedU32()
	if err != nil {
		return n, err
	}
	n.Weight = weight
	if n.IsLeaf {
		key, err := decodePublicKey(d, "key")
		if err != nil {
			return n, err
		}
		n.Key = key
		return n, nil
	}
	threshold, err := d.ReadFixedU32()
	if err != nil {
		return n, err
	}
	n.Threshold = threshold
	count, err := d.ReadVarUint()
	if err != nil {
		return n, err
	}
	n.Children = make([]GroupNode, 0, count)
	for i := uint64(0); i < count; i++ {
		c, err := decodeGroupNode(d, "child")
		if err != nil {
			return n, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func (g Group) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, g.Name)
	encodeAddress(e, g.Key)
	encodeGroupNode(e, g.Root)
	encodeMetas(e, g.Metas)
	return e.Bytes()
}

func DecodeGroup(b []byte) (Group, error) {
	d := NewDecoder(b)
	var g Group
	var err error
	if g.Name, err = decodeName128(d, "name"); err != nil {
		return g, err
	}
	if g.Key, err = decodeAddress(d, "key"); err != nil {
		return g, err
	}
	if g.Root, err = decodeGroupNode(d, "root"); err != nil {
		return g, err
	}
	if g.Metas, err = decodeMetas(d, "metas"); err != nil {
		return g, err
	}
	if err := d.Finish(); err != nil {
		return g, err
	}
	return g, nil
}
