package core

import (
	"fmt"
	"sort"
)

// TokenType enumerates the Tokens column family's record kinds (spec.md
// §4.2). prefix is mandatory for TokenTypeToken (the owning domain name)
// and forbidden for every other type.
type TokenType uint8

const (
	TokenTypeDomain TokenType = iota
	TokenTypeToken
	TokenTypeGroup
	TokenTypeFungible
	TokenTypeSuspend
	TokenTypeLock
	TokenTypeProdVote
	TokenTypeLink
	TokenTypeBlackAddrs
	TokenTypeStakePool
	TokenTypeValidator
	TokenTypePsvBonus
	TokenTypeScript
	TokenTypeSchedule
)

func (t TokenType) requiresPrefix() bool { return t == TokenTypeToken }

// tokenKey is the Tokens column family's composite key: (type, prefix, key).
type tokenKey struct {
	typ    TokenType
	prefix string
	key    string
}

func (k tokenKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.typ, k.prefix, k.key)
}

// assetKey is the Assets column family's composite key: (address, sym_id).
type assetKey struct {
	address string
	symID   uint32
}

// PutOp selects put_token's upsert discipline.
type PutOp uint8

const (
	PutOpAdd PutOp = iota
	PutOpUpdate
	PutOpPut
)

// undoEntry records enough information to reverse one mutation: the prior
// value (nil if the key was previously absent).
type undoEntry struct {
	tokens map[tokenKey][]byte // key -> previous value, or nil for "was absent"
	assets map[assetKey][]byte
}

func newUndoEntry() *undoEntry {
	return &undoEntry{tokens: make(map[tokenKey][]byte), assets: make(map[assetKey][]byte)}
}

// recordTokenUndo captures the pre-mutation value for key the first time it
// is touched within this undo entry; later touches within the same entry
// must not overwrite the original pre-mutation snapshot.
func (u *undoEntry) recordTokenUndo(key tokenKey, prior []byte, wasPresent bool) {
	if _, already := u.tokens[key]; already {
		return
	}
	if !wasPresent {
		u.tokens[key] = nil
		return
	}
	// nil cannot distinguish "absent" from "present with nil bytes"; track
	// presence via a sentinel length-0-but-non-nil slice when needed.
	if prior == nil {
		prior = []byte{}
	}
	u.tokens[key] = prior
}

func (u *undoEntry) recordAssetUndo(key assetKey, prior []byte, wasPresent bool) {
	if _, already := u.assets[key]; already {
		return
	}
	if !wasPresent {
		u.assets[key] = nil
		return
	}
	if prior == nil {
		prior = []byte{}
	}
	u.assets[key] = prior
}

// savepoint is one frame of the TDB's nested savepoint stack, the logical
// diff it has accumulated (undo log) plus its own sequence number.
type savepoint struct {
	seq   uint64
	tokens map[tokenKey][]byte
	assets map[assetKey][]byte
	// undo records the prior state of every key this frame has written, so
	// Undo can restore it.
	undo *undoEntry
}

// TokenDatabase implements the Tokens/Assets column families with a nested
// savepoint stack, per spec.md §4.2. It is not safe for concurrent use; the
// controller is the single mutator (spec.md §5).
type TokenDatabase struct {
	tokens map[tokenKey][]byte
	assets map[assetKey][]byte
	stack  []*savepoint
	nextSeq uint64
}

func NewTokenDatabase() *TokenDatabase {
	return &TokenDatabase{
		tokens: make(map[tokenKey][]byte),
		assets: make(map[assetKey][]byte),
	}
}

// Session is a handle onto one open savepoint. Session methods mutate
// through to the owning TokenDatabase's top frame, which MUST be this
// session's frame (sessions must be accepted/rolled back in LIFO order).
type Session struct {
	db  *TokenDatabase
	seq uint64
}

// NewSavepointSession pushes a new savepoint frame and returns a handle to
// it. The session is either Accept()-ed (merged into the parent) or
// Undo()-ne by the caller.
func (db *TokenDatabase) NewSavepointSession() *Session {
	db.nextSeq++
	sp := &savepoint{seq: db.nextSeq, tokens: make(map[tokenKey][]byte), assets: make(map[assetKey][]byte), undo: newUndoEntry()}
	db.stack = append(db.stack, sp)
	return &Session{db: db, seq: sp.seq}
}

func (db *TokenDatabase) top() *savepoint {
	if len(db.stack) == 0 {
		return nil
	}
	return db.stack[len(db.stack)-1]
}

func (s *Session) frame() (*savepoint, error) {
	sp := s.db.top()
	if sp == nil || sp.seq != s.seq {
		return nil, newChainError(ErrNoSavepoint, "session is not the current savepoint")
	}
	return sp, nil
}

// readTokenRaw reads the most current view (top frame overlay onto
// committed state) of a token key, without consulting any cache.
func (db *TokenDatabase) readTokenRaw(k tokenKey) ([]byte, bool) {
	for i := len(db.stack) - 1; i >= 0; i-- {
		if v, ok := db.stack[i].tokens[k]; ok {
			return v, v != nil
		}
	}
	v, ok := db.tokens[k]
	return v, ok
}

func (db *TokenDatabase) readAssetRaw(k assetKey) ([]byte, bool) {
	for i := len(db.stack) - 1; i >= 0; i-- {
		if v, ok := db.stack[i].assets[k]; ok {
			return v, v != nil
		}
	}
	v, ok := db.assets[k]
	return v, ok
}

func makeTokenKey(typ TokenType, prefix, key string) (tokenKey, error) {
	if typ.requiresPrefix() && prefix == "" {
		return tokenKey{}, newChainError(ErrInvalidType, "token type requires a prefix")
	}
	if !typ.requiresPrefix() && prefix != "" {
		return tokenKey{}, newChainError(ErrInvalidType, "token type forbids a prefix")
	}
	return tokenKey{typ: typ, prefix: prefix, key: key}, nil
}

// PutToken writes one token record under the given op discipline.
func (s *Session) PutToken(typ TokenType, op PutOp, prefix, key string, value []byte) error {
	sp, err := s.frame()
	if err != nil {
		return err
	}
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return err
	}
	existing, present := s.db.readTokenRaw(tk)
	switch op {
	case PutOpAdd:
		if present {
			return newChainError(ErrDupKey, "token already exists", "key", tk.String())
		}
	case PutOpUpdate:
		if !present {
			return newChainError(ErrUnknownKey, "token does not exist", "key", tk.String())
		}
	case PutOpPut:
		// upsert
	}
	sp.undo.recordTokenUndo(tk, existing, present)
	sp.tokens[tk] = value
	return nil
}

// PutTokens writes a batch of token records atomically: either all succeed
// or the session's frame is left untouched.
func (s *Session) PutTokens(typ TokenType, op PutOp, prefix string, keys []string, values [][]byte) error {
	if len(keys) != len(values) {
		return newChainError(ErrInvalidType, "put_tokens keys/values length mismatch")
	}
	sp, err := s.frame()
	if err != nil {
		return err
	}
	// Pre-validate every key against op discipline before mutating, so a
	// mid-batch failure leaves the frame untouched.
	tks := make([]tokenKey, len(keys))
	for i, key := range keys {
		tk, err := makeTokenKey(typ, prefix, key)
		if err != nil {
			return err
		}
		_, present := s.db.readTokenRaw(tk)
		switch op {
		case PutOpAdd:
			if present {
				return newChainError(ErrDupKey, "token already exists", "key", tk.String())
			}
		case PutOpUpdate:
			if !present {
				return newChainError(ErrUnknownKey, "token does not exist", "key", tk.String())
			}
		}
		tks[i] = tk
	}
	for i, tk := range tks {
		existing, present := s.db.readTokenRaw(tk)
		sp.undo.recordTokenUndo(tk, existing, present)
		sp.tokens[tk] = values[i]
	}
	return nil
}

// PutAsset upserts a Property record for (address, symID).
func (s *Session) PutAsset(address string, symID uint32, value []byte) error {
	sp, err := s.frame()
	if err != nil {
		return err
	}
	ak := assetKey{address: address, symID: symID}
	existing, present := s.db.readAssetRaw(ak)
	sp.undo.recordAssetUndo(ak, existing, present)
	sp.assets[ak] = value
	return nil
}

// ReadToken reads a token record, failing with UnknownKey unless noThrow.
func (db *TokenDatabase) ReadToken(typ TokenType, prefix, key string, noThrow bool) ([]byte, error) {
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return nil, err
	}
	v, ok := db.readTokenRaw(tk)
	if !ok {
		if noThrow {
			return nil, nil
		}
		return nil, newChainError(ErrUnknownKey, "token does not exist", "key", tk.String())
	}
	return v, nil
}

func (db *TokenDatabase) ExistsToken(typ TokenType, prefix, key string) bool {
	tk, err := makeTokenKey(typ, prefix, key)
	if err != nil {
		return false
	}
	_, ok := db.readTokenRaw(tk)
	return ok
}

func (db *TokenDatabase) ExistsAsset(address string, symID uint32) bool {
	_, ok := db.readAssetRaw(assetKey{address: address, symID: symID})
	return ok
}

func (db *TokenDatabase) ReadAsset(address string, symID uint32, noThrow bool) ([]byte, error) {
	v, ok := db.readAssetRaw(assetKey{address: address, symID: symID})
	if !ok {
		if noThrow {
			return nil, nil
		}
		return nil, newChainError(ErrUnknownKey, "asset does not exist")
	}
	return v, nil
}

// Undo discards every mutation recorded since this session's savepoint was
// opened. The frame is popped; the session becomes unusable.
func (s *Session) Undo() error {
	sp, err := s.frame()
	if err != nil {
		return err
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	_ = sp
	return nil
}

// Squash merges the current savepoint into its parent in place. Fails with
// NoSavepoint if the stack has fewer than two frames.
func (s *Session) Squash() error {
	if len(s.db.stack) < 2 {
		return newChainError(ErrNoSavepoint, "squash requires at least two savepoint frames")
	}
	sp, err := s.frame()
	if err != nil {
		return err
	}
	parent := s.db.stack[len(s.db.stack)-2]
	for k, v := range sp.tokens {
		parent.tokens[k] = v
	}
	for k, v := range sp.assets {
		parent.assets[k] = v
	}
	// carry forward undo entries the parent didn't already have, so an
	// undo of the parent still restores pre-child state.
	for k, v := range sp.undo.tokens {
		if _, already := parent.undo.tokens[k]; !already {
			parent.undo.tokens[k] = v
		}
	}
	for k, v := range sp.undo.assets {
		if _, already := parent.undo.assets[k]; !already {
			parent.undo.assets[k] = v
		}
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	return nil
}

// Accept commits the session's frame into its parent (or into the
// committed root state if it is the only frame), making its mutations
// durable down to the next enclosing savepoint.
func (s *Session) Accept() error {
	sp, err := s.frame()
	if err != nil {
		return err
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	if len(s.db.stack) == 0 {
		for k, v := range sp.tokens {
			if v == nil {
				delete(s.db.tokens, k)
			} else {
				s.db.tokens[k] = v
			}
		}
		for k, v := range sp.assets {
			if v == nil {
				delete(s.db.assets, k)
			} else {
				s.db.assets[k] = v
			}
		}
		return nil
	}
	parent := s.db.stack[len(s.db.stack)-1]
	for k, v := range sp.tokens {
		parent.tokens[k] = v
	}
	for k, v := range sp.assets {
		parent.assets[k] = v
	}
	return nil
}

// Depth returns the current savepoint stack depth.
func (db *TokenDatabase) Depth() int { return len(db.stack) }

// SnapshotRecord is one entry of a TDB snapshot dump, used by
// snapshot_write/snapshot_read.
type SnapshotRecord struct {
	IsAsset bool
	Type    TokenType
	Prefix  string
	Key     string
	Address string
	SymID   uint32
	Value   []byte
}

// SnapshotWrite dumps the committed state (stack depth 0 only; snapshots
// are only valid for a fully-squashed database) in a deterministic key
// order, for framing by the caller (e.g. via rlp).
func (db *TokenDatabase) SnapshotWrite() ([]SnapshotRecord, error) {
	if len(db.stack) != 0 {
		return nil, newChainError(ErrSnapshotFailure, "snapshot requires an empty savepoint stack", "depth", len(db.stack))
	}
	out := make([]SnapshotRecord, 0, len(db.tokens)+len(db.assets))
	tokenKeys := make([]tokenKey, 0, len(db.tokens))
	for k := range db.tokens {
		tokenKeys = append(tokenKeys, k)
	}
	sort.Slice(tokenKeys, func(i, j int) bool { return tokenKeys[i].String() < tokenKeys[j].String() })
	for _, k := range tokenKeys {
		out = append(out, SnapshotRecord{Type: k.typ, Prefix: k.prefix, Key: k.key, Value: db.tokens[k]})
	}
	assetKeys := make([]assetKey, 0, len(db.assets))
	for k := range db.assets {
		assetKeys = append(assetKeys, k)
	}
	sort.Slice(assetKeys, func(i, j int) bool {
		if assetKeys[i].address != assetKeys[j].address {
			return assetKeys[i].address < assetKeys[j].address
		}
		return assetKeys[i].symID < assetKeys[j].symID
	})
	for _, k := range assetKeys {
		out = append(out, SnapshotRecord{IsAsset: true, Address: k.address, SymID: k.symID, Value: db.assets[k]})
	}
	return out, nil
}

// SnapshotRead restores committed state from a prior SnapshotWrite. The
// database must have an empty stack; after restore the stack remains empty
// (depth 0), matching the snapshot's own depth.
func (db *TokenDatabase) SnapshotRead(records []SnapshotRecord) error {
	if len(db.stack) != 0 {
		return newChainError(ErrSnapshotFailure, "snapshot restore requires an empty savepoint stack")
	}
	db.tokens = make(map[tokenKey][]byte, len(records))
	db.assets = make(map[assetKey][]byte, len(records))
	for _, r := range records {
		if r.IsAsset {
			db.assets[assetKey{address: r.Address, symID: r.SymID}] = r.Value
		} else {
			db.tokens[tokenKey{typ: r.Type, prefix: r.Prefix, key: r.Key}] = r.Value
		}
	}
	return nil
}
