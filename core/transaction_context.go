package core

import (
	"crypto/sha256"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Transaction is the decoded, to-be-applied transaction: the structural
// envelope (expiration/reference block, decoded per spec.md §4.6 step 1)
// plus the user-visible actions and their signatures.
type Transaction struct {
	Expiration     time.Time
	RefBlockNum    uint32
	RefBlockPrefix uint32
	MaxCharge      int64
	Payer          Address
	Actions        []Action
	Signatures     []Signature
}

func (t Transaction) Encode() []byte {
	e := NewEncoder()
	e.WriteFixedU64(uint64(t.Expiration.UnixMicro()))
	e.WriteFixedU32(t.RefBlockNum)
	e.WriteFixedU32(t.RefBlockPrefix)
	e.WriteVarInt(t.MaxCharge)
	encodeAddress(e, t.Payer)
	e.WriteVarUint(uint64(len(t.Actions)))
	for _, a := range t.Actions {
		e.WriteBytes(a.Encode())
	}
	e.WriteVarUint(uint64(len(t.Signatures)))
	for _, sig := range t.Signatures {
		encodeSignature(e, sig)
	}
	return e.Bytes()
}

func DecodeTransaction(b []byte) (Transaction, error) {
	d := NewDecoder(b)
	var t Transaction
	ts, err := d.ReadFixedU64()
	if err != nil {
		return t, err
	}
	t.Expiration = time.UnixMicro(int64(ts)).UTC()
	if t.RefBlockNum, err = d.ReadFixedU32(); err != nil {
		return t, err
	}
	if t.RefBlockPrefix, err = d.ReadFixedU32(); err != nil {
		return t, err
	}
	if t.MaxCharge, err = d.ReadVarInt(); err != nil {
		return t, err
	}
	if t.Payer, err = decodeAddress(d, "payer"); err != nil {
		return t, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return t, err
	}
	t.Actions = make([]Action, 0, n)
	for i := uint64(0); i < n; i++ {
		raw, err := d.ReadBytes()
		if err != nil {
			return t, err
		}
		act, err := DecodeAction(raw)
		if err != nil {
			return t, err
		}
		t.Actions = append(t.Actions, act)
	}
	m, err := d.ReadVarUint()
	if err != nil {
		return t, err
	}
	t.Signatures = make([]Signature, 0, m)
	for i := uint64(0); i < m; i++ {
		sig, err := decodeSignature(d, "signature")
		if err != nil {
			return t, err
		}
		t.Signatures = append(t.Signatures, sig)
	}
	if err := d.Finish(); err != nil {
		return t, err
	}
	return t, nil
}

// SigDigest is the transaction-signing digest, as computed by SigDigestFor.
type SigDigest = Hash

// SigDigestFor computes the signing digest for a raw encoded transaction
// under this context's chain id: sha256(chain_id || raw_trx). Context-free
// data is out of this package's scope (no action here carries any), so the
// digest omits the context_free_data_root term the wire protocol reserves
// for it.
func (tc *TransactionContext) SigDigestFor(rawTrx []byte) SigDigest {
	h := sha256.New()
	h.Write(tc.ChainID[:])
	h.Write(rawTrx)
	var digest SigDigest
	copy(digest[:], h.Sum(nil))
	return digest
}

// RecoverPublicKey recovers the secp256k1 public key that produced sig over
// digest, using go-ethereum's ecrecover. Signature.Data is the 65-byte
// [R(32) || S(32) || V(1)] form.
func RecoverPublicKey(digest SigDigest, sig Signature) (PublicKey, error) {
	pub, err := crypto.SigToPub(digest[:], sig.Data[:])
	if err != nil {
		return PublicKey{}, newChainError(ErrInvalidType, "signature recovery failed", "error", err.Error())
	}
	compressed := crypto.CompressPubkey(pub)
	var pk PublicKey
	pk.Curve = sig.Curve
	copy(pk.Data[:], compressed)
	return pk, nil
}

// TransactionContext is the per-transaction apply scope described in
// spec.md §4.6: it owns the TDB session, the cache built on top of it, the
// charge meter, and the generated-actions queue.
type TransactionContext struct {
	DB      *TokenDatabase
	Session *Session
	Cache   *TokenCache
	hot     *lru.Cache[string, any]
	ExecCtx *ExecutionContext
	Groups  GroupLookup
	Scripts ScriptRunner

	ChainID       Hash
	HeadBlockTime time.Time
	Config        ChainConfig

	// TrxID is the signing digest of the transaction this context is
	// applying, set by the caller before Apply runs. Generated records that
	// must bind to the consuming transaction (e.g. everipay's LinkRecord)
	// read it rather than recomputing a digest themselves.
	TrxID Hash

	SigningKeys []PublicKey
	seenKeys    map[PublicKey]bool

	Charge *ChargeMeter
	Payer  Address

	generated []Action

	receipts []Receipt
}

// NewTransactionContext opens a fresh TDB session and cache and prepares a
// transaction context ready to recover signing keys and apply actions.
func NewTransactionContext(db *TokenDatabase, hot *lru.Cache[string, any], execCtx *ExecutionContext, groups GroupLookup, scripts ScriptRunner, chainID Hash, headBlockTime time.Time, cfg ChainConfig) *TransactionContext {
	session := db.NewSavepointSession()
	return &TransactionContext{
		DB:            db,
		Session:       session,
		Cache:         NewTokenCache(db, session, hot),
		hot:           hot,
		ExecCtx:       execCtx,
		Groups:        groups,
		Scripts:       scripts,
		ChainID:       chainID,
		HeadBlockTime: headBlockTime,
		Config:        cfg,
		seenKeys:      make(map[PublicKey]bool),
		Charge:        NewChargeMeter(cfg.Charge),
	}
}

// RecoverSigningKeys recovers one public key per signature over digest,
// failing with DuplicateSignature if two signatures recover the same key.
func (tc *TransactionContext) RecoverSigningKeys(digest SigDigest, sigs []Signature) error {
	keys := make([]PublicKey, 0, len(sigs))
	for _, sig := range sigs {
		pk, err := RecoverPublicKey(digest, sig)
		if err != nil {
			return err
		}
		if tc.seenKeys[pk] {
			return newChainError(ErrDuplicateSignature, "two signatures recovered the same key")
		}
		tc.seenKeys[pk] = true
		keys = append(keys, pk)
	}
	tc.SigningKeys = keys
	return nil
}

// RequireAuthority runs the authority checker over perm/owner using the
// transaction's recovered signing keys, failing with UnsatisfiedAuthorization
// if not satisfied. Action handlers call this with the permission their
// action requires (spec.md §4.5's per-action hooks).
func (tc *TransactionContext) RequireAuthority(perm PermissionDef, owner []Address) error {
	checker := &AuthorityChecker{
		SigningKeys:    tc.SigningKeys,
		RecursionLimit: int(tc.Config.MaxRecursionDepth),
		Groups:         tc.Groups,
		Scripts:        tc.Scripts,
		CheckScript:    true,
	}
	ok, err := checker.Satisfies(perm, owner)
	if err != nil {
		return err
	}
	if !ok {
		return newChainError(ErrUnsatisfiedAuthorization, "permission not satisfied")
	}
	return nil
}

// EnqueueGenerated adds a system-generated action (transferft's paybonus) to
// the queue processed after all user-visible actions.
// Generated actions do not recurse signature checks.
func (tc *TransactionContext) EnqueueGenerated(act Action) {
	tc.generated = append(tc.generated, act)
}

// Apply runs the full per-transaction pipeline described in spec.md §4.6
// steps 3-7: dispatch+authorize+execute every user action in order, then
// drain the generated-actions queue, then settle charge.
func (tc *TransactionContext) Apply(trx Transaction) error {
	if !trx.Expiration.After(tc.HeadBlockTime) {
		return newChainError(ErrDeadlineExceeded, "transaction expiration not after head block time")
	}
	for i := range trx.Actions {
		act := trx.Actions[i]
		if err := tc.applyOne(&act, false); err != nil {
			return err
		}
		tc.Charge.AddBytes(len(act.Data))
		tc.Charge.AddCPUUnits(1)
	}
	for len(tc.generated) > 0 {
		act := tc.generated[0]
		tc.generated = tc.generated[1:]
		if err := tc.applyOne(&act, true); err != nil {
			return err
		}
	}
	return tc.settleCharge(trx)
}

func (tc *TransactionContext) applyOne(act *Action, isGenerated bool) error {
	handler, err := tc.ExecCtx.Dispatch(act.Name)
	if err != nil {
		return err
	}
	if err := handler(tc, act); err != nil {
		tc.receipts = append(tc.receipts, Receipt{Action: *act, Err: asChainError(err)})
		return err
	}
	tc.receipts = append(tc.receipts, Receipt{Action: *act})
	return nil
}

// RunNested applies actions (the body of a suspended transaction) in a
// child savepoint scoped under this context's own session, signed by
// signingKeys instead of the outer transaction's recovered keys. On success
// the child frame is squashed into this context's frame (visible once this
// context itself is accepted); on failure it is rolled back and the error
// returned, leaving this context's own state untouched.
func (tc *TransactionContext) RunNested(actions []Action, signingKeys []PublicKey) ([]Receipt, error) {
	child := &TransactionContext{
		DB:            tc.DB,
		Session:       tc.DB.NewSavepointSession(),
		ExecCtx:       tc.ExecCtx,
		Groups:        tc.Groups,
		Scripts:       tc.Scripts,
		ChainID:       tc.ChainID,
		HeadBlockTime: tc.HeadBlockTime,
		Config:        tc.Config,
		TrxID:         tc.TrxID,
		SigningKeys:   signingKeys,
		seenKeys:      make(map[PublicKey]bool),
		Charge:        NewChargeMeter(tc.Config.Charge),
		hot:           tc.hot,
	}
	child.Cache = NewTokenCache(tc.DB, child.Session, tc.hot)
	for i := range actions {
		act := actions[i]
		if err := child.applyOne(&act, false); err != nil {
			child.Cache.Rollback()
			_ = child.Session.Undo()
			return child.receipts, err
		}
	}
	if err := child.Session.Squash(); err != nil {
		return child.receipts, err
	}
	return child.receipts, nil
}

// settleCharge computes the transaction's charge and applies paycharge
// against the payer's jmzk balance, falling back to pjmzk, per spec.md
// §4.6 step 6.
func (tc *TransactionContext) settleCharge(trx Transaction) error {
	if tc.Config.ChargeFreeMode {
		return nil
	}
	computed := tc.Charge.Compute()
	if trx.MaxCharge == 0 {
		// free mode only if the controller allows it; core itself does not
		// decide policy here beyond ChargeFreeMode above.
		return newChainError(ErrMaxChargeExceeded, "zero max_charge requires charge-free mode")
	}
	if computed > trx.MaxCharge {
		return newChainError(ErrMaxChargeExceeded, "computed charge exceeds max_charge",
			"computed", computed, "max", trx.MaxCharge)
	}
	tc.Payer = trx.Payer
	if computed == 0 {
		return nil
	}
	remaining, err := tc.debitCharge(SymbolIDjmzk, computed)
	if err != nil {
		return err
	}
	if remaining > 0 {
		if remaining, err = tc.debitCharge(SymbolIDpjmzk, remaining); err != nil {
			return err
		}
	}
	if remaining > 0 {
		return newChainError(ErrChargeExceeded, "payer balance insufficient to cover charge",
			"shortfall", remaining)
	}
	return nil
}

// debitCharge deducts up to amount from the payer's symID balance,
// returning whatever of amount could not be covered (0 once fully paid).
// A missing balance record covers nothing rather than erroring, so the
// jmzk-then-pjmzk fallback in settleCharge can try the second symbol.
func (tc *TransactionContext) debitCharge(symID uint32, amount int64) (int64, error) {
	key := tc.Payer.String()
	balance, err := ReadAsset(tc.Cache, key, symID, true, DecodePropertyStakes)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return amount, nil
	}
	paid := amount
	if available := balance.Available(); available < paid {
		paid = available
	}
	if paid <= 0 {
		return amount, nil
	}
	balance.Amount -= paid
	if err := PutAsset(tc.Cache, key, symID, balance, (*PropertyStakes).Encode); err != nil {
		return 0, err
	}
	return amount - paid, nil
}

// Receipts returns the per-action results recorded during Apply.
func (tc *TransactionContext) Receipts() []Receipt { return tc.receipts }

// Accept commits the transaction's savepoint session.
func (tc *TransactionContext) Accept() error { return tc.Session.Accept() }

// Rollback discards every mutation made during this transaction context,
// including the cache's dirty/clean sets.
func (tc *TransactionContext) Rollback() error {
	tc.Cache.Rollback()
	return tc.Session.Undo()
}

func asChainError(err error) *ChainError {
	if ce, ok := err.(*ChainError); ok {
		return ce
	}
	return newChainError(ErrInvalidType, err.Error())
}
