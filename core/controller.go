package core

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// Block is the thin envelope the controller iterates: a header plus the
// transactions it carries. Framing/consensus fields beyond what the core
// needs to apply transactions are out of scope; the producing/networking
// layer owns the rest of the header.
type Block struct {
	Num       uint64
	Timestamp time.Time
	Trxs      []Transaction
}

// TrxResult is one transaction's outcome within a block: its receipts on
// success, or the error that rolled it back. A transaction failing does not
// abort the block; subsequent transactions still apply.
type TrxResult struct {
	Receipts []Receipt
	Err      *ChainError
}

// Controller is the thin orchestrator described in spec.md §4.8: for each
// block it opens a block-level savepoint and applies every transaction
// under its own nested savepoint, accepting or rolling each back in turn.
// It does no networking, consensus or framing of its own — that is the
// out-of-scope layer that calls it.
type Controller struct {
	db      *TokenDatabase
	hot     *lru.Cache[string, any]
	execCtx *ExecutionContext
	groups  GroupLookup
	scripts ScriptRunner
	chainID Hash
	cfg     ChainConfig
	log     *logrus.Logger
	metrics *ControllerMetrics
}

// NewController wires a fresh ExecutionContext with every registered action
// handler and returns a Controller ready to apply blocks against db.
// metrics may be nil, in which case the controller runs uninstrumented.
func NewController(db *TokenDatabase, groups GroupLookup, scripts ScriptRunner, chainID Hash, cfg ChainConfig, log *logrus.Logger, metrics *ControllerMetrics) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	hot := NewHotCache(cfg.HotCacheSize)
	execCtx := NewExecutionContext()
	registerHandlers(execCtx)
	return &Controller{
		db:      db,
		hot:     hot,
		execCtx: execCtx,
		groups:  groups,
		scripts: scripts,
		chainID: chainID,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
}

// registerHandlers binds every action name this core implements to its
// handler at version 0, the only version this core ships.
func registerHandlers(execCtx *ExecutionContext) {
	const v0 = 0
	reg := []struct {
		name    string
		handler ActionHandler
	}{
		{"newdomain", HandleNewDomain},
		{"updatedomain", HandleUpdateDomain},
		{"issuetoken", HandleIssueToken},
		{"transfer", HandleTransfer},
		{"destroytoken", HandleDestroyToken},
		{"newgroup", HandleNewGroup},
		{"updategroup", HandleUpdateGroup},
		{"newfungible", HandleNewFungible},
		{"updfungible", HandleUpdateFungible},
		{"issuefungible", HandleIssueFungible},
		{"transferft", HandleTransferFt},
		{"jmzk2pjmzk", HandleEvt2Pjmzk},
		{"setpsvbonus", HandleSetPsvBonus},
		{"paybonus", HandlePayBonus},
		{"blackaddr", HandleBlackAddr},
		{"prodvote", HandleProdVote},
		{"updsched", HandleUpdSched},
		{"addmeta", HandleAddMeta},
		{"newsuspend", HandleNewSuspend},
		{"aprvsuspend", HandleAprvSuspend},
		{"cancelsuspend", HandleCancelSuspend},
		{"execsuspend", HandleExecSuspend},
		{"everipass", HandleEveriPass},
		{"everipay", HandleEveriPay},
		{"newstakepool", HandleNewStakePool},
		{"updstakepool", HandleUpdStakePool},
		{"newvalidator", HandleNewValidator},
		{"staketkns", HandleStakeTkns},
		{"toactivetkns", HandleToActiveTkns},
		{"unstaketkns", HandleUnstakeTkns},
		{"valiwithdraw", HandleValiWithdraw},
		{"recvstkbonus", HandleRecvStkBonus},
	}
	for _, r := range reg {
		execCtx.Register(r.name, v0, r.handler)
	}
}

// ApplyBlock opens a block-level savepoint and applies every transaction in
// order under its own nested session. The block's frame is left open on the
// database's savepoint stack as the new speculative head (spec.md §4.8's
// "for speculative apply a block-level savepoint is used"); it is only
// flattened into committed state once the caller calls Commit to mark it
// irreversible. A transaction whose Apply fails is rolled back to the
// block's own savepoint and recorded with its error; block application
// itself never aborts early.
func (c *Controller) ApplyBlock(block Block) ([]TrxResult, error) {
	c.log.WithFields(logrus.Fields{"block_num": block.Num, "trx_count": len(block.Trxs)}).Info("applying block")
	c.db.NewSavepointSession()
	results := make([]TrxResult, 0, len(block.Trxs))
	for i, trx := range block.Trxs {
		res, charge := c.applyTrx(trx, block.Timestamp)
		if res.Err != nil {
			c.log.WithFields(logrus.Fields{"block_num": block.Num, "trx_index": i, "error": res.Err.Error()}).Warn("transaction rolled back")
		}
		c.metrics.observeTrx(res, charge)
		results = append(results, res)
	}
	c.metrics.observeBlock(c.db.Depth())
	return results, nil
}

// applyTrx opens a transaction context scoped under the database's current
// top savepoint, recovers its signing keys, and runs the apply pipeline.
// On success its session is accepted into the enclosing (block) frame; on
// failure it is rolled back, leaving the block frame otherwise untouched.
func (c *Controller) applyTrx(trx Transaction, headBlockTime time.Time) (TrxResult, int64) {
	tc := NewTransactionContext(c.db, c.hot, c.execCtx, c.groups, c.scripts, c.chainID, headBlockTime, c.cfg)
	digest := tc.SigDigestFor(trx.Encode())
	tc.TrxID = digest
	if err := tc.RecoverSigningKeys(digest, trx.Signatures); err != nil {
		_ = tc.Rollback()
		return TrxResult{Err: asChainError(err)}, 0
	}
	if err := tc.Apply(trx); err != nil {
		_ = tc.Rollback()
		return TrxResult{Receipts: tc.Receipts(), Err: asChainError(err)}, 0
	}
	charge := tc.Charge.Compute()
	if err := tc.Accept(); err != nil {
		return TrxResult{Receipts: tc.Receipts(), Err: asChainError(err)}, 0
	}
	return TrxResult{Receipts: tc.Receipts()}, charge
}

// Commit squashes the database down to an empty savepoint stack (depth 0),
// the "irreversibility" point after which SnapshotWrite is valid. A chain
// instance calls this once a block is no longer subject to reversal by the
// out-of-scope consensus layer.
func (c *Controller) Commit() error {
	for c.db.Depth() > 0 {
		sess := &Session{db: c.db, seq: c.db.top().seq}
		if err := sess.Accept(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot serialises the TDB together with the supplied block header into
// a caller-framed pair, per spec.md §4.2/§4.8. The database must be fully
// committed (depth 0) first.
func (c *Controller) Snapshot(header Block) ([]SnapshotRecord, Block, error) {
	records, err := c.db.SnapshotWrite()
	if err != nil {
		return nil, Block{}, err
	}
	return records, header, nil
}

// Restore replaces the database's committed state from a prior Snapshot and
// returns the block header it was paired with.
func (c *Controller) Restore(records []SnapshotRecord, header Block) error {
	if err := c.db.SnapshotRead(records); err != nil {
		return err
	}
	c.log.WithField("block_num", header.Num).Info("restored from snapshot")
	return nil
}

// SnapshotBytes is Snapshot followed by RLP framing (spec.md §6's outer
// WAL/snapshot envelope), producing the single blob a chain instance writes
// to disk or ships to a peer for state sync.
func (c *Controller) SnapshotBytes(header Block) ([]byte, error) {
	records, header, err := c.Snapshot(header)
	if err != nil {
		return nil, err
	}
	return EncodeSnapshotFrame(header, records)
}

// RestoreBytes unframes a blob produced by SnapshotBytes and restores the
// database from it, returning the header it was taken at.
func (c *Controller) RestoreBytes(data []byte) (Block, error) {
	header, records, err := DecodeSnapshotFrame(data)
	if err != nil {
		return Block{}, err
	}
	if err := c.Restore(records, header); err != nil {
		return Block{}, err
	}
	return header, nil
}
