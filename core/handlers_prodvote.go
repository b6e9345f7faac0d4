package core

import "sort"

// ProdVoteEntry is one producer's recorded vote toward a configuration key.
type ProdVoteEntry struct {
	Producer Name128
	Value    int64
}

// ProdVote is the per-key tally of producer votes toward a chain
// configuration field, stored under TokenTypeProdVote keyed by the key
// name. Registered Validators stand in for producers here, so a vote's
// authority is the named validator's own signer key; the quorum is sized by
// Config.ActiveProducerCount, which updsched sets from its stored schedule.
type ProdVote struct {
	Key   Name
	Votes []ProdVoteEntry
}

func (v ProdVote) Encode() []byte {
	e := NewEncoder()
	encodeName(e, v.Key)
	e.WriteVarUint(uint64(len(v.Votes)))
	for _, entry := range v.Votes {
		encodeName128(e, entry.Producer)
		e.WriteVarInt(entry.Value)
	}
	return e.Bytes()
}

func DecodeProdVote(data []byte) (ProdVote, error) {
	d := NewDecoder(data)
	var v ProdVote
	var err error
	if v.Key, err = decodeName(d, "key"); err != nil {
		return v, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return v, err
	}
	v.Votes = make([]ProdVoteEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		producer, err := decodeName128(d, "producer")
		if err != nil {
			return v, err
		}
		value, err := d.ReadVarInt()
		if err != nil {
			return v, err
		}
		v.Votes = append(v.Votes, ProdVoteEntry{Producer: producer, Value: value})
	}
	if err := d.Finish(); err != nil {
		return v, err
	}
	return v, nil
}

func (v *ProdVote) set(producer Name128, value int64) {
	for i := range v.Votes {
		if v.Votes[i].Producer == producer {
			v.Votes[i].Value = value
			return
		}
	}
	v.Votes = append(v.Votes, ProdVoteEntry{Producer: producer, Value: value})
}

func (v ProdVote) median() int64 {
	values := make([]int64, len(v.Votes))
	for i, entry := range v.Votes {
		values[i] = entry.Value
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

func prodVoteKey(key Name) string { return key.String() }

// ProdVotePayload is the decoded prodvote action payload.
type ProdVotePayload struct {
	Producer Name128
	Key      Name
	Value    int64
}

func (p ProdVotePayload) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, p.Producer)
	encodeName(e, p.Key)
	e.WriteVarInt(p.Value)
	return e.Bytes()
}

func DecodeProdVotePayload(data []byte) (ProdVotePayload, error) {
	d := NewDecoder(data)
	var p ProdVotePayload
	var err error
	if p.Producer, err = decodeName128(d, "producer"); err != nil {
		return p, err
	}
	if p.Key, err = decodeName(d, "key"); err != nil {
		return p, err
	}
	if p.Value, err = d.ReadVarInt(); err != nil {
		return p, err
	}
	if err := d.Finish(); err != nil {
		return p, err
	}
	return p, nil
}

// prodVoteConfigSetters maps a vote key to the ChainConfig field its median
// applies to, the chain-tunable knobs this core exposes to producer
// governance.
var prodVoteConfigSetters = map[string]func(cfg *ChainConfig, median int64){
	"unstakedays": func(cfg *ChainConfig, median int64) { cfg.UnstakePendingDays = uint32(median) },
	"lnkexpire":   func(cfg *ChainConfig, median int64) { cfg.LinkExpiredSecs = uint32(median) },
	"maxrecur":    func(cfg *ChainConfig, median int64) { cfg.MaxRecursionDepth = uint32(median) },
}

// HandleProdVote implements prodvote: spec.md §4.5/§4.7. Authority is the
// named validator's own signer key. Once a key has votes from at least
// ceil(2*ActiveProducerCount/3) distinct producers, the configuration field
// it maps to is set in the transaction's own Config to the median of all
// recorded votes (floor-rounded for an even vote count); propagating that
// change to later transactions/blocks is left to the controller process
// that owns persisting ChainConfig, outside this core's scope.
func HandleProdVote(tc *TransactionContext, act *Action) error {
	p, err := DecodeProdVotePayload(act.Data)
	if err != nil {
		return err
	}
	if p.Value <= 0 || p.Value >= 1_000_000 {
		return newChainError(ErrInvalidType, "prodvote value out of range", "value", p.Value)
	}
	validator, err := ReadToken(tc.Cache, TokenTypeValidator, "", p.Producer.String(), false, DecodeValidator)
	if err != nil {
		return err
	}
	if err := tc.RequireAuthority(singleAccountPermission(validator.Signer), nil); err != nil {
		return err
	}
	vote, err := ReadToken(tc.Cache, TokenTypeProdVote, "", prodVoteKey(p.Key), true, DecodeProdVote)
	if err != nil {
		return err
	}
	op := PutOpUpdate
	if vote == nil {
		vote = &ProdVote{Key: p.Key}
		op = PutOpAdd
	}
	vote.set(p.Producer, p.Value)
	if err := PutToken(tc.Cache, op, TokenTypeProdVote, "", prodVoteKey(p.Key), vote, (*ProdVote).Encode); err != nil {
		return err
	}
	if tc.Config.ActiveProducerCount == 0 {
		return nil
	}
	quorum := (2*int(tc.Config.ActiveProducerCount) + 2) / 3
	if len(vote.Votes) < quorum {
		return nil
	}
	if setter, ok := prodVoteConfigSetters[p.Key.String()]; ok {
		setter(&tc.Config, vote.median())
	}
	return nil
}
