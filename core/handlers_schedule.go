package core

// ScheduleEntry is one producer's entry in the active schedule: its
// validator name and the key authorized to sign on its behalf.
type ScheduleEntry struct {
	Producer Name128
	Key      PublicKey
}

// Schedule is the current active producer schedule, stored as a single
// record under TokenTypeSchedule so prodvote's quorum calculation has a
// concrete producer count to size itself against (core/handlers_prodvote.go).
// This core keeps no other notion of a live producer roster; schedule
// membership and rotation are otherwise owned by the external controller
// that supplies the block/trx stream.
type Schedule struct {
	Producers []ScheduleEntry
}

const scheduleKey = ".schedule"

func (s Schedule) Encode() []byte {
	e := NewEncoder()
	e.WriteVarUint(uint64(len(s.Producers)))
	for _, p := range s.Producers {
		encodeName128(e, p.Producer)
		encodePublicKey(e, p.Key)
	}
	return e.Bytes()
}

func DecodeSchedule(data []byte) (Schedule, error) {
	d := NewDecoder(data)
	var s Schedule
	n, err := d.ReadVarUint()
	if err != nil {
		return s, err
	}
	s.Producers = make([]ScheduleEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		producer, err := decodeName128(d, "producer")
		if err != nil {
			return s, err
		}
		key, err := decodePublicKey(d, "key")
		if err != nil {
			return s, err
		}
		s.Producers = append(s.Producers, ScheduleEntry{Producer: producer, Key: key})
	}
	if err := d.Finish(); err != nil {
		return s, err
	}
	return s, nil
}

// UpdSchedPayload is the decoded updsched action payload: the full
// replacement producer schedule.
type UpdSchedPayload struct {
	Producers []ScheduleEntry
}

func (p UpdSchedPayload) Encode() []byte {
	return Schedule{Producers: p.Producers}.Encode()
}

func DecodeUpdSchedPayload(data []byte) (UpdSchedPayload, error) {
	s, err := DecodeSchedule(data)
	if err != nil {
		return UpdSchedPayload{}, err
	}
	return UpdSchedPayload{Producers: s.Producers}, nil
}

// HandleUpdSched implements updsched: requires satisfaction of the
// genesis-seeded root governance group, the same authority newstakepool
// and blackaddr require. It replaces the active schedule wholesale and
// updates the transaction's own Config.ActiveProducerCount so any prodvote
// processed later in the same transaction sizes its quorum against the new
// schedule; persisting that count past that transaction is the embedding
// controller's responsibility, the same caveat prodvote's median-apply
// carries (see DESIGN.md).
func HandleUpdSched(tc *TransactionContext, act *Action) error {
	p, err := DecodeUpdSchedPayload(act.Data)
	if err != nil {
		return err
	}
	if len(p.Producers) == 0 {
		return newChainError(ErrInvalidType, "updsched requires a non-empty producer list")
	}
	if err := tc.RequireAuthority(rootGroupPermission(), nil); err != nil {
		return err
	}
	seen := make(map[Name128]bool, len(p.Producers))
	for _, entry := range p.Producers {
		if seen[entry.Producer] {
			return newChainError(ErrInvalidType, "duplicate producer in schedule", "producer", entry.Producer.String())
		}
		seen[entry.Producer] = true
	}
	op := PutOpUpdate
	if !tc.DB.ExistsToken(TokenTypeSchedule, "", scheduleKey) {
		op = PutOpAdd
	}
	sched := Schedule{Producers: p.Producers}
	if err := PutToken(tc.Cache, op, TokenTypeSchedule, "", scheduleKey, &sched, (*Schedule).Encode); err != nil {
		return err
	}
	tc.Config.ActiveProducerCount = uint32(len(p.Producers))
	return nil
}
