package core

// SuspendStatus is the suspend record's lifecycle state. Proposed is the
// only non-terminal state; Cancelled, Executed and Failed are absorbing.
type SuspendStatus uint8

const (
	SuspendProposed SuspendStatus = iota
	SuspendCancelled
	SuspendExecuted
	SuspendFailed
)

func (s SuspendStatus) Terminal() bool {
	return s != SuspendProposed
}

func (s SuspendStatus) String() string {
	switch s {
	case SuspendProposed:
		return "proposed"
	case SuspendCancelled:
		return "cancelled"
	case SuspendExecuted:
		return "executed"
	case SuspendFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Suspend holds a transaction proposed for later, multi-party-approved
// execution. The suspended transaction's raw encoded bytes are stored
// alongside the set of keys that have signed off on it so far.
type Suspend struct {
	Name       Name128
	Proposer   PublicKey
	Status     SuspendStatus
	Trx        []byte // encoded suspended transaction
	SignedKeys []PublicKey
	Signatures []Signature
}

// HasSigned reports whether key already appears in SignedKeys.
func (s Suspend) HasSigned(key PublicKey) bool {
	for _, k := range s.SignedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Transition moves the suspend to a terminal or to-Proposed state,
// rejecting any transition out of an already-terminal status.
func (s *Suspend) Transition(to SuspendStatus) error {
	if s.Status.Terminal() {
		return newChainError(ErrSuspendNotProposed, "suspend already in a terminal state",
			"name", s.Name.String(), "status", s.Status.String())
	}
	s.Status = to
	return nil
}

func (s Suspend) Encode() []byte {
	e := NewEncoder()
	encodeName128(e, s.Name)
	encodePublicKey(e, s.Proposer)
	e.WriteByte(byte(s.Status))
	e.WriteBytes(s.Trx)
	e.WriteVarUint(uint64(len(s.SignedKeys)))
	for _, k := range s.SignedKeys {
		encodePublicKey(e, k)
	}
	e.WriteVarUint(uint64(len(s.Signatures)))
	for _, sig := range s.Signatures {
		e.WriteByte(sig.Curve)
		e.WriteRaw(sig.Data[:])
	}
	return e.Bytes()
}

func DecodeSuspend(b []byte) (Suspend, error) {
	d := NewDecoder(b)
	var s Suspend
	var err error
	if s.Name, err = decodeName128(d, "name"); err != nil {
		return s, err
	}
	if s.Proposer, err = decodePublicKey(d, "proposer"); err != nil {
		return s, err
	}
	statusByte, err := d.ReadByte()
	if err != nil {
		return s, err
	}
	if statusByte > byte(SuspendFailed) {
		return s, d.fail("bad suspend status", "value", statusByte)
	}
	s.Status = SuspendStatus(statusByte)
	if s.Trx, err = d.ReadBytes(); err != nil {
		return s, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return s, err
	}
	s.SignedKeys = make([]PublicKey, 0, n)
	for i := uint64(0); i < n; i++ {
		k, err := decodePublicKey(d, "signed_key")
		if err != nil {
			return s, err
		}
		s.SignedKeys = append(s.SignedKeys, k)
	}
	m, err := d.ReadVarUint()
	if err != nil {
		return s, err
	}
	s.Signatures = make([]Signature, 0, m)
	for i := uint64(0); i < m; i++ {
		curve, err := d.ReadByte()
		if err != nil {
			return s, err
		}
		raw, err := d.ReadRaw(65)
		if err != nil {
			return s, err
		}
		var sig Signature
		sig.Curve = curve
		copy(sig.Data[:], raw)
		s.Signatures = append(s.Signatures, sig)
	}
	if err := d.Finish(); err != nil {
		return s, err
	}
	return s, nil
}
