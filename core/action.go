package core

// Action is a typed state-transition request targeted at a (domain, key)
// pair (spec.md Glossary). Name selects the handler; Domain/Key address
// the record the action applies to (e.g. domain name + token name for
// transfer); Data is the action-specific encoded payload; Version pins
// which handler revision signed this action (propagated from the
// transaction's declared action version, not necessarily current_version).
type Action struct {
	Name    string
	Domain  Name128
	Key     Name128
	Version uint32
	Data    []byte
}

// Receipt is the per-action result attached to a transaction receipt:
// success, or the ChainError that caused the transaction to roll back.
type Receipt struct {
	Action Action
	Err    *ChainError
}

func (a Action) Encode() []byte {
	e := NewEncoder()
	e.WriteString(a.Name)
	encodeName128(e, a.Domain)
	encodeName128(e, a.Key)
	e.WriteFixedU32(a.Version)
	e.WriteBytes(a.Data)
	return e.Bytes()
}

func decodeAction(d *Decoder, field string) (Action, error) {
	d.push(field)
	defer d.pop()
	var a Action
	var err error
	if a.Name, err = d.ReadString(); err != nil {
		return a, err
	}
	if a.Domain, err = decodeName128(d, "domain"); err != nil {
		return a, err
	}
	if a.Key, err = decodeName128(d, "key"); err != nil {
		return a, err
	}
	if a.Version, err = d.ReadFixedU32(); err != nil {
		return a, err
	}
	if a.Data, err = d.ReadBytes(); err != nil {
		return a, err
	}
	return a, nil
}

// DecodeAction decodes a single standalone, fully self-contained Action.
func DecodeAction(b []byte) (Action, error) {
	d := NewDecoder(b)
	a, err := decodeAction(d, "action")
	if err != nil {
		return a, err
	}
	if err := d.Finish(); err != nil {
		return a, err
	}
	return a, nil
}
