package core

import (
	"time"

	"github.com/ethereum/go-ethereum/rlp"
)

// SnapshotHeader carries the block coordinates a snapshot was taken at. Only
// what a restore needs to know where the chain stood; the transactions
// themselves are irrelevant once their effects are committed.
type SnapshotHeader struct {
	Num               uint64
	TimestampUnixNano int64
}

// SnapshotFrame is the outer WAL/snapshot envelope: a header plus the
// committed token database dump. It is RLP-framed, distinct from the
// per-record binary codec the records themselves carry in Value.
type SnapshotFrame struct {
	Header  SnapshotHeader
	Records []SnapshotRecord
}

// EncodeSnapshotFrame frames a block header and a committed snapshot dump
// into a single RLP blob, the unit a chain instance writes to disk or ships
// over the wire for state sync.
func EncodeSnapshotFrame(header Block, records []SnapshotRecord) ([]byte, error) {
	frame := SnapshotFrame{
		Header: SnapshotHeader{
			Num:               header.Num,
			TimestampUnixNano: header.Timestamp.UnixNano(),
		},
		Records: records,
	}
	return rlp.EncodeToBytes(&frame)
}

// DecodeSnapshotFrame reverses EncodeSnapshotFrame.
func DecodeSnapshotFrame(data []byte) (Block, []SnapshotRecord, error) {
	var frame SnapshotFrame
	if err := rlp.DecodeBytes(data, &frame); err != nil {
		return Block{}, nil, err
	}
	header := Block{
		Num:       frame.Header.Num,
		Timestamp: time.Unix(0, frame.Header.TimestampUnixNano),
	}
	return header, frame.Records, nil
}
