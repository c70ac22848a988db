// Package codec stores a built tree's kd-ordered records in XDR.
//
// Layout: magic, version, dimension, count, then count records of a label
// string followed by dimension doubles. Records keep their kd order so a
// decoded snapshot can be adopted without partitioning again.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-xdr/xdr2"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/pkg/container/kdtree"
)

const (
	magic   uint32 = 0x6b647472
	version uint32 = 1

	MaxDimension = 1 << 12
	MaxRecords   = 1 << 26
)

var (
	ErrBadMagic   = errors.New("codec: not a kd snapshot")
	ErrBadVersion = errors.New("codec: unsupported snapshot version")
	ErrCorrupt    = errors.New("codec: corrupt snapshot")
)

// Record is a labelled point, the item type of served trees.
type Record = kdtree.Entry[geom.Point, string]

func Encode(w io.Writer, dim int, records []Record) error {
	if dim < 0 || dim > MaxDimension || len(records) > MaxRecords {
		return ErrCorrupt
	}
	bw := bufio.NewWriter(w)
	enc := xdr.NewEncoder(bw)
	for _, v := range []uint32{magic, version, uint32(dim), uint32(len(records))} {
		if _, err := enc.EncodeUint(v); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	for i := range records {
		if len(records[i].Key) != dim {
			return fmt.Errorf("record %d: %w", i, kdtree.ErrInvalidDimension)
		}
		if _, err := enc.EncodeString(records[i].Value); err != nil {
			return fmt.Errorf("encode label: %w", err)
		}
		for _, c := range records[i].Key {
			if _, err := enc.EncodeDouble(c); err != nil {
				return fmt.Errorf("encode coordinate: %w", err)
			}
		}
	}
	return bw.Flush()
}

func Decode(r io.Reader) (int, []Record, error) {
	dec := xdr.NewDecoder(bufio.NewReader(r))
	header := make([]uint32, 4)
	for i := range header {
		v, _, err := dec.DecodeUint()
		if err != nil {
			return 0, nil, fmt.Errorf("decode header: %w", err)
		}
		header[i] = v
	}
	switch {
	case header[0] != magic:
		return 0, nil, ErrBadMagic
	case header[1] != version:
		return 0, nil, ErrBadVersion
	case header[2] > MaxDimension || header[3] > MaxRecords:
		return 0, nil, ErrCorrupt
	case header[3] > 0 && header[2] == 0:
		return 0, nil, ErrCorrupt
	}

	dim, n := int(header[2]), int(header[3])
	records := make([]Record, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		label, _, err := dec.DecodeString()
		if err != nil {
			return 0, nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		p := make(geom.Point, dim)
		for k := range p {
			if p[k], _, err = dec.DecodeDouble(); err != nil {
				return 0, nil, fmt.Errorf("decode record %d: %w", i, err)
			}
		}
		records = append(records, Record{Key: p, Value: label})
	}
	return dim, records, nil
}
