// Package archive journals accepted authoritative snapshots to disk so a
// session can be replayed offline for debugging prediction divergence.
package archive

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/wire"
)

type Header struct {
	Version    int    `json:"version"`
	Generation uint64 `json:"generation"`
}

// Record is one archived snapshot plus the client's view of it at accept
// time, enough to replay a reconciliation decision.
type Record struct {
	Header   Header
	Snapshot wire.StateSnapshot
	Drift    int64 // local minus confirmed at the moment of acceptance
}

// WriteRecord stores one record as a zstd-compressed gob file, with a
// plain-json header line in front so files can be identified without a full
// decode.
func WriteRecord(dir string, rec Record) error {
	path := filepath.Join(dir, fmt.Sprintf("snap-%012d.zst", rec.Header.Generation))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(rec.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&rec); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadRecord loads one archived snapshot.
func ReadRecord(path string) (Record, error) {
	var rec Record
	f, err := os.Open(path)
	if err != nil {
		return rec, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return rec, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is informational, gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&rec); err != nil {
		return rec, fmt.Errorf("gob decode: %w", err)
	}
	return rec, nil
}

// List returns the archived snapshot paths in generation order.
func List(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "snap-*.zst"))
}
