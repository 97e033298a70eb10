package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-pong-stats/internal/model"
)

// WriteSnapshot writes the payload as zstd-compressed JSON.
func WriteSnapshot(w io.Writer, d *model.Dashboard) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(d); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshot decodes and normalizes a payload written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*model.Dashboard, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()

	var d model.Dashboard
	if err := json.NewDecoder(dec).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return &d, nil
}

// SnapshotFile replays a snapshot file. The file is re-read on every
// fetch, so replacing it on disk updates the carousel.
type SnapshotFile struct {
	Path string
}

// FetchDashboard reads the snapshot. A non-zero tournamentID must match
// the one recorded in the file.
func (s SnapshotFile) FetchDashboard(ctx context.Context, tournamentID int64) (*model.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	d, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	if tournamentID != 0 && d.TournamentID != tournamentID {
		return nil, fmt.Errorf("snapshot holds tournament %d, not %d: %w", d.TournamentID, tournamentID, ErrNotFound)
	}
	return d, nil
}
