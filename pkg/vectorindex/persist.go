package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"
)

const (
	FormatVersion = 1
	FileName      = "index.json"
)

var (
	ErrNotFound    = errors.New("no persisted index")
	ErrCorrupt     = errors.New("persisted index is corrupt")
	ErrUnsupported = errors.New("unsupported index format version")
)

type persistedIndex struct {
	Version    int             `json:"version"`
	BuildID    string          `json:"build_id"`
	Embedder   string          `json:"embedder"`
	Dimension  int             `json:"dimension"`
	BuiltAt    time.Time       `json:"built_at"`
	ChunkCount int             `json:"chunk_count"`
	Checksum   uint32          `json:"checksum"`
	Chunks     json.RawMessage `json:"chunks"`
}

// Path returns the artifact location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Save writes ix into dir. The artifact is written to a temp file, synced and
// renamed over the previous one, so a crash leaves either the old or the new
// index on disk and never a mix.
func Save(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}

	chunkData, err := json.Marshal(ix.chunks)
	if err != nil {
		return fmt.Errorf("marshaling chunks: %w", err)
	}

	data, err := json.Marshal(persistedIndex{
		Version:    FormatVersion,
		BuildID:    ix.BuildID,
		Embedder:   ix.Embedder,
		Dimension:  ix.Dimension,
		BuiltAt:    ix.BuiltAt,
		ChunkCount: len(ix.chunks),
		Checksum:   crc32.ChecksumIEEE(chunkData),
		Chunks:     chunkData,
	})
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	f, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, Path(dir)); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

// Load reads the artifact from dir. ErrNotFound means nothing was ever saved.
func Load(dir string) (*Index, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	var p persistedIndex
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, p.Version)
	}
	if crc32.ChecksumIEEE(p.Chunks) != p.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var chunks []Chunk
	if err := json.Unmarshal(p.Chunks, &chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(chunks) != p.ChunkCount {
		return nil, fmt.Errorf("%w: expected %d chunks, found %d", ErrCorrupt, p.ChunkCount, len(chunks))
	}

	ix, err := New(p.BuildID, p.Embedder, p.BuiltAt, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if ix.Dimension != p.Dimension {
		return nil, fmt.Errorf("%w: dimension %d, header says %d", ErrCorrupt, ix.Dimension, p.Dimension)
	}
	return ix, nil
}
