/*
 Package checkpoint persists layer state. A checkpoint is a small header
(magic, format version, checkpoint id) followed by the zstd compressed gob
encoding of an htm.LayerState.
*/
package checkpoint

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	htm "github.com/htm-community/seqmem"
)

const Version uint16 = 1

var magic = [8]byte{'H', 'T', 'M', 'S', 'E', 'Q', 'C', 'P'}

var (
	ErrNotCheckpoint      = errors.New("checkpoint: not a checkpoint")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported version")
)

// Header identifies a checkpoint.
type Header struct {
	Version uint16
	ID      uuid.UUID
}

type rawHeader struct {
	Magic   [8]byte
	Version uint16
	ID      [16]byte
}

// Write encodes state to w under a fresh id and returns its header.
func Write(w io.Writer, state *htm.LayerState) (Header, error) {
	h := Header{Version: Version, ID: uuid.New()}
	if err := binary.Write(w, binary.BigEndian, rawHeader{Magic: magic, Version: h.Version, ID: h.ID}); err != nil {
		return Header{}, fmt.Errorf("checkpoint: writing header: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return Header{}, err
	}
	if err := gob.NewEncoder(zw).Encode(state); err != nil {
		zw.Close()
		return Header{}, fmt.Errorf("checkpoint: encoding state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return Header{}, fmt.Errorf("checkpoint: compressing state: %w", err)
	}
	return h, nil
}

// Read decodes a checkpoint written by Write.
func Read(r io.Reader) (*htm.LayerState, Header, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Header{}, ErrNotCheckpoint
		}
		return nil, Header{}, fmt.Errorf("checkpoint: reading header: %w", err)
	}
	if raw.Magic != magic {
		return nil, Header{}, ErrNotCheckpoint
	}
	h := Header{Version: raw.Version, ID: uuid.UUID(raw.ID)}
	if h.Version != Version {
		return nil, h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, h, err
	}
	defer zr.Close()

	state := new(htm.LayerState)
	if err := gob.NewDecoder(zr).Decode(state); err != nil {
		return nil, h, fmt.Errorf("checkpoint: decoding state: %w", err)
	}
	return state, h, nil
}

// Save writes a checkpoint of l to path, replacing it atomically.
func Save(path string, l *htm.Layer) (Header, error) {
	state, err := l.State()
	if err != nil {
		return Header{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return Header{}, err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	h, err := Write(bw, state)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Header{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Load restores the layer saved at path.
func Load(path string, opts ...htm.Option) (*htm.Layer, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()

	state, h, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, h, err
	}
	l, err := htm.RestoreLayer(state, opts...)
	if err != nil {
		return nil, h, err
	}
	return l, h, nil
}
