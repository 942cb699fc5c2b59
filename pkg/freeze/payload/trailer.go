// Package payload defines the appended-payload format used by one-file
// executables: the compressed module archive is written after the launcher
// stub, followed by a fixed trailer the stub can locate from the end of its
// own file.
//
// Layout, reading backwards from EOF:
//
//	[stub][payload][chain string][checksum 32B][chain len u16][payload size u64][magic 8B]
package payload

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// Magic identifies the trailer of an embedded payload.
var Magic = []byte("CRYOPKG1")

const (
	checksumSize  = sha256.Size
	fixedTailSize = 2 + 8 + 8 // chain len + payload size + magic
)

// Info describes an embedded payload located in an executable.
type Info struct {
	Offset   int64  // file offset of the payload bytes
	Size     int64  // payload size in bytes
	Chain    string // operation chain applied to the archive
	Checksum [checksumSize]byte
}

// HexChecksum returns the payload checksum as a hex string.
func (i *Info) HexChecksum() string {
	return fmt.Sprintf("%x", i.Checksum)
}

// Append writes payload data plus trailer to w. The payload is the already
// transformed archive; chain records how to reverse it.
func Append(w io.Writer, data []byte, chain string) error {
	if len(chain) > 0xFFFF {
		return fmt.Errorf("operation chain too long: %d bytes", len(chain))
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if _, err := io.WriteString(w, chain); err != nil {
		return fmt.Errorf("writing chain: %w", err)
	}

	sum := sha256.Sum256(data)
	if _, err := w.Write(sum[:]); err != nil {
		return fmt.Errorf("writing checksum: %w", err)
	}

	tail := make([]byte, fixedTailSize)
	binary.LittleEndian.PutUint16(tail[0:2], uint16(len(chain)))
	binary.LittleEndian.PutUint64(tail[2:10], uint64(len(data)))
	copy(tail[10:], Magic)
	if _, err := w.Write(tail); err != nil {
		return fmt.Errorf("writing trailer: %w", err)
	}
	return nil
}

// Find locates an embedded payload in the executable at path. Returns
// ErrNoPayload when the file carries no trailer.
func Find(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening executable: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat executable: %w", err)
	}
	if stat.Size() < int64(fixedTailSize+checksumSize) {
		return nil, ferrors.ErrNoPayload
	}

	tail := make([]byte, fixedTailSize)
	if _, err := f.ReadAt(tail, stat.Size()-int64(fixedTailSize)); err != nil {
		return nil, fmt.Errorf("reading trailer: %w", err)
	}
	if !bytes.Equal(tail[10:], Magic) {
		return nil, ferrors.ErrNoPayload
	}

	chainLen := int64(binary.LittleEndian.Uint16(tail[0:2]))
	size := int64(binary.LittleEndian.Uint64(tail[2:10]))

	metaSize := int64(fixedTailSize+checksumSize) + chainLen
	if size <= 0 || size+metaSize > stat.Size() {
		return nil, fmt.Errorf("%w: payload size %d out of range", ferrors.ErrInvalidTrailer, size)
	}

	info := &Info{
		Offset: stat.Size() - metaSize - size,
		Size:   size,
	}

	meta := make([]byte, chainLen+checksumSize)
	if _, err := f.ReadAt(meta, info.Offset+size); err != nil {
		return nil, fmt.Errorf("reading trailer metadata: %w", err)
	}
	info.Chain = string(meta[:chainLen])
	copy(info.Checksum[:], meta[chainLen:])

	return info, nil
}

// Read loads and verifies the payload bytes described by info.
func Read(path string, info *Info) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening executable: %w", err)
	}
	defer f.Close()

	data := make([]byte, info.Size)
	if _, err := f.ReadAt(data, info.Offset); err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	if sha256.Sum256(data) != info.Checksum {
		return nil, ferrors.ErrChecksumMismatch
	}
	return data, nil
}
