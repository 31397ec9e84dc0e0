package blob

import (
	"fmt"

	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/internal/hash"
	"github.com/s4ayub/rowquant/section"
)

// maxMatrixNameLen is the longest matrix name the names payload can hold,
// bounded by its uint16 length prefix.
const maxMatrixNameLen = 65535

// encodeMatrixNames encodes matrix names into the length-prefixed names
// payload: [Count: uint16] [Len1: uint16][Name1: UTF-8] [Len2: uint16][Name2: UTF-8] ...
//
// The payload sits between the header and the index section. It is written
// when the caller requests embedded names or when two names hash to the
// same matrix ID, and names[i] always describes index entry i.
func encodeMatrixNames(names []string, engine endian.EndianEngine) ([]byte, error) {
	if len(names) > MaxMatrixCount {
		return nil, fmt.Errorf("%w: %d names, max %d", errs.ErrMatrixCountExceeded, len(names), MaxMatrixCount)
	}

	// 2 bytes for the count, then a 2-byte length prefix per name.
	totalSize := 2
	for _, name := range names {
		if len(name) > maxMatrixNameLen {
			return nil, fmt.Errorf("%w: name of %d bytes exceeds maximum length %d",
				errs.ErrInvalidMatrixName, len(name), maxMatrixNameLen)
		}
		totalSize += 2 + len(name)
	}

	buf := make([]byte, totalSize)
	engine.PutUint16(buf, uint16(len(names))) //nolint: gosec
	offset := 2

	for _, name := range names {
		engine.PutUint16(buf[offset:], uint16(len(name))) //nolint: gosec
		offset += 2
		offset += copy(buf[offset:], name)
	}

	return buf, nil
}

// decodeMatrixNames decodes a names payload and returns the names in index
// order plus the number of bytes consumed.
func decodeMatrixNames(data []byte, engine endian.EndianEngine) ([]string, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: cannot read name count (need 2 bytes, have %d)",
			errs.ErrInvalidNamesPayload, len(data))
	}

	count := int(engine.Uint16(data))
	offset := 2

	names := make([]string, count)
	for i := range names {
		if len(data) < offset+2 {
			return nil, 0, fmt.Errorf("%w: cannot read length of name %d (need 2 bytes at offset %d, have %d total)",
				errs.ErrInvalidNamesPayload, i, offset, len(data))
		}

		nameLen := int(engine.Uint16(data[offset:]))
		offset += 2

		if len(data) < offset+nameLen {
			return nil, 0, fmt.Errorf("%w: cannot read name %d (need %d bytes at offset %d, have %d total)",
				errs.ErrInvalidNamesPayload, i, nameLen, offset, len(data))
		}

		// string() copies, so the names do not pin the blob buffer.
		names[i] = string(data[offset : offset+nameLen])
		offset += nameLen
	}

	return names, offset, nil
}

// verifyMatrixNameHashes checks that names[i] hashes to the matrix ID of
// index entry i, guarding against a names payload that was reordered or
// edited independently of the index.
func verifyMatrixNameHashes(names []string, entries []section.MatrixIndexEntry) error {
	if len(names) != len(entries) {
		return fmt.Errorf("%w: %d names for %d index entries",
			errs.ErrInvalidNamesPayload, len(names), len(entries))
	}

	for i, name := range names {
		if id := hash.ID(name); id != entries[i].MatrixID {
			return fmt.Errorf("%w: name %q at index %d hashes to 0x%016x, index entry has 0x%016x",
				errs.ErrInvalidNamesPayload, name, i, id, entries[i].MatrixID)
		}
	}

	return nil
}
