package blob

import (
	"fmt"
	"time"

	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/internal/collision"
	"github.com/s4ayub/rowquant/internal/hash"
	"github.com/s4ayub/rowquant/internal/options"
	"github.com/s4ayub/rowquant/internal/pool"
	"github.com/s4ayub/rowquant/quant"
	"github.com/s4ayub/rowquant/section"
)

// matrixIdentifierMode defines how matrices are identified in the encoder.
// Once the first matrix is added, the mode is locked for the encoder's
// lifetime.
type matrixIdentifierMode uint8

const (
	// modeUndefined indicates no matrices have been added yet.
	modeUndefined matrixIdentifierMode = iota

	// modeUserID indicates the caller provides matrix IDs via AddMatrixID.
	// Duplicate IDs are errors and the blob never embeds a names payload.
	modeUserID

	// modeNameManaged indicates names are hashed to matrix IDs via
	// AddMatrix. Duplicate names are errors; a hash collision between two
	// different names flips the blob into embed-names mode so decoders can
	// disambiguate.
	modeNameManaged
)

// MatrixEncoder encodes float32 matrices into the fused blob format.
//
// Each added matrix is quantized immediately into a pooled payload buffer,
// so the encoder never holds the float inputs. Finish assembles the final
// blob: header, optional names payload, index section, payload section.
//
// Note: The MatrixEncoder is NOT thread-safe. Each encoder instance should
// be used by a single goroutine at a time.
//
// Note: The MatrixEncoder is NOT reusable. After calling Finish, a new
// encoder must be created for further encoding.
type MatrixEncoder struct {
	*MatrixEncoderConfig

	fused8 *quant.Fused8Encoder
	fusedN map[format.BitRate]*quant.FusedNEncoder

	// payload accumulates fused rows of all matrices, uncompressed.
	payload *pool.ByteBuffer

	// tracker records identifiers in both modes: hashed names with
	// collision detection, or raw IDs with duplicate detection.
	tracker *collision.Tracker

	identifierMode matrixIdentifierMode
	hasCollision   bool
	finished       bool
}

// cloneHeader returns a shallow copy of the configured header, so Finish
// can set the computed fields without mutating the configuration.
func (e *MatrixEncoder) cloneHeader() *section.MatrixHeader {
	cloned := *e.header
	return &cloned
}

// NewMatrixEncoder creates a new MatrixEncoder with the given creation time.
//
// The index grows dynamically as matrices are added, up to MaxMatrixCount.
//
// Parameters:
//   - createdAt: Creation timestamp stored in the blob header, used as a
//     sorting key when blobs of the same model are kept side by side
//   - opts: Optional configuration (endianness, payload compression, names)
//
// Returns:
//   - *MatrixEncoder: New encoder instance ready for adding matrices
//   - error: Configuration error if invalid options were provided
func NewMatrixEncoder(createdAt time.Time, opts ...MatrixEncoderOption) (*MatrixEncoder, error) {
	config := NewMatrixEncoderConfig(createdAt)

	if err := options.Apply(config, opts...); err != nil {
		return nil, err
	}

	if err := config.setCodec(); err != nil {
		return nil, err
	}

	fused8, err := quant.NewFused8Encoder(quant.WithEngine(config.engine))
	if err != nil {
		return nil, err
	}

	return &MatrixEncoder{
		MatrixEncoderConfig: config,
		fused8:              fused8,
		identifierMode:      modeUndefined,
		tracker:             nil, // created when the first add locks the mode
		payload:             pool.GetPayloadBuffer(),
	}, nil
}

// subByteEncoder returns the cached sub-byte encoder for the given rate,
// creating it on first use. NewFusedNEncoder validates the rate.
func (e *MatrixEncoder) subByteEncoder(rate format.BitRate) (*quant.FusedNEncoder, error) {
	if enc, ok := e.fusedN[rate]; ok {
		return enc, nil
	}

	enc, err := quant.NewFusedNEncoder(rate, quant.WithEngine(e.engine))
	if err != nil {
		return nil, err
	}

	if e.fusedN == nil {
		e.fusedN = make(map[format.BitRate]*quant.FusedNEncoder, 2)
	}
	e.fusedN[rate] = enc

	return enc, nil
}

// AddMatrix quantizes a rows×cols row-major float32 matrix with the 8-bit
// codec and appends it to the blob under the given name.
//
// The name is hashed to an unsigned 64-bit matrix ID using xxHash64. If two
// different names hash to the same ID, the encoder automatically embeds the
// names payload so decoders can disambiguate; a collision is NOT an error.
//
// This method is exclusive with AddMatrixID. Once one identifier scheme is
// used, all subsequent matrices must use the same scheme.
//
// A failed add leaves the encoder unchanged, so the caller may fix the
// input and retry.
//
// Parameters:
//   - name: Matrix name (must be non-empty)
//   - data: Row-major float32 values, len(data) must equal rows*cols
//   - rows: Number of rows
//   - cols: Number of float columns per row
//
// Returns:
//   - error: ErrEncoderFinished, ErrMixedIdentifierMode,
//     ErrInvalidMatrixName, ErrMatrixCountExceeded, ErrInvalidShape,
//     ErrPayloadTooLarge, or ErrMatrixAlreadyAdded for a duplicate name
func (e *MatrixEncoder) AddMatrix(name string, data []float32, rows, cols int) error {
	return e.addNamed(name, data, rows, cols, format.BitRate8)
}

// AddMatrixBitRate quantizes a rows×cols row-major float32 matrix at the
// given bit rate and appends it to the blob under the given name.
//
// Rate 8 selects the byte codec with the float32 trailer, identical to
// AddMatrix. Rates 2 and 4 select the packed sub-byte codec with the fp16
// trailer; they require cols to be a multiple of twice the codes per byte
// and return ErrColumnsNotAligned otherwise.
func (e *MatrixEncoder) AddMatrixBitRate(name string, data []float32, rows, cols int, rate format.BitRate) error {
	return e.addNamed(name, data, rows, cols, rate)
}

// AddMatrixID quantizes a rows×cols row-major float32 matrix with the
// 8-bit codec and appends it to the blob under a caller-assigned ID.
//
// Use this when the application already has unique 64-bit matrix IDs: it
// skips name hashing, and the blob never embeds a names payload. Adding
// the same ID twice returns ErrHashCollision.
//
// This method is exclusive with AddMatrix. Once one identifier scheme is
// used, all subsequent matrices must use the same scheme.
func (e *MatrixEncoder) AddMatrixID(matrixID uint64, data []float32, rows, cols int) error {
	return e.addByID(matrixID, data, rows, cols, format.BitRate8)
}

// AddMatrixIDBitRate quantizes a rows×cols row-major float32 matrix at the
// given bit rate and appends it to the blob under a caller-assigned ID.
// See AddMatrixBitRate for the rate rules.
func (e *MatrixEncoder) AddMatrixIDBitRate(matrixID uint64, data []float32, rows, cols int, rate format.BitRate) error {
	return e.addByID(matrixID, data, rows, cols, rate)
}

// addNamed locks name mode and resolves the name to its hashed matrix ID.
func (e *MatrixEncoder) addNamed(name string, data []float32, rows, cols int, rate format.BitRate) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}

	if e.identifierMode == modeUserID {
		return fmt.Errorf("%w: cannot add a named matrix after AddMatrixID", errs.ErrMixedIdentifierMode)
	}

	if e.identifierMode == modeUndefined {
		e.identifierMode = modeNameManaged
		e.tracker = collision.NewTracker()
	}

	if name == "" {
		return fmt.Errorf("%w: name is empty", errs.ErrInvalidMatrixName)
	}

	return e.appendMatrix(hash.ID(name), name, data, rows, cols, rate)
}

// addByID locks ID mode and hands the caller-supplied ID through unhashed.
func (e *MatrixEncoder) addByID(matrixID uint64, data []float32, rows, cols int, rate format.BitRate) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}

	if e.identifierMode == modeNameManaged {
		return fmt.Errorf("%w: cannot add a matrix by ID after AddMatrix", errs.ErrMixedIdentifierMode)
	}

	if e.identifierMode == modeUndefined {
		e.identifierMode = modeUserID
		e.tracker = collision.NewTracker()
	}

	return e.appendMatrix(matrixID, "", data, rows, cols, rate)
}

// appendMatrix quantizes the matrix into the payload buffer and records its
// index entry. The payload reservation is rolled back when quantization or
// identifier tracking fails, keeping names, IDs and index entries aligned.
func (e *MatrixEncoder) appendMatrix(matrixID uint64, name string, data []float32, rows, cols int, rate format.BitRate) error {
	if len(e.entries) >= MaxMatrixCount {
		return fmt.Errorf("%w: max %d matrices per blob", errs.ErrMatrixCountExceeded, MaxMatrixCount)
	}

	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return fmt.Errorf("%w: %d values for a %dx%d matrix", errs.ErrInvalidShape, len(data), rows, cols)
	}

	var entry section.MatrixIndexEntry
	var encodedLen int
	var subByte *quant.FusedNEncoder

	if rate == format.BitRate8 {
		encodedLen = quant.Fused8EncodedLen(rows, cols)
		entry = section.NewMatrixIndexEntry(matrixID, rows, cols)
	} else {
		var err error
		subByte, err = e.subByteEncoder(rate)
		if err != nil {
			return err
		}
		encodedLen = quant.FusedNEncodedLen(rows, cols, rate)
		entry = section.NewMatrixIndexEntryN(matrixID, rows, cols, rate)
	}

	start := e.payload.Len()
	if start+encodedLen > section.MaxSectionOffset {
		return fmt.Errorf("%w: payload section would reach %d bytes, max %d",
			errs.ErrPayloadTooLarge, start+encodedLen, section.MaxSectionOffset)
	}

	e.payload.ExtendOrGrow(encodedLen)
	dst := e.payload.Slice(start, start+encodedLen)

	var err error
	if subByte != nil {
		err = subByte.EncodeTo(data, rows, cols, dst)
	} else {
		err = e.fused8.EncodeTo(data, rows, cols, dst)
	}
	if err != nil {
		e.payload.SetLength(start)
		return err
	}

	// Identifier bookkeeping runs after quantization succeeded, so the
	// tracker and the index stay aligned when tracking rejects the matrix.
	switch e.identifierMode {
	case modeNameManaged:
		if err := e.tracker.TrackMatrix(name, matrixID); err != nil {
			e.payload.SetLength(start)
			return err
		}
		if e.tracker.HasCollision() {
			e.hasCollision = true
		}
	case modeUserID:
		if err := e.tracker.TrackMatrixID(matrixID); err != nil {
			e.payload.SetLength(start)
			return fmt.Errorf("%w: matrix ID 0x%016x already used", err, matrixID)
		}
	case modeUndefined:
		// Unreachable, the mode is locked before appendMatrix runs.
	}

	entry.PayloadOffset = start
	e.addEntry(entry)

	return nil
}

// Finish completes encoding and returns the final blob bytes.
//
// The blob layout is: header, optional names payload, index section, fused
// payload section with the configured compression applied. The header
// checksum covers every byte after the header, so corruption of names,
// index or payload is caught on parse.
//
// The names payload is written when embedding was requested via
// WithMatrixNames or when a hash collision occurred, and only for blobs
// built from named matrices.
//
// Returns:
//   - []byte: Complete blob, ready for storage or transmission
//   - error: ErrEncoderFinished on reuse, ErrNoMatricesAdded for an empty
//     encoder, or a name encoding or compression failure
func (e *MatrixEncoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true

	defer func() {
		pool.PutPayloadBuffer(e.payload)
		e.payload = nil
	}()

	if len(e.entries) == 0 {
		return nil, errs.ErrNoMatricesAdded
	}

	// Clone the header so the configured header stays untouched; all
	// computed fields are set on the clone.
	finalHeader := e.cloneHeader()

	embedNames := e.identifierMode == modeNameManaged && (e.embedNames || e.hasCollision)
	finalHeader.Flag.SetHasMatrixNames(embedNames)

	finalHeader.MatrixCount = uint32(len(e.entries)) //nolint: gosec

	var namesPayload []byte
	if embedNames {
		var err error
		namesPayload, err = encodeMatrixNames(e.tracker.MatrixNames(), e.engine)
		if err != nil {
			return nil, fmt.Errorf("failed to encode matrix names: %w", err)
		}
		// The names payload sits between the header and the index.
		finalHeader.IndexOffset = uint32(section.HeaderSize + len(namesPayload)) //nolint: gosec
	}

	payload, err := e.payloadCodec.Compress(e.payload.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress fused payload: %w", err)
	}

	indexSize := section.MatrixIndexEntrySize * len(e.entries)
	finalHeader.PayloadOffset = finalHeader.IndexOffset + uint32(indexSize) //nolint: gosec

	// Allocate the exact-size buffer for the final blob.
	blobSize := section.HeaderSize + len(namesPayload) + indexSize + len(payload)
	blob := make([]byte, blobSize)

	// The header is written last, once the checksum over everything after
	// it is known.
	offset := section.HeaderSize
	offset += copy(blob[offset:], namesPayload)

	for i, entry := range e.entries {
		entry.WriteToSlice(blob, offset+i*section.MatrixIndexEntrySize, e.engine)
	}
	offset += indexSize

	copy(blob[offset:], payload)

	finalHeader.Checksum = hash.Checksum(blob[section.HeaderSize:])
	copy(blob, finalHeader.Bytes())

	return blob, nil
}
