package blob

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/s4ayub/rowquant/compress"
	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/internal/hash"
	"github.com/s4ayub/rowquant/internal/workerpool"
	"github.com/s4ayub/rowquant/quant"
	"github.com/s4ayub/rowquant/section"
)

// MatrixBlob is a parsed fused matrix blob. It holds the decompressed
// payload section and the parsed index, and hands out zero-copy views of
// individual matrices.
//
// Safe for concurrent read access after creation.
type MatrixBlob struct {
	header  section.MatrixHeader
	engine  endian.EndianEngine
	entries []section.MatrixIndexEntry
	names   []string       // index order, nil when the blob has no names payload
	byID    map[uint64]int // matrix ID → entries index
	byName  map[string]int // matrix name → entries index, nil without names payload
	payload []byte         // decompressed fused payload section

	storedPayloadSize int // payload section size inside the blob, after compression
	decompressNs      int64
}

// ParseMatrixBlob parses and validates an encoded matrix blob.
//
// Parsing verifies the header magic and flags, the checksum over every byte
// after the header, the names payload (when present) against the index
// entry IDs, and every index entry against the decompressed payload bounds.
// The payload section is decompressed eagerly; the matrix views into it are
// zero-copy.
//
// When the blob was encoded without compression, the returned views alias
// data directly, so the caller must not modify data while the blob is in
// use.
//
// Parameters:
//   - data: Complete blob bytes as returned by MatrixEncoder.Finish
//
// Returns:
//   - *MatrixBlob: Parsed blob ready for matrix access
//   - error: ErrInvalidHeaderSize, ErrInvalidHeaderFlags,
//     ErrChecksumMismatch, ErrMatrixCountExceeded, ErrInvalidNamesPayload,
//     ErrInvalidIndexOffset, ErrInvalidIndexEntrySize, ErrInvalidBitRate,
//     ErrColumnsNotAligned, ErrInvalidPayload, or a decompression failure
func ParseMatrixBlob(data []byte) (*MatrixBlob, error) {
	header, err := section.ParseMatrixHeader(data)
	if err != nil {
		return nil, err
	}

	engine := header.Flag.GetEndianEngine()
	count := int(header.MatrixCount)
	if count > MaxMatrixCount {
		return nil, fmt.Errorf("%w: header declares %d matrices, max %d",
			errs.ErrMatrixCountExceeded, count, MaxMatrixCount)
	}

	// The checksum covers names, index and stored payload, so it runs
	// before any of them are interpreted.
	if hash.Checksum(data[section.HeaderSize:]) != header.Checksum {
		return nil, errs.ErrChecksumMismatch
	}

	// Step 1: names payload (optional).
	var names []string
	indexOffset := int(header.IndexOffset)
	if header.Flag.HasMatrixNames() {
		decoded, bytesRead, err := decodeMatrixNames(data[section.HeaderSize:], engine)
		if err != nil {
			return nil, err
		}
		if len(decoded) != count {
			return nil, fmt.Errorf("%w: %d names for %d matrices",
				errs.ErrInvalidNamesPayload, len(decoded), count)
		}
		if section.HeaderSize+bytesRead != indexOffset {
			return nil, fmt.Errorf("%w: names payload ends at %d, header says the index starts at %d",
				errs.ErrInvalidIndexOffset, section.HeaderSize+bytesRead, indexOffset)
		}
		names = decoded
	} else if indexOffset != section.HeaderSize {
		return nil, fmt.Errorf("%w: %d without a names payload", errs.ErrInvalidIndexOffset, indexOffset)
	}

	// Step 2: section bounds. The index must run exactly from IndexOffset
	// to PayloadOffset, and the stored payload fills the rest of the blob.
	indexSize := section.MatrixIndexEntrySize * count
	payloadOffset := int(header.PayloadOffset)
	if indexOffset+indexSize != payloadOffset {
		return nil, fmt.Errorf("%w: index section [%d:%d) does not meet the payload offset %d",
			errs.ErrInvalidIndexOffset, indexOffset, indexOffset+indexSize, payloadOffset)
	}
	if payloadOffset > len(data) {
		return nil, fmt.Errorf("%w: payload offset %d beyond blob size %d",
			errs.ErrInvalidPayload, payloadOffset, len(data))
	}

	// Step 3: decompress the payload section.
	codec, err := compress.GetCodec(header.Flag.Compression())
	if err != nil {
		return nil, err
	}

	stored := data[payloadOffset:]
	decompressStart := time.Now()
	payload, err := codec.Decompress(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress fused payload: %w", err)
	}
	decompressNs := time.Since(decompressStart).Nanoseconds()

	// Step 4: index entries, validated against the decompressed payload.
	entries := make([]section.MatrixIndexEntry, count)
	byID := make(map[uint64]int, count)
	for i := range entries {
		entry, err := section.ParseMatrixIndexEntry(data[indexOffset+i*section.MatrixIndexEntrySize:], engine)
		if err != nil {
			return nil, err
		}

		if !entry.BitRate.IsValid() {
			return nil, fmt.Errorf("%w: %d in index entry %d", errs.ErrInvalidBitRate, uint8(entry.BitRate), i)
		}
		if entry.HasHalfTrailer() {
			if step := 2 * entry.BitRate.ElemsPerByte(); entry.Cols%step != 0 {
				return nil, fmt.Errorf("%w: %d columns at %s in index entry %d",
					errs.ErrColumnsNotAligned, entry.Cols, entry.BitRate, i)
			}
		} else if entry.BitRate != format.BitRate8 {
			return nil, fmt.Errorf("%w: %s with a float32 trailer in index entry %d",
				errs.ErrInvalidBitRate, entry.BitRate, i)
		}

		if end := entry.PayloadOffset + entry.PayloadLength(); end > len(payload) {
			return nil, fmt.Errorf("%w: matrix %d needs payload bytes [%d:%d), payload is %d bytes",
				errs.ErrInvalidPayload, i, entry.PayloadOffset, end, len(payload))
		}

		entries[i] = entry
		byID[entry.MatrixID] = i
	}

	// Step 5: verify names against entry IDs and build the name index.
	// names[i] corresponds to entries[i]; encoders keep that ordering.
	var byName map[string]int
	if names != nil {
		if err := verifyMatrixNameHashes(names, entries); err != nil {
			return nil, fmt.Errorf("matrix name verification failed: %w", err)
		}

		byName = make(map[string]int, count)
		for i, name := range names {
			byName[name] = i
		}
	}

	return &MatrixBlob{
		header:            header,
		engine:            engine,
		entries:           entries,
		names:             names,
		byID:              byID,
		byName:            byName,
		payload:           payload,
		storedPayloadSize: len(stored),
		decompressNs:      decompressNs,
	}, nil
}

// MatrixCount returns the number of matrices in the blob.
func (b *MatrixBlob) MatrixCount() int {
	return len(b.entries)
}

// CreatedAt returns the blob creation time in UTC.
func (b *MatrixBlob) CreatedAt() time.Time {
	return b.header.CreatedAtTime().UTC()
}

// Compression returns the compression type of the payload section.
func (b *MatrixBlob) Compression() format.CompressionType {
	return b.header.Flag.Compression()
}

// IsLittleEndian reports whether blob fields use little-endian byte order.
func (b *MatrixBlob) IsLittleEndian() bool {
	return b.header.Flag.IsLittleEndian()
}

// Checksum returns the verified xxHash64 checksum stored in the header.
func (b *MatrixBlob) Checksum() uint64 {
	return b.header.Checksum
}

// HasMatrixNames reports whether the blob embeds the names payload.
func (b *MatrixBlob) HasMatrixNames() bool {
	return b.header.Flag.HasMatrixNames()
}

// Stats summarizes how the payload section compressed. The compression
// time is unknown on the decode side and reported as zero.
func (b *MatrixBlob) Stats() compress.CompressionStats {
	return compress.CompressionStats{
		Algorithm:           b.Compression(),
		OriginalSize:        int64(len(b.payload)),
		CompressedSize:      int64(b.storedPayloadSize),
		DecompressionTimeNs: b.decompressNs,
	}
}

// Names returns the matrix names in index order, or nil when the blob
// carries no names payload.
func (b *MatrixBlob) Names() []string {
	return slices.Clone(b.names)
}

// MatrixIDs returns all matrix IDs in index order.
func (b *MatrixBlob) MatrixIDs() []uint64 {
	ids := make([]uint64, len(b.entries))
	for i := range b.entries {
		ids[i] = b.entries[i].MatrixID
	}

	return ids
}

// HasMatrixID checks if the blob contains the given matrix ID.
func (b *MatrixBlob) HasMatrixID(matrixID uint64) bool {
	_, ok := b.byID[matrixID]
	return ok
}

// HasMatrixName checks if the blob contains the given matrix name.
//
// Without a names payload the name is hashed and looked up by ID, which is
// exact because encoders embed names whenever two names share a hash.
func (b *MatrixBlob) HasMatrixName(name string) bool {
	if b.byName == nil {
		_, ok := b.byID[hash.ID(name)]
		return ok
	}

	_, ok := b.byName[name]

	return ok
}

// MatrixByName returns a view of the named matrix.
//
// When the blob embeds names the lookup is exact; otherwise the name is
// hashed and looked up by ID, which is safe because encoders embed names
// whenever two names share a hash.
//
// Returns ErrMatrixNotFound if no matrix matches.
func (b *MatrixBlob) MatrixByName(name string) (MatrixView, error) {
	var i int
	var ok bool
	if b.byName != nil {
		i, ok = b.byName[name]
	} else {
		i, ok = b.byID[hash.ID(name)]
	}
	if !ok {
		return MatrixView{}, fmt.Errorf("%w: %q", errs.ErrMatrixNotFound, name)
	}

	return b.viewAt(i), nil
}

// MatrixByID returns a view of the matrix with the given ID.
// Returns ErrMatrixNotFound if no matrix matches.
func (b *MatrixBlob) MatrixByID(matrixID uint64) (MatrixView, error) {
	i, ok := b.byID[matrixID]
	if !ok {
		return MatrixView{}, fmt.Errorf("%w: ID 0x%016x", errs.ErrMatrixNotFound, matrixID)
	}

	return b.viewAt(i), nil
}

// MatrixAt returns a view of the i-th matrix in index order.
// Returns ErrMatrixNotFound if i is out of range.
func (b *MatrixBlob) MatrixAt(i int) (MatrixView, error) {
	if i < 0 || i >= len(b.entries) {
		return MatrixView{}, fmt.Errorf("%w: index %d of %d matrices", errs.ErrMatrixNotFound, i, len(b.entries))
	}

	return b.viewAt(i), nil
}

// All returns an iterator over (name, view) pairs in index order. The name
// is empty when the blob carries no names payload.
//
// Example:
//
//	for name, view := range blob.All() {
//	    m, err := view.Dequantize()
//	    ...
//	}
func (b *MatrixBlob) All() iter.Seq2[string, MatrixView] {
	return func(yield func(string, MatrixView) bool) {
		for i := range b.entries {
			name := ""
			if b.names != nil {
				name = b.names[i]
			}
			if !yield(name, b.viewAt(i)) {
				return
			}
		}
	}
}

// viewAt builds the zero-copy view of entries[i]. The payload bounds were
// validated during parse.
func (b *MatrixBlob) viewAt(i int) MatrixView {
	entry := b.entries[i]
	name := ""
	if b.names != nil {
		name = b.names[i]
	}

	return MatrixView{
		name:   name,
		entry:  entry,
		engine: b.engine,
		data:   b.payload[entry.PayloadOffset : entry.PayloadOffset+entry.PayloadLength()],
	}
}

// MaterializedMatrix is one fully dequantized matrix.
type MaterializedMatrix struct {
	// Name is the matrix name, "" when the blob has no names payload.
	Name string
	// ID is the 64-bit matrix ID.
	ID uint64
	// Rows and Cols are the matrix dimensions.
	Rows int
	Cols int
	// Data is the dequantized row-major matrix, len equals Rows*Cols.
	Data []float32
}

// Materialize dequantizes every matrix in the blob, in index order,
// decoding matrices in parallel on the shared worker pool.
//
// Use it when all matrices are needed anyway; for one matrix the zero-copy
// views plus Dequantize are cheaper.
func (b *MatrixBlob) Materialize() ([]MaterializedMatrix, error) {
	out := make([]MaterializedMatrix, len(b.entries))
	decodeErrs := make([]error, len(b.entries))

	// Parallelism is one matrix per work item. Row-level parallelism is
	// disabled inside the items because the shared pool cannot nest
	// blocking joins; a single-worker pool makes the decoders run inline.
	inline := workerpool.New(1)
	defer inline.Close()

	workerpool.Default().ParallelForEach(len(b.entries), func(i int) {
		view := b.viewAt(i)

		data, err := view.dequantize(quant.WithEngine(b.engine), quant.WithWorkerPool(inline))
		if err != nil {
			decodeErrs[i] = err
			return
		}

		out[i] = MaterializedMatrix{
			Name: view.Name(),
			ID:   view.ID(),
			Rows: view.Rows(),
			Cols: view.Cols(),
			Data: data,
		}
	})

	for i, err := range decodeErrs {
		if err != nil {
			return nil, fmt.Errorf("failed to dequantize matrix %d: %w", i, err)
		}
	}

	return out, nil
}

// MatrixView is a zero-copy view of one fused matrix inside a parsed blob.
// It reads dimensions and per-row quantization parameters directly from the
// payload bytes and dequantizes on demand.
type MatrixView struct {
	name   string
	entry  section.MatrixIndexEntry
	engine endian.EndianEngine
	data   []byte
}

// Name returns the matrix name, or "" when the blob has no names payload.
func (v MatrixView) Name() string {
	return v.name
}

// ID returns the 64-bit matrix ID.
func (v MatrixView) ID() uint64 {
	return v.entry.MatrixID
}

// Rows returns the number of rows.
func (v MatrixView) Rows() int {
	return v.entry.Rows
}

// Cols returns the number of float columns per row.
func (v MatrixView) Cols() int {
	return v.entry.Cols
}

// BitRate returns the number of bits per stored code.
func (v MatrixView) BitRate() format.BitRate {
	return v.entry.BitRate
}

// RowWidth returns the byte width of one fused row.
func (v MatrixView) RowWidth() int {
	return v.entry.RowWidth()
}

// Bytes returns the fused rows of this matrix. The slice aliases the blob
// payload and must not be modified.
func (v MatrixView) Bytes() []byte {
	return v.data
}

// RowScaleBias returns the dequantization parameters of row r as float32,
// expanding the fp16 trailer of sub-byte matrices exactly.
// Returns ok == false when r is out of range.
func (v MatrixView) RowScaleBias(r int) (scale, bias float32, ok bool) {
	if r < 0 || r >= v.entry.Rows {
		return 0, 0, false
	}

	width := v.entry.RowWidth()
	row := v.data[r*width : (r+1)*width]

	if v.entry.HasHalfTrailer() {
		layout := section.FusedNLayout{Cols: v.entry.Cols, Rate: v.entry.BitRate}
		return layout.Scale(row, v.engine).Float32(), layout.Bias(row, v.engine).Float32(), true
	}

	layout := section.Fused8Layout{Cols: v.entry.Cols}

	return layout.Scale(row, v.engine), layout.Bias(row, v.engine), true
}

// Dequantize decodes the fused rows back into a rows×cols row-major
// float32 matrix. The result is newly allocated on every call.
//
// Decoding runs in parallel on the shared worker pool for large matrices.
func (v MatrixView) Dequantize() ([]float32, error) {
	return v.dequantize(quant.WithEngine(v.engine))
}

func (v MatrixView) dequantize(opts ...quant.Option) ([]float32, error) {
	if v.entry.HasHalfTrailer() {
		dec, err := quant.NewFusedNDecoder(v.entry.BitRate, opts...)
		if err != nil {
			return nil, err
		}

		return dec.Decode(v.data, v.entry.Rows, v.entry.Cols)
	}

	dec, err := quant.NewFused8Decoder(opts...)
	if err != nil {
		return nil, err
	}

	return dec.Decode(v.data, v.entry.Rows, v.entry.Cols)
}
