// Package section defines the low-level binary structures and constants of
// the fused matrix blob format.
//
// It provides the types that pin down the physical layout of blobs: the
// fixed header, the packed flag field, the per-matrix index entries and
// the fused row layouts. Everything here serializes to an explicit byte
// offset so blobs read identically across platforms.
//
// # Blob Structure
//
// A matrix blob consists of fixed-size sections followed by the fused
// payload:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (32 bytes, fixed)                                │
//	│  - Flag (4 bytes): options, compression                 │
//	│  - CreatedAt (8 bytes)                                  │
//	│  - MatrixCount (4 bytes)                                │
//	│  - IndexOffset, PayloadOffset (8 bytes)                 │
//	│  - Checksum (8 bytes)                                   │
//	├─────────────────────────────────────────────────────────┤
//	│ Matrix Names Payload (variable, optional)               │
//	│  - Present on request or when IDs collide               │
//	│  - Length-prefixed strings                              │
//	├─────────────────────────────────────────────────────────┤
//	│ Index (N × 24 bytes, fixed per entry)                   │
//	│  - One entry per matrix                                 │
//	│  - MatrixID, shape, payload offset, bit rate            │
//	├─────────────────────────────────────────────────────────┤
//	│ Fused Payload (variable, optionally compressed)         │
//	│  - All fused rows of all matrices, back to back         │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
// MatrixHeader (32 bytes):
//
//	Bytes  | Field         | Type   | Description
//	-------|---------------|--------|----------------------------------
//	0-3    | Flag          | uint32 | Options, payload compression
//	4-11   | CreatedAt     | int64  | Unix timestamp in microseconds
//	12-15  | MatrixCount   | uint32 | Number of matrices in blob
//	16-19  | IndexOffset   | uint32 | Byte offset to index section
//	20-23  | PayloadOffset | uint32 | Byte offset to fused payload
//	24-31  | Checksum      | uint64 | xxHash64 of all bytes after header
//
// # Flag Format
//
// Flags are packed into 4 bytes:
//
//	Byte 0-1 (Options, 16 bits, always little-endian):
//	  Bit 0: Endianness (0=little-endian, 1=big-endian)
//	  Bit 1: Matrix names payload (0=not present, 1=present)
//	  Bits 2-3: Reserved (must be 0)
//	  Bits 4-15: Magic number (0xFA10)
//
//	Byte 2 (CompressionType, 8 bits):
//	  Payload compression (0x1=None, 0x2=Zstd, 0x3=S2, 0x4=LZ4)
//
//	Byte 3: Reserved (must be 0)
//
// # Index Entry Format
//
// MatrixIndexEntry (24 bytes):
//
//	Bytes  | Field         | Type   | Description
//	-------|---------------|--------|----------------------------------
//	0-7    | MatrixID      | uint64 | xxHash64 of matrix name
//	8-11   | Rows          | uint32 | Row count
//	12-15  | Cols          | uint32 | Column count before padding
//	16-19  | PayloadOffset | uint32 | Absolute offset in payload section
//	20     | Flags         | uint8  | Bit 0: fp16 trailer
//	21     | BitRate       | uint8  | Bits per code (2, 4 or 8)
//	22-23  | Reserved      | uint16 | Must be 0
//
// Offsets are absolute within the uncompressed payload section. An entry's
// payload length is derived, Rows × RowWidth, so it is not stored.
//
// # Fused Row Layouts
//
// Each matrix row is stored as a self-contained fused row: quantized codes
// followed by the affine trailer. Dequantization of any single row needs
// nothing but that row's bytes.
//
// 8-bit rows (Fused8Layout):
//
//	codes: Cols bytes, one code per column, zero-padded to 4-byte multiple
//	trailer: scale float32, bias float32
//
// Sub-byte rows (FusedNLayout, 2/4/8 bits per code):
//
//	codes: Cols/ElemsPerByte bytes, packed LSB-first within each byte
//	trailer: scale fp16, bias fp16
//
// # Byte Order
//
// All multi-byte fields after the Options bytes use the byte order named
// by the endianness bit. The Options field itself is always little-endian
// so a reader can pick the right engine before decoding anything else.
//
// # Integration
//
// The section package is consumed by:
//   - quant: writes fused rows through the layout descriptors
//   - blob: assembles and parses headers, indexes and payloads
//
// Most users should interact with the quant and blob packages instead of
// using section directly.
package section
