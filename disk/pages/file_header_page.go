package pages

import (
	"bytes"
	"encoding/binary"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"hash/crc32"
)

/**
 * File header page format (size in bytes):
 *  ---------------------------------------------------------------------------------------------
 *  | Magic (8) | Version (2) | Reserved (2) | Checksum (4) | FileID (16) | FirstPage (8) |
 *  ---------------------------------------------------------------------------------------------
 *  | LastPage (8) | PageCount (8) | RecordCount (8) | NameLen (2) | Name (MaxFileNameLen) |
 *  ---------------------------------------------------------------------------------------------
 *
 *  Checksum is crc32 of every byte after the checksum field up to the end of the name.
 */

const (
	fileHeaderMagic   = "HEAPFILE"
	fileHeaderVersion = uint16(1)

	// MaxFileNameLen is the number of name bytes kept in the header. Longer names are truncated, the name is
	// only kept for debugging.
	MaxFileNameLen = 128

	checksumOffset   = 12
	checksummedStart = 16
	fileIDOffset     = 16
	firstPageOffset  = 32
	lastPageOffset   = 40
	pageCountOffset  = 48
	recordCntOffset  = 56
	nameLenOffset    = 64
	nameOffset       = 66

	FileHeaderSize = nameOffset + MaxFileNameLen
)

// FileHeader is the decoded content of the first page of a heap file.
type FileHeader struct {
	FileID      uuid.UUID
	FileName    string
	FirstPage   uint64
	LastPage    uint64
	PageCount   uint64
	RecordCount uint64
}

// WriteFileHeader encodes h into the beginning of page data and seals it with a checksum.
func WriteFileHeader(h FileHeader, dest []byte) {
	if len(dest) < FileHeaderSize {
		panic("file header does not fit in destination")
	}

	for i := 0; i < FileHeaderSize; i++ {
		dest[i] = 0
	}

	copy(dest, fileHeaderMagic)
	binary.BigEndian.PutUint16(dest[8:], fileHeaderVersion)
	copy(dest[fileIDOffset:], h.FileID[:])
	binary.BigEndian.PutUint64(dest[firstPageOffset:], h.FirstPage)
	binary.BigEndian.PutUint64(dest[lastPageOffset:], h.LastPage)
	binary.BigEndian.PutUint64(dest[pageCountOffset:], h.PageCount)
	binary.BigEndian.PutUint64(dest[recordCntOffset:], h.RecordCount)

	name := h.FileName
	if len(name) > MaxFileNameLen {
		name = name[:MaxFileNameLen]
	}
	binary.BigEndian.PutUint16(dest[nameLenOffset:], uint16(len(name)))
	copy(dest[nameOffset:], name)

	binary.BigEndian.PutUint32(dest[checksumOffset:], crc32.ChecksumIEEE(dest[checksummedStart:FileHeaderSize]))
}

// ReadFileHeader decodes the header at the beginning of page data. It returns ErrCorruptHeader if the magic,
// version or checksum does not match.
func ReadFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, errors.Wrapf(ErrCorruptHeader, "page is %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], []byte(fileHeaderMagic)) {
		return FileHeader{}, errors.Wrap(ErrCorruptHeader, "bad magic")
	}
	if v := binary.BigEndian.Uint16(data[8:]); v != fileHeaderVersion {
		return FileHeader{}, errors.Wrapf(ErrCorruptHeader, "unsupported version %d", v)
	}

	expected := binary.BigEndian.Uint32(data[checksumOffset:])
	if actual := crc32.ChecksumIEEE(data[checksummedStart:FileHeaderSize]); actual != expected {
		return FileHeader{}, errors.Wrapf(ErrCorruptHeader, "checksum mismatch, expected %x got %x", expected, actual)
	}

	nameLen := int(binary.BigEndian.Uint16(data[nameLenOffset:]))
	if nameLen > MaxFileNameLen {
		return FileHeader{}, errors.Wrapf(ErrCorruptHeader, "name length %d", nameLen)
	}

	h := FileHeader{
		FileName:    string(data[nameOffset : nameOffset+nameLen]),
		FirstPage:   binary.BigEndian.Uint64(data[firstPageOffset:]),
		LastPage:    binary.BigEndian.Uint64(data[lastPageOffset:]),
		PageCount:   binary.BigEndian.Uint64(data[pageCountOffset:]),
		RecordCount: binary.BigEndian.Uint64(data[recordCntOffset:]),
	}
	copy(h.FileID[:], data[fileIDOffset:])

	return h, nil
}
