package container

import (
	"encoding/binary"
	"fmt"

	portfolio "github.com/Krzykoz/Savings-Tracker"
)

// magic identifies an SVTK (Savings Tracker) encrypted container file.
var magic = [4]byte{'S', 'V', 'T', 'K'}

// currentVersion is the file format version this build writes. Readers
// accept any version in 1..=currentVersion.
const currentVersion = 1

// headerSize is magic(4) + version(2) + kdf params(12) + salt(16) +
// nonce(12) + ciphertext length(8) = 54 bytes, all little-endian.
const headerSize = 4 + 2 + 12 + 16 + 12 + 8

type fileHeader struct {
	version    uint16
	kdf        KDFParams
	salt       [16]byte
	nonce      [12]byte
	ciphertLen uint64
}

// writeFile serializes a complete encrypted container: the fixed header
// followed by ciphertext (which already carries its AES-GCM tag).
func writeFile(kdf KDFParams, salt [16]byte, nonce [12]byte, ciphertext []byte) []byte {
	buf := make([]byte, headerSize+len(ciphertext))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], currentVersion)
	binary.LittleEndian.PutUint32(buf[6:10], kdf.MemoryCost)
	binary.LittleEndian.PutUint32(buf[10:14], kdf.TimeCost)
	binary.LittleEndian.PutUint32(buf[14:18], kdf.Parallelism)
	copy(buf[18:34], salt[:])
	copy(buf[34:46], nonce[:])
	binary.LittleEndian.PutUint64(buf[46:54], uint64(len(ciphertext)))
	copy(buf[54:], ciphertext)
	return buf
}

// readFile parses a container's header and returns it along with the
// ciphertext slice (still tag-appended, still encrypted).
func readFile(data []byte) (fileHeader, []byte, error) {
	if len(data) < headerSize {
		return fileHeader{}, nil, portfolio.NewError(portfolio.InvalidFileFormat, "file too small to be a valid container")
	}
	if [4]byte(data[0:4]) != magic {
		return fileHeader{}, nil, portfolio.NewError(portfolio.InvalidFileFormat, "invalid magic bytes: not a Savings Tracker container")
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version == 0 || version > currentVersion {
		return fileHeader{}, nil, portfolio.NewError(portfolio.UnsupportedVersion, fmt.Sprintf("%d", version))
	}

	kdf := KDFParams{
		MemoryCost:  binary.LittleEndian.Uint32(data[6:10]),
		TimeCost:    binary.LittleEndian.Uint32(data[10:14]),
		Parallelism: binary.LittleEndian.Uint32(data[14:18]),
	}
	if err := kdf.validate(); err != nil {
		return fileHeader{}, nil, portfolio.NewError(portfolio.InvalidFileFormat, err.Error())
	}

	var salt [16]byte
	copy(salt[:], data[18:34])
	var nonce [12]byte
	copy(nonce[:], data[34:46])

	cipherLen := binary.LittleEndian.Uint64(data[46:54])
	end := headerSize + int(cipherLen)
	if len(data) < end {
		return fileHeader{}, nil, portfolio.NewError(portfolio.InvalidFileFormat,
			fmt.Sprintf("file truncated: expected %d bytes of ciphertext, got %d", cipherLen, len(data)-headerSize))
	}

	header := fileHeader{version: version, kdf: kdf, salt: salt, nonce: nonce, ciphertLen: cipherLen}
	return header, data[headerSize:end], nil
}
