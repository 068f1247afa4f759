package codec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	magic         = "ENCVAULT"
	formatVersion = uint8(1)
	saltSize      = 16
	keySize       = chacha20poly1305.KeySize
	nonceSize     = chacha20poly1305.NonceSizeX

	// headerSize is magic | version | time | memory | threads | salt | nonce.
	headerSize = len(magic) + 1 + 4 + 4 + 1 + saltSize + nonceSize
)

// Bounds applied to KDF parameters read from an archive, so a hostile
// header cannot demand unbounded work.
const (
	maxKDFTime    = 10
	maxKDFMemory  = 1 << 20 // KiB, 1 GiB
	maxKDFThreads = 16
)

// KDFParams are the Argon2id parameters used to derive the archive key.
type KDFParams struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF is used when no WithKDF option is given.
var DefaultKDF = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// Validate reports whether p is within the accepted bounds.
func (p KDFParams) Validate() error {
	switch {
	case p.Time < 1 || p.Time > maxKDFTime:
		return fmt.Errorf("%w: kdf time %d out of range", ErrFormat, p.Time)
	case p.Threads < 1 || p.Threads > maxKDFThreads:
		return fmt.Errorf("%w: kdf threads %d out of range", ErrFormat, p.Threads)
	case p.Memory < 8*uint32(p.Threads) || p.Memory > maxKDFMemory:
		return fmt.Errorf("%w: kdf memory %d KiB out of range", ErrFormat, p.Memory)
	}
	return nil
}

// header is the fixed-size cleartext prefix of an archive. Its encoded bytes
// are authenticated as associated data.
type header struct {
	version uint8
	kdf     KDFParams
	salt    [saltSize]byte
	nonce   [nonceSize]byte
}

func newHeader(kdf KDFParams) (*header, error) {
	h := &header{version: formatVersion, kdf: kdf}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return nil, fmt.Errorf("codec: salt: %w", err)
	}
	if _, err := rand.Read(h.nonce[:]); err != nil {
		return nil, fmt.Errorf("codec: nonce: %w", err)
	}
	return h, nil
}

func (h *header) marshal() []byte {
	b := make([]byte, 0, headerSize)
	b = append(b, magic...)
	b = append(b, h.version)
	b = binary.LittleEndian.AppendUint32(b, h.kdf.Time)
	b = binary.LittleEndian.AppendUint32(b, h.kdf.Memory)
	b = append(b, h.kdf.Threads)
	b = append(b, h.salt[:]...)
	b = append(b, h.nonce[:]...)
	return b
}

func parseHeader(data []byte) (*header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrFormat, len(data))
	}
	if subtle.ConstantTimeCompare(data[:len(magic)], []byte(magic)) != 1 {
		return nil, fmt.Errorf("%w: magic mismatch", ErrFormat)
	}
	off := len(magic)

	h := &header{version: data[off]}
	off++
	if h.version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.version)
	}
	h.kdf.Time = binary.LittleEndian.Uint32(data[off:])
	off += 4
	h.kdf.Memory = binary.LittleEndian.Uint32(data[off:])
	off += 4
	h.kdf.Threads = data[off]
	off++
	if err := h.kdf.Validate(); err != nil {
		return nil, err
	}
	off += copy(h.salt[:], data[off:off+saltSize])
	copy(h.nonce[:], data[off:off+nonceSize])
	return h, nil
}

// deriveKey runs Argon2id over password with the header's salt.
func (h *header) deriveKey(password []byte) []byte {
	return argon2.IDKey(password, h.salt[:], h.kdf.Time, h.kdf.Memory, h.kdf.Threads, keySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
