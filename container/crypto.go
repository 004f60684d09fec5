package container

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	portfolio "github.com/Krzykoz/Savings-Tracker"
)

// KDFParams are the Argon2id parameters used to derive a file's encryption
// key from its password, stored alongside the file so they can be tuned
// across versions without breaking old files.
type KDFParams struct {
	// MemoryCost is in KiB.
	MemoryCost uint32
	// TimeCost is the number of iterations.
	TimeCost uint32
	// Parallelism is the degree of parallelism.
	Parallelism uint32
}

// DefaultKDFParams mirrors the original implementation's defaults: 64 MiB
// of memory, 3 iterations, 4-way parallelism — a balance between
// brute-force resistance and save/load latency on ordinary hardware.
func DefaultKDFParams() KDFParams {
	return KDFParams{MemoryCost: 65536, TimeCost: 3, Parallelism: 4}
}

const keyLen = 32

// Bounds a crafted file's KDF parameters must fall within before they are
// ever handed to Argon2, preventing a hostile file from demanding
// unreasonable memory or CPU before the password is even checked.
const (
	minMemoryCost = 8
	maxMemoryCost = 1_048_576
	minTimeCost   = 1
	maxTimeCost   = 20
	minParallel   = 1
	maxParallel   = 16
)

func (p KDFParams) validate() error {
	if p.MemoryCost < minMemoryCost || p.MemoryCost > maxMemoryCost {
		return fmt.Errorf("KDF memory_cost out of safe range: %d KiB (expected %d..%d)", p.MemoryCost, minMemoryCost, maxMemoryCost)
	}
	if p.TimeCost < minTimeCost || p.TimeCost > maxTimeCost {
		return fmt.Errorf("KDF time_cost out of safe range: %d (expected %d..%d)", p.TimeCost, minTimeCost, maxTimeCost)
	}
	if p.Parallelism < minParallel || p.Parallelism > maxParallel {
		return fmt.Errorf("KDF parallelism out of safe range: %d (expected %d..%d)", p.Parallelism, minParallel, maxParallel)
	}
	return nil
}

// deriveKey runs Argon2id over password and salt, producing a 256-bit AES
// key. Argon2id is used rather than Argon2i/Argon2d because it resists
// both side-channel and GPU-based attacks, matching the original
// implementation's choice.
func deriveKey(password string, salt [16]byte, params KDFParams) [keyLen]byte {
	derived := argon2.IDKey([]byte(password), salt[:], params.TimeCost, params.MemoryCost, uint8(params.Parallelism), keyLen)
	var key [keyLen]byte
	copy(key[:], derived)
	return key
}

// encrypt seals plaintext with AES-256-GCM, returning ciphertext with the
// 16-byte authentication tag appended — the tag covers both confidentiality
// and integrity, so no separate MAC is needed.
func encrypt(plaintext []byte, key [keyLen]byte, nonce [12]byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	return gcm.Seal(nil, nonce[:], plaintext, nil), nil
}

// decrypt opens ciphertext with AES-256-GCM, returning a Decryption
// CoreError (never the underlying cause) on any tag mismatch, so a wrong
// password and a corrupted file are indistinguishable to the caller.
func decrypt(ciphertext []byte, key [keyLen]byte, nonce [12]byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, portfolio.ErrDecryption()
	}
	return plaintext, nil
}

func generateSalt() ([16]byte, error) {
	var salt [16]byte
	_, err := rand.Read(salt[:])
	return salt, err
}

func generateNonce() ([12]byte, error) {
	var nonce [12]byte
	_, err := rand.Read(nonce[:])
	return nonce, err
}
