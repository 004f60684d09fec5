// Package container implements the engine's encrypted persistence format:
// Argon2id key derivation from the password and a random per-save salt, AES-256-GCM
// sealing, and a small fixed-width binary header (magic, version, KDF
// parameters, salt, nonce, ciphertext length) wrapping the result.
//
// It operates purely on bytes — the caller is responsible for serializing
// its own domain model to plaintext bytes before Save and deserializing
// the plaintext Open returns. This mirrors original_source's
// storage/manager.rs StorageManager, minus its choice of serialization
// format (bincode there; this module's engine facade uses JSON, matching
// the teacher's jsonObjectWriter-based encoding throughout the rest of
// the domain).
package container

import (
	portfolio "github.com/Krzykoz/Savings-Tracker"
)

// Save encrypts plaintext under password using fresh random salt and
// nonce and the default KDF parameters, returning a complete container
// file's bytes.
func Save(plaintext []byte, password string) ([]byte, error) {
	return SaveWithParams(plaintext, password, DefaultKDFParams())
}

// SaveWithParams is Save with explicit KDF parameters, exposed so a host
// can trade off derivation cost against save latency.
func SaveWithParams(plaintext []byte, password string, params KDFParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, portfolio.NewError(portfolio.InvalidFileFormat, err.Error())
	}
	salt, err := generateSalt()
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	nonce, err := generateNonce()
	if err != nil {
		return nil, portfolio.WrapEncryption(err)
	}
	key := deriveKey(password, salt, params)
	ciphertext, err := encrypt(plaintext, key, nonce)
	if err != nil {
		return nil, err
	}
	return writeFile(params, salt, nonce, ciphertext), nil
}

// Open parses a container file, re-derives the key from password and the
// file's stored salt/KDF parameters, and decrypts its payload. A wrong
// password and a corrupted or tampered file are indistinguishable:
// both surface as a Decryption CoreError.
func Open(data []byte, password string) ([]byte, error) {
	header, ciphertext, err := readFile(data)
	if err != nil {
		return nil, err
	}
	key := deriveKey(password, header.salt, header.kdf)
	return decrypt(ciphertext, key, header.nonce)
}

// ChangePassword decrypts data with oldPassword and re-encrypts the
// recovered plaintext under newPassword with a fresh salt and nonce,
// leaving the original bytes untouched on any failure.
func ChangePassword(data []byte, oldPassword, newPassword string) ([]byte, error) {
	plaintext, err := Open(data, oldPassword)
	if err != nil {
		return nil, err
	}
	return Save(plaintext, newPassword)
}
