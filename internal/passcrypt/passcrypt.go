// Package passcrypt implements the password envelope the server expects
// on the login, signup, and password-reset paths: the OpenSSL "Salted__"
// format produced by CryptoJS.AES.encrypt(plaintext, passphrase) —
// AES-256-CBC with key and IV derived via EVP_BytesToKey over MD5.
//
// This is obfuscation, not confidentiality: the passphrase ships with
// every client. It is NOT a substitute for TLS or for server-side
// password hashing. The passphrase comes from configuration so it can
// be rotated alongside the server.
package passcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // EVP_BytesToKey compatibility, not integrity
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	saltLen = 8
	keyLen  = 32 // AES-256
	ivLen   = aes.BlockSize

	openSSLHeader = "Salted__"
)

// ErrMalformed is returned when a ciphertext is not a valid envelope.
var ErrMalformed = errors.New("passcrypt: malformed ciphertext")

// Encrypt seals plaintext under the shared passphrase and returns the
// base64 envelope. A fresh random salt is drawn per call, so equal
// plaintexts produce distinct envelopes.
func Encrypt(plaintext, passphrase string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("passcrypt: generating salt: %w", err)
	}

	return encryptWithSalt([]byte(plaintext), passphrase, salt)
}

func encryptWithSalt(plaintext []byte, passphrase string, salt []byte) (string, error) {
	key, iv := evpBytesToKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("passcrypt: creating cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	envelope := make([]byte, 0, len(openSSLHeader)+saltLen+len(ct))
	envelope = append(envelope, openSSLHeader...)
	envelope = append(envelope, salt...)
	envelope = append(envelope, ct...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt opens a base64 envelope produced by Encrypt (or by the
// browser client). Used by tests and debugging tooling.
func Decrypt(encoded, passphrase string) (string, error) {
	envelope, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(envelope) < len(openSSLHeader)+saltLen ||
		string(envelope[:len(openSSLHeader)]) != openSSLHeader {
		return "", fmt.Errorf("%w: missing salt header", ErrMalformed)
	}

	salt := envelope[len(openSSLHeader) : len(openSSLHeader)+saltLen]
	ct := envelope[len(openSSLHeader)+saltLen:]

	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block-aligned", ErrMalformed)
	}

	key, iv := evpBytesToKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("passcrypt: creating cipher: %w", err)
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(unpadded), nil
}

// evpBytesToKey derives an AES-256 key and IV from the passphrase and
// salt, matching OpenSSL's EVP_BytesToKey with MD5 and one iteration.
func evpBytesToKey(passphrase string, salt []byte) (key, iv []byte) {
	var derived []byte

	var prev []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New() //nolint:gosec // format compatibility
		h.Write(prev)
		h.Write([]byte(passphrase))
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}

	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad padding length", ErrMalformed)
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: bad padding byte", ErrMalformed)
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: inconsistent padding", ErrMalformed)
		}
	}

	return data[:len(data)-padLen], nil
}
