// Package e2ee encrypts project files on the client. Each run draws a fresh
// AES-256-CBC key and IV; file contents are encrypted with them and the key
// material is wrapped with the server's RSA-4096 public key.
package e2ee

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"catchcli/internal/logging"
	"catchcli/internal/scanner"

	"go.uber.org/zap"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize
	// ModulusSize is the RSA-4096 modulus length in bytes.
	ModulusSize = 512
)

var (
	// ErrInvalidPublicKey means the PEM did not hold an RSA public key.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrContextDiscarded means the key material was already wrapped and zeroed.
	ErrContextDiscarded = errors.New("encryption context discarded")
	// ErrMissingEncryptedContent means a file reached the upload without ciphertext.
	ErrMissingEncryptedContent = errors.New("file has no encrypted content")
)

// KeySizeError rejects keys that are not RSA-4096.
type KeySizeError struct {
	Bits int
}

func (e *KeySizeError) Error() string {
	return fmt.Sprintf("invalid RSA-4096 key: got %d bits", e.Bits)
}

// Padding selects the RSA encryption scheme used to wrap key material.
type Padding int

const (
	// PaddingOAEPSHA256 is RSA-OAEP with SHA-256 and an empty label.
	PaddingOAEPSHA256 Padding = iota
	// PaddingPKCS1v15 is RSAES-PKCS1-v1_5.
	PaddingPKCS1v15
)

func (p Padding) String() string {
	switch p {
	case PaddingOAEPSHA256:
		return "oaep-sha256"
	case PaddingPKCS1v15:
		return "pkcs1v15"
	default:
		return fmt.Sprintf("padding(%d)", int(p))
	}
}

// ParsePadding parses a crypto.rsa_padding value.
func ParsePadding(s string) (Padding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oaep", "oaep-sha256":
		return PaddingOAEPSHA256, nil
	case "pkcs1", "pkcs1v15":
		return PaddingPKCS1v15, nil
	default:
		return 0, fmt.Errorf("unknown RSA padding %q", s)
	}
}

// Context is the per-run symmetric key material.
type Context struct {
	Key [KeySize]byte
	IV  [IVSize]byte
}

// NewContext draws a key and IV from r.
func NewContext(r io.Reader) (*Context, error) {
	c := &Context{}
	if _, err := io.ReadFull(r, c.Key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if _, err := io.ReadFull(r, c.IV[:]); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}
	return c, nil
}

// Zero overwrites the key material.
func (c *Context) Zero() {
	clear(c.Key[:])
	clear(c.IV[:])
}

// WrappedKey is the base64 RSA ciphertext of the raw key and IV.
type WrappedKey struct {
	Key string
	IV  string
}

// ParsePublicKey decodes a PEM "PUBLIC KEY" (PKIX) or "RSA PUBLIC KEY"
// (PKCS#1) block and requires a 4096-bit modulus.
func ParsePublicKey(pemText string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(pemText)))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidPublicKey)
	}

	var pub *rsa.PublicKey
	switch block.Type {
	case "RSA PUBLIC KEY":
		k, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pub = k
	default:
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key (%T)", ErrInvalidPublicKey, k)
		}
		pub = rk
	}

	if pub.Size() != ModulusSize {
		return nil, &KeySizeError{Bits: pub.N.BitLen()}
	}
	return pub, nil
}

// Engine encrypts file contents under one Context and wraps it for the server.
type Engine struct {
	mu        sync.Mutex
	pub       *rsa.PublicKey
	padding   Padding
	rand      io.Reader
	ctx       *Context
	discarded bool
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces crypto/rand as the randomness source.
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// NewEngine validates the server key and generates fresh key material.
// A key that is not RSA-4096 fails here, before any file is encrypted.
func NewEngine(publicKeyPEM string, padding Padding, opts ...Option) (*Engine, error) {
	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		pub:     pub,
		padding: padding,
		rand:    rand.Reader,
		logger:  logging.Get(logging.CategoryCrypto),
	}
	for _, opt := range opts {
		opt(e)
	}

	c, err := NewContext(e.rand)
	if err != nil {
		return nil, err
	}
	e.ctx = c
	e.logger.Debug("encryption context created", zap.Stringer("padding", padding))
	return e, nil
}

// EncryptFile returns base64(AES-256-CBC(PKCS#7(plain))).
func (e *Engine) EncryptFile(plain []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return "", ErrContextDiscarded
	}
	ct, err := Encrypt(e.ctx.Key[:], e.ctx.IV[:], plain)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// EncryptFiles fills EncryptedContent for every file. On error no file is
// modified.
func (e *Engine) EncryptFiles(files []scanner.CodeFile) error {
	out := make([]string, len(files))
	for i, f := range files {
		enc, err := e.EncryptFile(f.Content)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", f.Path, err)
		}
		out[i] = enc
	}
	for i := range files {
		files[i].EncryptedContent = out[i]
	}
	e.logger.Info("files encrypted", zap.Int("count", len(files)))
	return nil
}

// WrapKey RSA-encrypts the raw key and IV, then zeroes the context. The
// engine cannot encrypt afterwards.
func (e *Engine) WrapKey() (WrappedKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return WrappedKey{}, ErrContextDiscarded
	}

	key, err := e.wrap(e.ctx.Key[:])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("failed to wrap key: %w", err)
	}
	iv, err := e.wrap(e.ctx.IV[:])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("failed to wrap iv: %w", err)
	}

	e.ctx.Zero()
	e.discarded = true
	return WrappedKey{
		Key: base64.StdEncoding.EncodeToString(key),
		IV:  base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Discard zeroes the key material without wrapping it. It is safe to call
// after WrapKey.
func (e *Engine) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return
	}
	e.ctx.Zero()
	e.discarded = true
}

func (e *Engine) wrap(msg []byte) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch e.padding {
	case PaddingPKCS1v15:
		out, err = rsa.EncryptPKCS1v15(e.rand, e.pub, msg)
	default:
		out, err = rsa.EncryptOAEP(sha256.New(), e.rand, e.pub, msg, nil)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != ModulusSize {
		return nil, fmt.Errorf("wrapped length %d, want %d", len(out), ModulusSize)
	}
	return out, nil
}

// Encrypt is AES-CBC with PKCS#7 padding.
func Encrypt(key, iv, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv length %d, want %d", len(iv), block.BlockSize())
	}
	padded := pad(plain, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	bs := block.BlockSize()
	if len(iv) != bs {
		return nil, fmt.Errorf("iv length %d, want %d", len(iv), bs)
	}
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(ciphertext), bs)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return unpad(out, bs)
}

// DecryptString decodes base64 and decrypts.
func DecryptString(key, iv []byte, encoded string) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	return Decrypt(key, iv, ct)
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}

// UnwrapKey decrypts a WrappedKey with the matching private key.
func UnwrapKey(priv *rsa.PrivateKey, padding Padding, w WrappedKey) (key, iv []byte, err error) {
	unwrap := func(s string) ([]byte, error) {
		ct, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if padding == PaddingPKCS1v15 {
			return rsa.DecryptPKCS1v15(nil, priv, ct)
		}
		return rsa.DecryptOAEP(sha256.New(), nil, priv, ct, nil)
	}
	if key, err = unwrap(w.Key); err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap key: %w", err)
	}
	if iv, err = unwrap(w.IV); err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap iv: %w", err)
	}
	return key, iv, nil
}
