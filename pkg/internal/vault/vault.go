// Package vault 负责存储凭据的加解密.
//
// 算法为 AES-256-GCM，每次加密使用新的 16 字节随机 IV，认证标签 16 字节，
// 三部分分别以 hex 编码保存. 任何篡改（密文、IV、标签）或密钥不匹配都会在
// Decrypt 时返回 errs.ErrDecryption，绝不会返回错误的明文.
//
// 密钥长度恰好 32 字节时直接使用；否则通过 scrypt(key, "salt", N=16384, r=8, p=1)
// 派生为 32 字节. 盐为固定值，属于已知的简化：同一口令总是派生出同一密钥.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/scrypt"

	"github.com/yeisme/docvault/pkg/internal/errs"
)

const (
	// KeySize AES-256 密钥长度.
	KeySize = 32
	// IVSize GCM nonce 长度（128 位，非标准的 96 位）.
	IVSize = 16
	// TagSize GCM 认证标签长度.
	TagSize = 16

	scryptSalt = "salt"
	scryptN    = 16384
	scryptR    = 8
	scryptP    = 1
)

// ErrEmptyKey 未配置加密密钥.
var ErrEmptyKey = errors.New("vault: encryption key is required")

// EncryptedCredentials 加密后的凭据，三个字段均为 hex 字符串.
type EncryptedCredentials struct {
	Ciphertext string `json:"encryptedData"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
}

// Vault 使用固定密钥加解密任意可 JSON 序列化的值.
type Vault struct {
	key  []byte
	rand io.Reader
}

// New 根据配置的密钥创建 Vault.
func New(key string) (*Vault, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	derived, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	return &Vault{key: derived, rand: rand.Reader}, nil
}

func deriveKey(key string) ([]byte, error) {
	if len(key) == KeySize {
		return []byte(key), nil
	}

	derived, err := scrypt.Key([]byte(key), []byte(scryptSalt), scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}

	return derived, nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// Encrypt 序列化 plain 为 JSON 并加密.
func (v *Vault) Encrypt(plain any) (*EncryptedCredentials, error) {
	data, err := sonic.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal credentials: %w", err)
	}

	gcm, err := v.aead()
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(v.rand, iv); err != nil {
		return nil, fmt.Errorf("vault: read iv: %w", err)
	}

	// Seal 的输出为 密文||标签
	sealed := gcm.Seal(nil, iv, data, nil)
	split := len(sealed) - TagSize

	return &EncryptedCredentials{
		Ciphertext: hex.EncodeToString(sealed[:split]),
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(sealed[split:]),
	}, nil
}

// Decrypt 校验并解密 enc，结果反序列化到 out.
func (v *Vault) Decrypt(enc *EncryptedCredentials, out any) error {
	if enc == nil {
		return fmt.Errorf("%w: empty payload", errs.ErrDecryption)
	}

	ciphertext, err := hex.DecodeString(enc.Ciphertext)
	if err != nil {
		return fmt.Errorf("%w: ciphertext: %v", errs.ErrDecryption, err)
	}

	iv, err := hex.DecodeString(enc.IV)
	if err != nil || len(iv) != IVSize {
		return fmt.Errorf("%w: invalid iv", errs.ErrDecryption)
	}

	tag, err := hex.DecodeString(enc.AuthTag)
	if err != nil || len(tag) != TagSize {
		return fmt.Errorf("%w: invalid auth tag", errs.ErrDecryption)
	}

	gcm, err := v.aead()
	if err != nil {
		return fmt.Errorf("%w: init cipher: %v", errs.ErrDecryption, err)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}

	if err := sonic.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", errs.ErrDecryption, err)
	}

	return nil
}

// GenerateKey 生成 32 字节随机密钥的 hex 表示.
func GenerateKey() (string, error) {
	b := make([]byte, KeySize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("vault: generate key: %w", err)
	}

	return hex.EncodeToString(b), nil
}
