package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// ErrWrongPassphrase возвращается при расшифровке неверным ключом
var ErrWrongPassphrase = errors.New("wrong passphrase")

// PGPSymmetricEncrypt шифрует данные симметричным PGP (аналог pgp_sym_encrypt)
func PGPSymmetricEncrypt(data string, passphrase []byte) (string, error) {
	if len(passphrase) == 0 {
		return "", errors.New("passphrase is empty")
	}

	var encryptedBuf strings.Builder
	armoredWriter, err := armor.Encode(&encryptedBuf, "PGP MESSAGE", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create armored writer: %w", err)
	}

	plaintext, err := openpgp.SymmetricallyEncrypt(armoredWriter, passphrase, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create encrypt writer: %w", err)
	}

	if _, err := plaintext.Write([]byte(data)); err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := plaintext.Close(); err != nil {
		return "", fmt.Errorf("failed to close plaintext writer: %w", err)
	}
	if err := armoredWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to close armored writer: %w", err)
	}

	return encryptedBuf.String(), nil
}

// PGPSymmetricDecrypt расшифровывает данные, зашифрованные PGPSymmetricEncrypt
func PGPSymmetricDecrypt(encryptedData string, passphrase []byte) (string, error) {
	block, err := armor.Decode(strings.NewReader(encryptedData))
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	// ReadMessage повторно запрашивает ключ, пока тот не подойдет
	prompted := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if prompted {
			return nil, ErrWrongPassphrase
		}
		prompted = true
		return passphrase, nil
	}

	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{}, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	decryptedData, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return "", fmt.Errorf("failed to read decrypted data: %w", err)
	}

	return string(decryptedData), nil
}

// GenerateHMAC создает HMAC для данных
func GenerateHMAC(data string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// ValidateHMAC проверяет HMAC
func ValidateHMAC(data string, mac string, key []byte) bool {
	expected := GenerateHMAC(data, key)
	return hmac.Equal([]byte(mac), []byte(expected))
}

// CardCipher шифрует номера карт ключом, полученным при старте приложения
type CardCipher struct {
	passphrase []byte
	hmacKey    []byte
}

// NewCardCipher создает CardCipher
func NewCardCipher(passphrase, hmacKey string) (*CardCipher, error) {
	if passphrase == "" {
		return nil, errors.New("card encryption key is required")
	}
	if hmacKey == "" {
		return nil, errors.New("card HMAC key is required")
	}
	return &CardCipher{passphrase: []byte(passphrase), hmacKey: []byte(hmacKey)}, nil
}

// Encrypt шифрует номер карты
func (c *CardCipher) Encrypt(number string) (string, error) {
	return PGPSymmetricEncrypt(number, c.passphrase)
}

// Decrypt расшифровывает номер карты
func (c *CardCipher) Decrypt(encrypted string) (string, error) {
	return PGPSymmetricDecrypt(encrypted, c.passphrase)
}

// Fingerprint вычисляет HMAC номера карты без учета пробелов
func (c *CardCipher) Fingerprint(number string) string {
	return GenerateHMAC(strings.ReplaceAll(number, " ", ""), c.hmacKey)
}

// Verify сверяет номер карты с сохраненным HMAC
func (c *CardCipher) Verify(number, fingerprint string) bool {
	return ValidateHMAC(strings.ReplaceAll(number, " ", ""), fingerprint, c.hmacKey)
}
