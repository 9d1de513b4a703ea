package nm3

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/kellegous/poop"
)

// KeyLen is the required cipher key length, 32 bytes for AES-256.
const KeyLen = 32

// MessageCipher encrypts message payloads with AES-256 in CBC mode. A
// sealed payload is a random 16 byte IV followed by the PKCS#7 padded
// ciphertext, so a sealed payload is always at least 32 bytes and the
// longest plaintext that still fits in a modem packet is 47 bytes.
type MessageCipher struct {
	block cipher.Block
}

func NewMessageCipher(key []byte) (*MessageCipher, error) {
	if len(key) != KeyLen {
		return nil, poop.Newf("key is %d bytes, want %d", len(key), KeyLen)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &MessageCipher{block: block}, nil
}

func pad(p []byte) []byte {
	n := aes.BlockSize - len(p)%aes.BlockSize
	padded := make([]byte, len(p)+n)
	copy(padded, p)
	for i := len(p); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(p []byte) ([]byte, error) {
	if len(p) == 0 || len(p)%aes.BlockSize != 0 {
		return nil, poop.Newf("padded data length %d is not a block multiple", len(p))
	}
	n := int(p[len(p)-1])
	if n == 0 || n > aes.BlockSize || n > len(p) {
		return nil, poop.New("invalid padding")
	}
	for _, b := range p[len(p)-n:] {
		if b != byte(n) {
			return nil, poop.New("invalid padding")
		}
	}
	return p[:len(p)-n], nil
}

// Seal encrypts plaintext into iv || ciphertext.
func (c *MessageCipher) Seal(plaintext []byte) ([]byte, error) {
	padded := pad(plaintext)

	sealed := make([]byte, aes.BlockSize+len(padded))
	iv := sealed[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, poop.Chain(err)
	}

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(sealed[aes.BlockSize:], padded)
	return sealed, nil
}

// Open decrypts a payload produced by Seal.
func (c *MessageCipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < 2*aes.BlockSize {
		return nil, poop.Newf("sealed payload is %d bytes, too short", len(sealed))
	}
	if (len(sealed)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, poop.Newf("ciphertext length %d is not a block multiple", len(sealed)-aes.BlockSize)
	}

	iv, ciphertext := sealed[:aes.BlockSize], sealed[aes.BlockSize:]

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := unpad(padded)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return plaintext, nil
}
