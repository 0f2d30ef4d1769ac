// Package cryptox implements one-way password hashing. Hashes are
// self-describing: argon2id in PHC string form or bcrypt's modular crypt form,
// so Verify can check either regardless of the configured algorithm.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names accepted by NewPasswordHasher.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

const argon2Version = argon2.Version

// Argon2Params are the tunables encoded into every argon2id hash.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
}

// DefaultArgon2Params mirrors the argon2.IDKey settings recommended by x/crypto.
var DefaultArgon2Params = Argon2Params{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
	SaltLen:   16,
	KeyLen:    32,
}

var errMalformedHash = errors.New("malformed hash")

// PasswordHasher hashes new passwords with one algorithm and verifies hashes
// produced by either supported algorithm. It is safe for concurrent use.
type PasswordHasher struct {
	algorithm  string
	argon      Argon2Params
	bcryptCost int
	decoy      string
}

// NewPasswordHasher validates the settings and precomputes a decoy hash with
// the same cost as real ones.
func NewPasswordHasher(algorithm string, argon Argon2Params, bcryptCost int) (*PasswordHasher, error) {
	switch algorithm {
	case AlgorithmArgon2id:
		if argon.Time == 0 || argon.MemoryKiB == 0 || argon.Threads == 0 {
			return nil, errors.New("argon2 parameters must be positive")
		}
		if argon.SaltLen == 0 {
			argon.SaltLen = DefaultArgon2Params.SaltLen
		}
		if argon.KeyLen == 0 {
			argon.KeyLen = DefaultArgon2Params.KeyLen
		}
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
		}
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}

	h := &PasswordHasher{algorithm: algorithm, argon: argon, bcryptCost: bcryptCost}

	decoySecret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	if h.decoy, err = h.Hash(decoySecret); err != nil {
		return nil, fmt.Errorf("decoy hash: %w", err)
	}
	return h, nil
}

// bcryptCostMargin is how far above the configured cost a stored bcrypt hash
// may go before Verify refuses it.
const bcryptCostMargin = 2

// Hash returns a salted hash of plaintext in the configured algorithm.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if h.algorithm == AlgorithmBcrypt {
		b, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), h.bcryptCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	salt := common.GenerateRandByteArray(int(h.argon.SaltLen))
	key := argon2.IDKey([]byte(plaintext), salt, h.argon.Time, h.argon.MemoryKiB, h.argon.Threads, h.argon.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version, h.argon.MemoryKiB, h.argon.Time, h.argon.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches encoded. Malformed or unsupported
// hashes, and argon2 parameters far above the configured ones, yield false.
func (h *PasswordHasher) Verify(plaintext, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.verifyArgon2(plaintext, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return h.verifyBcrypt(plaintext, encoded)
	default:
		return false
	}
}

// DecoyHash is a valid hash of a random secret, for spending verification time
// on lookups that found nothing.
func (h *PasswordHasher) DecoyHash() string {
	return h.decoy
}

func (h *PasswordHasher) verifyArgon2(plaintext, encoded string) bool {
	p, salt, expected, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	if !h.withinBounds(p) {
		return false
	}
	key := argon2.IDKey([]byte(plaintext), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	defer common.WipeByteArray(key)
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func (h *PasswordHasher) verifyBcrypt(plaintext, encoded string) bool {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return false
	}
	limit := max(h.bcryptCost, bcrypt.DefaultCost) + bcryptCostMargin
	if cost > limit {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(plaintext)) == nil
}

// bcryptInput digests plaintext so passwords longer than bcrypt's 72-byte
// limit are neither rejected nor truncated.
func bcryptInput(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// withinBounds accepts hashes made with older, cheaper settings and rejects
// ones that would cost far more than what this hasher produces.
func (h *PasswordHasher) withinBounds(p Argon2Params) bool {
	limits := h.argon
	if h.algorithm != AlgorithmArgon2id {
		limits = DefaultArgon2Params
	}
	if p.MemoryKiB > limits.MemoryKiB*2 || p.Time > limits.Time*2 || uint32(p.Threads) > uint32(limits.Threads)*2 {
		return false
	}
	if p.SaltLen < 8 || p.SaltLen > 64 {
		return false
	}
	if p.KeyLen < 16 || p.KeyLen > 128 {
		return false
	}
	return true
}

// decodeArgon2 parses $argon2id$v=19$m=<m>,t=<t>,p=<p>$<salt>$<key>.
func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, errMalformedHash
	}

	return Argon2Params{
		Time:      it,
		MemoryKiB: mem,
		Threads:   uint8(par),
		SaltLen:   uint32(len(salt)),
		KeyLen:    uint32(len(key)),
	}, salt, key, nil
}
