// Package cryptox encodes and verifies account passwords with argon2id.
//
// Encoded passwords are self-describing:
//
//	argon2$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// salt and hash use unpadded standard base64, so the parameters in effect
// when a password was set keep verifying after the defaults change.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	algorithm = "argon2"
	variant   = "argon2id"
	saltSize  = 16

	// UnusablePrefix marks a password that can never verify.
	UnusablePrefix = "!"
)

var errMalformed = errors.New("malformed password hash")

// Params are the argon2id cost parameters.
type Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
}

var DefaultParams = Params{Memory: 64 * 1024, Time: 1, Threads: 4, KeyLen: 32}

// HashPassword encodes password with a fresh salt. An empty password yields
// an unusable value.
func HashPassword(password string) (string, error) {
	if password == "" {
		return UnusablePassword()
	}
	return encode(password, common.GenerateRandByteArray(saltSize), DefaultParams), nil
}

// UnusablePassword returns a value that CheckPassword always rejects.
func UnusablePassword() (string, error) {
	s, err := common.MakeRandHexString(20)
	if err != nil {
		return "", err
	}
	return UnusablePrefix + s, nil
}

// IsUsable reports whether encoded could ever verify.
func IsUsable(encoded string) bool {
	return encoded != "" && !strings.HasPrefix(encoded, UnusablePrefix)
}

// CheckPassword recomputes the hash of password with the salt and parameters
// stored in encoded and compares in constant time. It never fails loudly:
// unusable or malformed values simply do not match.
func CheckPassword(encoded, password string) bool {
	if !IsUsable(encoded) {
		return false
	}

	p, salt, hash, err := decode(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

// NeedsRehash reports whether encoded was produced with parameters other
// than DefaultParams.
func NeedsRehash(encoded string) bool {
	p, _, _, err := decode(encoded)
	if err != nil {
		return true
	}
	return p != DefaultParams
}

func encode(password string, salt []byte, p Params) string {
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("%s$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, variant, argon2.Version,
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != algorithm || parts[1] != variant {
		return p, nil, nil, errMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformed
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errMalformed
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, errMalformed
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformed
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, errMalformed
	}
	p.KeyLen = uint32(len(hash))

	return p, salt, hash, nil
}
