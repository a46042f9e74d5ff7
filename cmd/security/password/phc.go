package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned for stored strings that are not argon2id PHC
// hashes this package can verify.
var ErrMalformedHash = errors.New("password: malformed argon2id hash")

const phcVersion = argon2.Version

var phcB64 = base64.RawStdEncoding

// Hash is a decoded argon2id PHC string.
type Hash struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Key         []byte
}

// Derive computes the argon2id key of plain with the cost in p and salt.
func (p Argon2idParams) Derive(plain string, salt []byte) []byte {
	return argon2.IDKey([]byte(plain), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

// String encodes h as $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (h Hash) String() string {
	var b strings.Builder
	b.WriteString("$argon2id$v=")
	b.WriteString(strconv.Itoa(phcVersion))
	fmt.Fprintf(&b, "$m=%d,t=%d,p=%d$", h.MemoryKiB, h.Iterations, h.Parallelism)
	b.WriteString(phcB64.EncodeToString(h.Salt))
	b.WriteByte('$')
	b.WriteString(phcB64.EncodeToString(h.Key))
	return b.String()
}

// Params returns the cost parameters that produced h.
func (h Hash) Params() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   h.MemoryKiB,
		Iterations:  h.Iterations,
		Parallelism: h.Parallelism,
		SaltLength:  uint32(len(h.Salt)), // #nosec G115 -- bounded by ParseHash.
		KeyLength:   uint32(len(h.Key)),  // #nosec G115 -- bounded by ParseHash.
	}
}

// ParseHash decodes a stored PHC string. Stored values are untrusted: the
// algorithm, version, cost fields and salt/key sizes are all checked.
func ParseHash(s string) (Hash, error) {
	rest, ok := strings.CutPrefix(s, "$argon2id$v="+strconv.Itoa(phcVersion)+"$")
	if !ok {
		return Hash{}, ErrMalformedHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return Hash{}, ErrMalformedHash
	}

	var h Hash
	for _, kv := range strings.Split(fields[0], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Hash{}, ErrMalformedHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return Hash{}, ErrMalformedHash
		}
		switch k {
		case "m":
			h.MemoryKiB = uint32(n)
		case "t":
			h.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return Hash{}, ErrMalformedHash
			}
			h.Parallelism = uint8(n)
		default:
			return Hash{}, ErrMalformedHash
		}
	}
	if h.MemoryKiB == 0 || h.Iterations == 0 || h.Parallelism == 0 {
		return Hash{}, ErrMalformedHash
	}

	var err error
	if h.Salt, err = phcB64.DecodeString(fields[1]); err != nil || len(h.Salt) < 8 || len(h.Salt) > 64 {
		return Hash{}, ErrMalformedHash
	}
	if h.Key, err = phcB64.DecodeString(fields[2]); err != nil || len(h.Key) < 16 || len(h.Key) > 128 {
		return Hash{}, ErrMalformedHash
	}
	return h, nil
}

// Affordable reports whether verifying a hash with cost got stays within twice
// the configured cost. Cheaper legacy hashes are always affordable.
func (p Argon2idParams) Affordable(got Argon2idParams) bool {
	return got.MemoryKiB <= p.MemoryKiB*2 &&
		got.Iterations <= p.Iterations*2 &&
		uint32(got.Parallelism) <= uint32(p.Parallelism)*2
}
