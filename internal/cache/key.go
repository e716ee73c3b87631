package cache

import (
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"myst/internal/ir"
	"myst/internal/types"
)

// keyVersion changes whenever the lowering changes in a way that makes
// old artifacts stale.
const keyVersion = "myst-unit-2"

// Key is the content address of compiling source as unit name under
// prelude and scratch names. deps lists the digests of the units the
// source imports, in import order, since their code is spliced in.
func Key(name string, source []byte, prelude types.Prelude, scratch []string, deps []string) string {
	h := newHash()
	field := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	field(keyVersion)
	field(name)
	h.Write(source)
	h.Write([]byte{0})
	for _, n := range prelude.Names() {
		field(n + "=" + prelude[n].String())
	}
	h.Write([]byte{0})
	for _, s := range scratch {
		field(s)
	}
	h.Write([]byte{0})
	for _, d := range deps {
		field(d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Digest identifies the encoded form of u.
func Digest(u *ir.Unit) (string, error) {
	b, err := ir.Encode(u)
	if err != nil {
		return "", fmt.Errorf("encoding unit %s: %w", u.Name, err)
	}
	h := newHash()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for oversized keys
		panic(err)
	}
	return h
}
