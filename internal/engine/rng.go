package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Stream is the battle's random source. Every draw consumes exactly one
// value from the underlying generator and bumps the draw counter, so a
// battle restored from (seed, draws) continues with the same sequence the
// interrupted run would have produced.
type Stream struct {
	src   *rand.Rand
	seed  int64
	draws uint64
}

// NewStream returns a stream at draw position zero.
func NewStream(seed int64) *Stream {
	return &Stream{src: rand.New(rand.NewSource(seed)), seed: seed}
}

// Replay returns a stream positioned after the given number of draws.
func Replay(seed int64, draws uint64) *Stream {
	s := NewStream(seed)
	s.Skip(draws)
	return s
}

// Skip advances the stream without using the values.
func (s *Stream) Skip(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.next()
	}
}

func (s *Stream) next() uint64 {
	s.draws++
	return s.src.Uint64()
}

// Intn returns a value in [0, n). The modulo bias is negligible at game
// ranges and keeps the consumption at exactly one draw per call, which the
// resume logic depends on.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.next() % uint64(n))
}

// Between returns a value in [lo, hi] inclusive.
func (s *Stream) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

// Roll reports success for a probability in [0, 1]. It always consumes
// exactly one draw, even for 0% and 100% chances.
func (s *Stream) Roll(chance float64) bool {
	return s.Float64() < chance
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() int64 { return s.seed }

// Draws returns how many values have been consumed so far.
func (s *Stream) Draws() uint64 { return s.draws }

// NewSeed mints a battle seed from the operating system's entropy source.
// The top bit is masked off so seeds stay non-negative, which keeps them
// readable in logs and JSON.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read battle seed: %w", err)
	}
	return int64(binary.BigEndian.Uint64(b[:]) & (1<<63 - 1)), nil
}
