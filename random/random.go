// This file is part of TK2000emu.
//
// TK2000emu is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// TK2000emu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with TK2000emu.  If not, see <https://www.gnu.org/licenses/>.

package random

import (
	"math/rand"
	"time"
)

// the base seed for all random numbers
var baseSeed int64

// initialise base seed
func init() {
	baseSeed = int64(time.Now().Nanosecond())
}

// SetBaseSeed overrides the base seed used by every Random instance's
// Rewindable and NoRewind calls, so that two runs given the same seed
// reproduce the same sequence of values.
func SetBaseSeed(seed int64) {
	baseSeed = seed
}

// Clock is the source of the monotonic value that Rewindable() keys its
// numbers on. The CPU's own clock counter satisfies this.
type Clock interface {
	GetClock() uint64
}

// Random is a random number generator that is sensitive to the emulation's
// own clock, so that two runs of the same program with the same base seed
// produce the same sequence of "random" numbers at the same point in the run.
type Random struct {
	clock Clock

	// counter backing NoRewind(), advanced once per call rather than tied to
	// the clock.
	counter int64

	// use zero seed rather than the random base seed. this is only really
	// useful for normalised instances where random numbers must be
	// predictable, such as in tests.
	ZeroSeed bool
}

// NewRandom is the preferred method of initialisation for the Random type.
func NewRandom(clock Clock) *Random {
	return &Random{
		clock: clock,
	}
}

func (rnd *Random) seed(v int64) *rand.Rand {
	if rnd.ZeroSeed {
		return rand.New(rand.NewSource(v))
	}
	return rand.New(rand.NewSource(baseSeed + v))
}

// Rewindable returns a random number in the range [0,n) that depends only on
// the current clock value. Calling it again at the same clock value returns
// the same number.
func (rnd *Random) Rewindable(n int) int {
	return rnd.seed(int64(rnd.clock.GetClock())).Intn(n)
}

// NoRewind returns a random number in the range [0,n) that does not depend
// on the clock. Successive calls never repeat a seed, but two Random
// instances driven the same way produce the same sequence.
func (rnd *Random) NoRewind(n int) int {
	rnd.counter++
	return rnd.seed(rnd.counter).Intn(n)
}
