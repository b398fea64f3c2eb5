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

// Package random should be used in preference to the math/rand package when a
// random number is required inside the emulation.
//
// There are two methods belonging to the Random type that return random
// numbers:
//
// Rewindable() returns numbers based on the current CPU clock value. The
// number will always be the same for the same clock value and base seed.
// The base seed is taken from the time of day at start-up, so runs reproduce
// identically only when the seed is fixed with SetBaseSeed or ZeroSeed.
//
// NoRewind() returns random numbers regardless of the CPU clock. It is
// therefore not reproducible run to run, unless ZeroSeed is set.
//
// If the same random numbers are required every single time then set
// ZeroSeed to true. This is useful for testing purposes.
package random
