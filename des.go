// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

// Self-contained DES-ECB implementation for VNC authentication.
//
// VNC uses a non-standard DES variant where each byte of the key has its
// bits reversed before use. Keeping the cipher in-package avoids depending
// on platform crypto providers that have moved single DES behind legacy
// switches, and keeps the bit-reversed key schedule next to the only code
// that needs it.

package vnc

import (
	"github.com/juju/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// challengeSize is the length of the random challenge sent by the server
// during VNC authentication (RFC 6143 §7.2.2).
const challengeSize = 16

// desBlockSize is the DES block and key length in bytes.
const desBlockSize = 8

// Initial permutation (IP).
var desIP = [64]byte{
	58, 50, 42, 34, 26, 18, 10, 2,
	60, 52, 44, 36, 28, 20, 12, 4,
	62, 54, 46, 38, 30, 22, 14, 6,
	64, 56, 48, 40, 32, 24, 16, 8,
	57, 49, 41, 33, 25, 17, 9, 1,
	59, 51, 43, 35, 27, 19, 11, 3,
	61, 53, 45, 37, 29, 21, 13, 5,
	63, 55, 47, 39, 31, 23, 15, 7,
}

// Final permutation (IP⁻¹).
var desFP = [64]byte{
	40, 8, 48, 16, 56, 24, 64, 32,
	39, 7, 47, 15, 55, 23, 63, 31,
	38, 6, 46, 14, 54, 22, 62, 30,
	37, 5, 45, 13, 53, 21, 61, 29,
	36, 4, 44, 12, 52, 20, 60, 28,
	35, 3, 43, 11, 51, 19, 59, 27,
	34, 2, 42, 10, 50, 18, 58, 26,
	33, 1, 41, 9, 49, 17, 57, 25,
}

// Expansion permutation (E): 32 bits to 48.
var desE = [48]byte{
	32, 1, 2, 3, 4, 5,
	4, 5, 6, 7, 8, 9,
	8, 9, 10, 11, 12, 13,
	12, 13, 14, 15, 16, 17,
	16, 17, 18, 19, 20, 21,
	20, 21, 22, 23, 24, 25,
	24, 25, 26, 27, 28, 29,
	28, 29, 30, 31, 32, 1,
}

// Permutation (P) applied to the S-box output.
var desP = [32]byte{
	16, 7, 20, 21, 29, 12, 28, 17,
	1, 15, 23, 26, 5, 18, 31, 10,
	2, 8, 24, 14, 32, 27, 3, 9,
	19, 13, 30, 6, 22, 11, 4, 25,
}

// Permuted choice 1 (PC-1): 64-bit key to 56 bits.
var desPC1 = [56]byte{
	57, 49, 41, 33, 25, 17, 9,
	1, 58, 50, 42, 34, 26, 18,
	10, 2, 59, 51, 43, 35, 27,
	19, 11, 3, 60, 52, 44, 36,
	63, 55, 47, 39, 31, 23, 15,
	7, 62, 54, 46, 38, 30, 22,
	14, 6, 61, 53, 45, 37, 29,
	21, 13, 5, 28, 20, 12, 4,
}

// Permuted choice 2 (PC-2): 56 bits to a 48-bit subkey.
var desPC2 = [48]byte{
	14, 17, 11, 24, 1, 5,
	3, 28, 15, 6, 21, 10,
	23, 19, 12, 4, 26, 8,
	16, 7, 27, 20, 13, 2,
	41, 52, 31, 37, 47, 55,
	30, 40, 51, 45, 33, 48,
	44, 49, 39, 56, 34, 53,
	46, 42, 50, 36, 29, 32,
}

// Left-rotation schedule for the 16 key rounds.
var desKeyShifts = [16]byte{1, 1, 2, 2, 2, 2, 2, 2, 1, 2, 2, 2, 2, 2, 2, 1}

// The eight DES S-boxes.
var desSBoxes = [8][4][16]byte{
	{
		{14, 4, 13, 1, 2, 15, 11, 8, 3, 10, 6, 12, 5, 9, 0, 7},
		{0, 15, 7, 4, 14, 2, 13, 1, 10, 6, 12, 11, 9, 5, 3, 8},
		{4, 1, 14, 8, 13, 6, 2, 11, 15, 12, 9, 7, 3, 10, 5, 0},
		{15, 12, 8, 2, 4, 9, 1, 7, 5, 11, 3, 14, 10, 0, 6, 13},
	},
	{
		{15, 1, 8, 14, 6, 11, 3, 4, 9, 7, 2, 13, 12, 0, 5, 10},
		{3, 13, 4, 7, 15, 2, 8, 14, 12, 0, 1, 10, 6, 9, 11, 5},
		{0, 14, 7, 11, 10, 4, 13, 1, 5, 8, 12, 6, 9, 3, 2, 15},
		{13, 8, 10, 1, 3, 15, 4, 2, 11, 6, 7, 12, 0, 5, 14, 9},
	},
	{
		{10, 0, 9, 14, 6, 3, 15, 5, 1, 13, 12, 7, 11, 4, 2, 8},
		{13, 7, 0, 9, 3, 4, 6, 10, 2, 8, 5, 14, 12, 11, 15, 1},
		{13, 6, 4, 9, 8, 15, 3, 0, 11, 1, 2, 12, 5, 10, 14, 7},
		{1, 10, 13, 0, 6, 9, 8, 7, 4, 15, 14, 3, 11, 5, 2, 12},
	},
	{
		{7, 13, 14, 3, 0, 6, 9, 10, 1, 2, 8, 5, 11, 12, 4, 15},
		{13, 8, 11, 5, 6, 15, 0, 3, 4, 7, 2, 12, 1, 10, 14, 9},
		{10, 6, 9, 0, 12, 11, 7, 13, 15, 1, 3, 14, 5, 2, 8, 4},
		{3, 15, 0, 6, 10, 1, 13, 8, 9, 4, 5, 11, 12, 7, 2, 14},
	},
	{
		{2, 12, 4, 1, 7, 10, 11, 6, 8, 5, 3, 15, 13, 0, 14, 9},
		{14, 11, 2, 12, 4, 7, 13, 1, 5, 0, 15, 10, 3, 9, 8, 6},
		{4, 2, 1, 11, 10, 13, 7, 8, 15, 9, 12, 5, 6, 3, 0, 14},
		{11, 8, 12, 7, 1, 14, 2, 13, 6, 15, 0, 9, 10, 4, 5, 3},
	},
	{
		{12, 1, 10, 15, 9, 2, 6, 8, 0, 13, 3, 4, 14, 7, 5, 11},
		{10, 15, 4, 2, 7, 12, 9, 5, 6, 1, 13, 14, 0, 11, 3, 8},
		{9, 14, 15, 5, 2, 8, 12, 3, 7, 0, 4, 10, 1, 13, 11, 6},
		{4, 3, 2, 12, 9, 5, 15, 10, 11, 14, 1, 7, 6, 0, 8, 13},
	},
	{
		{4, 11, 2, 14, 15, 0, 8, 13, 3, 12, 9, 7, 5, 10, 6, 1},
		{13, 0, 11, 7, 4, 9, 1, 10, 14, 3, 5, 12, 2, 15, 8, 6},
		{1, 4, 11, 13, 12, 3, 7, 14, 10, 15, 6, 8, 0, 5, 9, 2},
		{6, 11, 13, 8, 1, 4, 10, 7, 9, 5, 0, 15, 14, 2, 3, 12},
	},
	{
		{13, 2, 8, 4, 6, 15, 11, 1, 10, 9, 3, 14, 5, 0, 12, 7},
		{1, 15, 13, 8, 10, 3, 7, 4, 12, 5, 6, 11, 0, 14, 9, 2},
		{7, 11, 4, 1, 9, 12, 14, 2, 0, 6, 10, 13, 15, 3, 5, 8},
		{2, 1, 14, 7, 4, 10, 8, 13, 15, 12, 9, 0, 3, 5, 6, 11},
	},
}

// desBit reads the bit at 1-indexed position pos, MSB of the first byte
// being position 1. All DES permutation tables use this convention.
func desBit(data []byte, pos int) int {
	return int(data[(pos-1)/8]>>(7-(pos-1)%8)) & 1
}

// desSetBit sets the bit at 1-indexed position pos.
func desSetBit(data []byte, pos int) {
	data[(pos-1)/8] |= 1 << (7 - (pos-1)%8)
}

// desKeySchedule derives the 16 round subkeys (48 bits each) from an
// 8-byte key.
func desKeySchedule(key [desBlockSize]byte) [16][6]byte {
	// PC-1: 64 bits -> 56 bits.
	var pc1 [7]byte
	for i := 0; i < 56; i++ {
		if desBit(key[:], int(desPC1[i])) != 0 {
			desSetBit(pc1[:], i+1)
		}
	}

	// Split into the 28-bit halves C and D.
	var c, d uint32
	for i := 0; i < 28; i++ {
		if desBit(pc1[:], i+1) != 0 {
			c |= 1 << (27 - i)
		}
		if desBit(pc1[:], i+29) != 0 {
			d |= 1 << (27 - i)
		}
	}

	var subkeys [16][6]byte
	for round := 0; round < 16; round++ {
		shift := uint(desKeyShifts[round])
		c = (c<<shift | c>>(28-shift)) & 0x0FFFFFFF
		d = (d<<shift | d>>(28-shift)) & 0x0FFFFFFF

		var cd [7]byte
		for i := 0; i < 28; i++ {
			if c&(1<<(27-i)) != 0 {
				desSetBit(cd[:], i+1)
			}
			if d&(1<<(27-i)) != 0 {
				desSetBit(cd[:], i+29)
			}
		}

		// PC-2: 56 bits -> 48-bit subkey.
		for i := 0; i < 48; i++ {
			if desBit(cd[:], int(desPC2[i])) != 0 {
				desSetBit(subkeys[round][:], i+1)
			}
		}
	}
	return subkeys
}

// desFeistel computes the round function f(R, K): expansion, key mixing,
// S-box substitution, and the P permutation.
func desFeistel(right [4]byte, subkey [6]byte) [4]byte {
	var expanded [6]byte
	for i := 0; i < 48; i++ {
		if desBit(right[:], int(desE[i])) != 0 {
			desSetBit(expanded[:], i+1)
		}
	}
	for i := range expanded {
		expanded[i] ^= subkey[i]
	}

	var sboxOut [4]byte
	for i := 0; i < 8; i++ {
		bit := i*6 + 1
		row := desBit(expanded[:], bit)*2 + desBit(expanded[:], bit+5)
		col := desBit(expanded[:], bit+1)*8 +
			desBit(expanded[:], bit+2)*4 +
			desBit(expanded[:], bit+3)*2 +
			desBit(expanded[:], bit+4)
		val := desSBoxes[i][row][col]

		outBit := i * 4
		for b := 0; b < 4; b++ {
			if val&(1<<(3-b)) != 0 {
				desSetBit(sboxOut[:], outBit+b+1)
			}
		}
	}

	var out [4]byte
	for i := 0; i < 32; i++ {
		if desBit(sboxOut[:], int(desP[i])) != 0 {
			desSetBit(out[:], i+1)
		}
	}
	return out
}

// desEncryptBlock encrypts a single 8-byte block with the given key using
// DES-ECB: IP, 16 Feistel rounds, half swap, IP⁻¹.
func desEncryptBlock(key, src [desBlockSize]byte) [desBlockSize]byte {
	subkeys := desKeySchedule(key)

	var ip [8]byte
	for i := 0; i < 64; i++ {
		if desBit(src[:], int(desIP[i])) != 0 {
			desSetBit(ip[:], i+1)
		}
	}

	var left, right [4]byte
	copy(left[:], ip[:4])
	copy(right[:], ip[4:])

	for round := 0; round < 16; round++ {
		f := desFeistel(right, subkeys[round])
		var next [4]byte
		for i := 0; i < 4; i++ {
			next[i] = left[i] ^ f[i]
		}
		left, right = right, next
	}

	// Pre-output is R16 ∥ L16.
	var pre [8]byte
	copy(pre[:4], right[:])
	copy(pre[4:], left[:])

	var out [8]byte
	for i := 0; i < 64; i++ {
		if desBit(pre[:], int(desFP[i])) != 0 {
			desSetBit(out[:], i+1)
		}
	}
	return out
}

// reverseBits reverses the bit order within a byte. VNC derives DES keys
// from the password with each byte's bits mirrored (MSB <-> LSB).
func reverseBits(b byte) byte {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// vncAuthKey prepares the DES key from a password: Latin-1 bytes, truncated
// to 8 or zero-padded, with each byte bit-reversed. An empty password yields
// the all-zero key.
func vncAuthKey(password string) [desBlockSize]byte {
	latin1, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).String(password)
	if err != nil {
		// The replacing encoder cannot fail on valid UTF-8; fall back to
		// the raw bytes for anything else.
		latin1 = password
	}

	var key [desBlockSize]byte
	for i := 0; i < len(latin1) && i < desBlockSize; i++ {
		key[i] = reverseBits(latin1[i])
	}
	return key
}

// EncryptChallenge computes the VNC authentication response for a 16-byte
// server challenge: the two 8-byte halves are each encrypted with DES-ECB
// under the password-derived key.
func EncryptChallenge(password string, challenge []byte) ([]byte, error) {
	if len(challenge) != challengeSize {
		return nil, errors.Errorf("challenge must be %d bytes, got %d", challengeSize, len(challenge))
	}

	key := vncAuthKey(password)

	var lo, hi [desBlockSize]byte
	copy(lo[:], challenge[:desBlockSize])
	copy(hi[:], challenge[desBlockSize:])

	response := make([]byte, 0, challengeSize)
	first := desEncryptBlock(key, lo)
	second := desEncryptBlock(key, hi)
	response = append(response, first[:]...)
	response = append(response, second[:]...)
	return response, nil
}
