// Package crc implements the CRC-8 checksums used by Sensirion sensors and the
// interleaving of those checksums into I2C payloads.
//
// An I2C word is two data bytes followed by one checksum byte computed over the
// two data bytes. The command prefix of a frame is never checksummed.
package crc

// Params describes a non-reflected CRC-8 algorithm.
type Params struct {
	Poly   uint8
	Init   uint8
	XorOut uint8
}

// Sensirion is the CRC-8 variant used by Sensirion I2C sensors,
// polynomial x^8 + x^5 + x^4 + 1, initial value 0xFF, no final xor.
var Sensirion = Params{Poly: 0x31, Init: 0xFF, XorOut: 0x00}

// Func computes the checksum of data.
type Func func(data []byte) uint8

// Calculator computes a CRC-8 with a precomputed table.
// A Calculator is immutable and safe for concurrent use.
type Calculator struct {
	params Params
	table  [256]uint8
}

// NewCalculator builds the lookup table for params.
func NewCalculator(params Params) *Calculator {
	c := &Calculator{params: params}
	for i := 0; i < 256; i++ {
		crc := uint8(i) //nolint:gosec
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ params.Poly
			} else {
				crc <<= 1
			}
		}
		c.table[i] = crc
	}

	return c
}

// Params returns the algorithm parameters.
func (c *Calculator) Params() Params {
	return c.params
}

// Checksum returns the CRC-8 of data.
func (c *Calculator) Checksum(data []byte) uint8 {
	crc := c.params.Init
	for _, b := range data {
		crc = c.table[crc^b]
	}

	return crc ^ c.params.XorOut
}

// Func returns c.Checksum as a Func.
func (c *Calculator) Func() Func {
	return c.Checksum
}

var sensirion = NewCalculator(Sensirion)

// SensirionChecksum computes the Sensirion CRC-8 of data.
func SensirionChecksum(data []byte) uint8 {
	return sensirion.Checksum(data)
}
