// Package mock provides hardware-free doubles of sensors for testing drivers.
//
// I2CSensor emulates one sensor behind an i2c.Bus: it checks the address and the
// checksums of incoming writes, queues the received commands and answers reads
// through a ResponseProvider with checksum framed data. Bus puts several sensors on
// one bus. ShdlcDevice implements shdlc.Port.
//
// The default ResponseProvider of every mock is RandomResponse; use
// WithResponseProvider to emulate a specific sensor, e.g. with a TableResponse.
package mock
