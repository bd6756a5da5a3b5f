// Package endian provides byte order utilities for binary encoding and decoding.
//
// This package combines the ByteOrder and AppendByteOrder interfaces of the
// standard encoding/binary package into a single EndianEngine interface, so
// codecs can both read fixed-width integers and append them to a growing
// buffer through one value.
//
// The KAP container stores its row offset index as big-endian 32-bit
// integers, so most users want GetBigEndianEngine:
//
//	engine := endian.GetBigEndianEngine()
//	buf = engine.AppendUint32(buf, offset)
//
// The returned engines are the immutable stdlib byte orders and are safe for
// concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface for convenient byte order operations.
//
// The interface is satisfied by binary.BigEndian and binary.LittleEndian,
// making it fully compatible with existing Go code.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetBigEndianEngine returns the big-endian engine used by the KAP row
// offset index.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
