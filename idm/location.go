// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package idm

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	narrowLocationSize = 10
	wideLocationSize   = 16
)

// Location is the position of a file in an archive's content.
type Location struct {
	// BlockOffset is the offset of the compressed block in CONTENT.tda.
	BlockOffset uint32

	// BlockSize is the size of the compressed block.
	BlockSize uint32

	// Offset is the offset of the file in the uncompressed block.
	Offset uint32

	// Size is the size of the file.
	Size uint32
}

// MarshalBinary encodes the location. When BlockSize, Offset and Size all fit
// in 16 bits the 10 byte form (<IHHH) is used. Otherwise the 16 byte form
// (<IIII) is used.
func (l Location) MarshalBinary() ([]byte, error) {
	if l.BlockSize <= math.MaxUint16 && l.Offset <= math.MaxUint16 && l.Size <= math.MaxUint16 {
		b := make([]byte, narrowLocationSize)
		binary.LittleEndian.PutUint32(b[0:], l.BlockOffset)
		//nolint:gosec // values are bounds checked above.
		{
			binary.LittleEndian.PutUint16(b[4:], uint16(l.BlockSize))
			binary.LittleEndian.PutUint16(b[6:], uint16(l.Offset))
			binary.LittleEndian.PutUint16(b[8:], uint16(l.Size))
		}
		return b, nil
	}

	b := make([]byte, wideLocationSize)
	binary.LittleEndian.PutUint32(b[0:], l.BlockOffset)
	binary.LittleEndian.PutUint32(b[4:], l.BlockSize)
	binary.LittleEndian.PutUint32(b[8:], l.Offset)
	binary.LittleEndian.PutUint32(b[12:], l.Size)
	return b, nil
}

// UnmarshalBinary decodes a location. The form is selected by the length of
// b.
func (l *Location) UnmarshalBinary(b []byte) error {
	switch len(b) {
	case narrowLocationSize:
		*l = Location{
			BlockOffset: binary.LittleEndian.Uint32(b[0:]),
			BlockSize:   uint32(binary.LittleEndian.Uint16(b[4:])),
			Offset:      uint32(binary.LittleEndian.Uint16(b[6:])),
			Size:        uint32(binary.LittleEndian.Uint16(b[8:])),
		}
	case wideLocationSize:
		*l = Location{
			BlockOffset: binary.LittleEndian.Uint32(b[0:]),
			BlockSize:   binary.LittleEndian.Uint32(b[4:]),
			Offset:      binary.LittleEndian.Uint32(b[8:]),
			Size:        binary.LittleEndian.Uint32(b[12:]),
		}
	default:
		return fmt.Errorf("%w: location of %d bytes", ErrCorrupt, len(b))
	}
	return nil
}
