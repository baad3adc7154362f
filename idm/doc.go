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

// Package idm implements reading the IDM archives of an LDOCE5 data
// directory.
//
// Each archive is a directory holding two tables:
//
//	<archive>.skn/dirs.skn/{config.cft,NAME.tda,dirs.dat}
//	<archive>.skn/files.skn/{config.cft,NAME.tda,files.dat,CONTENT.tda,CONTENT.tda.tdz}
//
// config.cft describes the fixed-size records of the .dat file in its [DAT]
// section. Each option names a field and its integer type (UBYTE, USHORT,
// U24 or ULONG). Fields are stored little-endian in option order.
//
// NAME.tda holds the NUL-terminated names of the records. For directories
// the dat record holds the index of the parent directory. For files it holds
// the offset of the file in the uncompressed content and the index of its
// directory.
//
// CONTENT.tda is a sequence of zlib streams. CONTENT.tda.tdz is the catalog
// of those streams: one pair of little-endian uint32 values (uncompressed
// size, compressed size) per block. Each file is stored in a single block and
// is followed by a NUL byte.
package idm
