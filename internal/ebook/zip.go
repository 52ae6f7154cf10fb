package ebook

import (
	"encoding/binary"
	"hash/crc32"
	"iter"
)

// Entry is one file of a ZIP container.
type Entry struct {
	Path string
	Data []byte
}

const (
	localSig   = 0x04034b50
	centralSig = 0x02014b50
	endSig     = 0x06054b50

	versionNeeded = 10 // stored entries only
	versionMadeBy = 20

	// MaxEntries is the entry limit of a ZIP without zip64 records.
	MaxEntries = 0xffff
)

// Zip streams an uncompressed ZIP archive. Every entry yields its local
// header, name and data as separate chunks; the central directory comes
// last. Entries are consumed one at a time. No zip64 records are written:
// callers keep archives under MaxEntries entries and 4 GiB.
func Zip(entries iter.Seq[Entry]) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var (
			central []byte
			offset  uint32
			count   uint16
		)

		for e := range entries {
			name := []byte(e.Path)
			common := commonHeader(e.Data, name)

			central = binary.LittleEndian.AppendUint32(central, centralSig)
			central = binary.LittleEndian.AppendUint16(central, versionMadeBy)
			central = append(central, common...)
			// comment length, disk number, internal and external attributes
			central = append(central, make([]byte, 10)...)
			central = binary.LittleEndian.AppendUint32(central, offset)
			central = append(central, name...)

			local := binary.LittleEndian.AppendUint32(make([]byte, 0, 30), localSig)
			local = append(local, common...)

			offset += uint32(len(local) + len(name) + len(e.Data))
			count++

			if !yield(local) || !yield(name) || !yield(e.Data) {
				return
			}
		}

		end := binary.LittleEndian.AppendUint32(make([]byte, 0, 22), endSig)
		end = append(end, 0, 0, 0, 0) // disk numbers
		end = binary.LittleEndian.AppendUint16(end, count)
		end = binary.LittleEndian.AppendUint16(end, count)
		end = binary.LittleEndian.AppendUint32(end, uint32(len(central)))
		end = binary.LittleEndian.AppendUint32(end, offset)
		end = append(end, 0, 0) // comment length

		yield(append(central, end...))
	}
}

// commonHeader holds the fields shared by the local header and the
// central directory record.
func commonHeader(data, name []byte) []byte {
	h := make([]byte, 0, 26)
	h = binary.LittleEndian.AppendUint16(h, versionNeeded)
	h = append(h, 0, 0, 0, 0, 0, 0, 0, 0) // flags, method, time, date
	h = binary.LittleEndian.AppendUint32(h, crc32.ChecksumIEEE(data))
	h = binary.LittleEndian.AppendUint32(h, uint32(len(data)))
	h = binary.LittleEndian.AppendUint32(h, uint32(len(data)))
	h = binary.LittleEndian.AppendUint16(h, uint16(len(name)))
	h = binary.LittleEndian.AppendUint16(h, 0)
	return h
}

// Entries adapts a slice for Zip.
func Entries(list ...Entry) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range list {
			if !yield(e) {
				return
			}
		}
	}
}
