package zipstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	cdHeaderSignature         = 0x02014b50
	eocdSignature             = 0x06054b50
	eocdRecordSize            = 22
	zip64EOCDSignature        = 0x06064b50
	zip64EOCDLocatorSignature = 0x07064b50
	zip64EOCDLocatorSize      = 20
	zip64EOCDRecordSize       = 56
	localFileHeaderSignature  = 0x04034b50
	eocdSearchWindow          = 65536
)

// entry is one resolved central directory record: where its local file
// header starts, and the compressed size of its data.
type entry struct {
	headerOffset   int64
	compressedSize int64
}

// Ranged serves a ZIP container through a RangeFetcher, touching only the
// EOCD, optional ZIP64 locator/EOCD, central directory, and — per read —
// one local file header plus the requested data slice. It never reads the
// whole archive.
type Ranged struct {
	fetcher RangeFetcher

	mu      sync.Mutex
	entries map[string]*entry
}

// OpenRanged resolves fetcher's central directory up front (one open-time
// pass of EOCD → [ZIP64 EOCD] → central directory) and returns a Backend
// ready for ReadAll/ReadPart calls.
func OpenRanged(ctx context.Context, fetcher RangeFetcher) (*Ranged, error) {
	r := &Ranged{fetcher: fetcher}
	if err := r.loadCentralDirectory(ctx); err != nil {
		logrus.WithError(err).Warn("zipstore: failed to load central directory")
		return nil, err
	}
	return r, nil
}

func (r *Ranged) loadCentralDirectory(ctx context.Context) error {
	size, err := r.fetcher.Size(ctx)
	if err != nil {
		return fmt.Errorf("zipstore: size: %w", err)
	}

	eocdOffset, eocd, err := r.findEOCD(ctx, size)
	if err != nil {
		return err
	}

	var cdStart, cdSize int64
	if isZip64(eocd) {
		cdStart, cdSize, err = r.readZip64EOCD(ctx, eocdOffset)
		if err != nil {
			return err
		}
	} else {
		cdStart, cdSize = parseEOCD(eocd)
	}

	cd, err := r.fetcher.Fetch(ctx, byteRange(cdStart, cdStart+cdSize-1))
	if err != nil {
		return fmt.Errorf("zipstore: fetch central directory: %w", err)
	}

	entries, err := parseCentralDirectory(cd)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

func (r *Ranged) findEOCD(ctx context.Context, size int64) (offset int64, eocd []byte, err error) {
	searchOffset := size - eocdSearchWindow
	if searchOffset < 0 {
		searchOffset = 0
	}
	window, err := r.fetcher.Fetch(ctx, byteRange(searchOffset, size-1))
	if err != nil {
		return 0, nil, fmt.Errorf("zipstore: fetch eocd search window: %w", err)
	}

	idx := lastIndexSignature(window, eocdSignature)
	if idx < 0 {
		return 0, nil, fmt.Errorf("%w: eocd signature not found", ErrCorrupt)
	}
	if idx+eocdRecordSize > len(window) {
		return 0, nil, fmt.Errorf("%w: truncated eocd", ErrCorrupt)
	}

	return searchOffset + int64(idx), window[idx : idx+eocdRecordSize], nil
}

func (r *Ranged) readZip64EOCD(ctx context.Context, eocdOffset int64) (cdStart, cdSize int64, err error) {
	locatorOffset := eocdOffset - zip64EOCDLocatorSize
	locator, err := r.fetcher.Fetch(ctx, byteRange(locatorOffset, eocdOffset-1))
	if err != nil {
		return 0, 0, fmt.Errorf("zipstore: fetch zip64 locator: %w", err)
	}
	if len(locator) < zip64EOCDLocatorSize || binary.LittleEndian.Uint32(locator[0:4]) != zip64EOCDLocatorSignature {
		return 0, 0, fmt.Errorf("%w: zip64 eocd locator signature not found", ErrCorrupt)
	}
	zip64EOCDOffset := int64(binary.LittleEndian.Uint64(locator[8:16]))

	zip64EOCD, err := r.fetcher.Fetch(ctx, byteRange(zip64EOCDOffset, zip64EOCDOffset+zip64EOCDRecordSize-1))
	if err != nil {
		return 0, 0, fmt.Errorf("zipstore: fetch zip64 eocd: %w", err)
	}
	if len(zip64EOCD) < zip64EOCDRecordSize || binary.LittleEndian.Uint32(zip64EOCD[0:4]) != zip64EOCDSignature {
		return 0, 0, fmt.Errorf("%w: zip64 eocd signature not found", ErrCorrupt)
	}

	cdSize = int64(binary.LittleEndian.Uint64(zip64EOCD[40:48]))
	cdStart = int64(binary.LittleEndian.Uint64(zip64EOCD[48:56]))
	return cdStart, cdSize, nil
}

func isZip64(eocd []byte) bool {
	totalEntriesOnDisk := binary.LittleEndian.Uint16(eocd[10:12])
	totalEntries := binary.LittleEndian.Uint16(eocd[8:10])
	cdSize := binary.LittleEndian.Uint32(eocd[12:16])
	cdOffset := binary.LittleEndian.Uint32(eocd[16:20])
	return totalEntriesOnDisk == 0xFFFF || totalEntries == 0xFFFF || cdSize == 0xFFFFFFFF || cdOffset == 0xFFFFFFFF
}

func parseEOCD(eocd []byte) (cdStart, cdSize int64) {
	cdSize = int64(binary.LittleEndian.Uint32(eocd[12:16]))
	cdStart = int64(binary.LittleEndian.Uint32(eocd[16:20]))
	return cdStart, cdSize
}

func parseCentralDirectory(cd []byte) (map[string]*entry, error) {
	entries := make(map[string]*entry)
	offset := 0

	for offset < len(cd) {
		if offset+46 > len(cd) {
			break
		}
		if binary.LittleEndian.Uint32(cd[offset:offset+4]) != cdHeaderSignature {
			break
		}

		compressedSize := int64(binary.LittleEndian.Uint32(cd[offset+20 : offset+24]))
		fileNameLength := int(binary.LittleEndian.Uint16(cd[offset+28 : offset+30]))
		extraFieldLength := int(binary.LittleEndian.Uint16(cd[offset+30 : offset+32]))
		headerOffset := int64(binary.LittleEndian.Uint32(cd[offset+42 : offset+46]))

		nameStart := offset + 46
		nameEnd := nameStart + fileNameLength
		if nameEnd > len(cd) {
			return nil, fmt.Errorf("%w: truncated central directory entry", ErrCorrupt)
		}
		name := string(cd[nameStart:nameEnd])

		if compressedSize == 0xFFFFFFFF {
			extraStart := nameEnd
			extraEnd := extraStart + extraFieldLength
			if extraEnd > len(cd) {
				return nil, fmt.Errorf("%w: truncated extra field for %s", ErrCorrupt, name)
			}
			size, err := readZip64ExtraField(cd[extraStart:extraEnd])
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
			}
			compressedSize = size
		}

		entries[name] = &entry{headerOffset: headerOffset, compressedSize: compressedSize}
		offset = nameEnd + extraFieldLength
	}

	return entries, nil
}

func readZip64ExtraField(extra []byte) (int64, error) {
	if len(extra) < 4 {
		return 0, fmt.Errorf("zip64 extra field too short")
	}
	signature := binary.LittleEndian.Uint16(extra[0:2])
	size := binary.LittleEndian.Uint16(extra[2:4])
	if signature != 0x0001 {
		return 0, fmt.Errorf("zip64 extra field signature not found")
	}
	if int(size) < 8 || len(extra) < 12 {
		return 0, fmt.Errorf("zip64 extra field too short for compressed size")
	}
	return int64(binary.LittleEndian.Uint64(extra[4:12])), nil
}

// dataOffset resolves e's local file header to find where its data
// actually starts: the 30-byte fixed local header plus its own
// filename/extra-field lengths (which need not match the central
// directory's, though in practice they do).
func (r *Ranged) dataOffset(ctx context.Context, e *entry) (int64, error) {
	header, err := r.fetcher.Fetch(ctx, byteRange(e.headerOffset, e.headerOffset+29))
	if err != nil {
		return 0, fmt.Errorf("zipstore: fetch local file header: %w", err)
	}
	if len(header) < 30 || binary.LittleEndian.Uint32(header[0:4]) != localFileHeaderSignature {
		return 0, fmt.Errorf("%w: local file header signature not found", ErrCorrupt)
	}
	fileNameLength := int64(binary.LittleEndian.Uint16(header[26:28]))
	extraFieldLength := int64(binary.LittleEndian.Uint16(header[28:30]))
	return e.headerOffset + 30 + fileNameLength + extraFieldLength, nil
}

func (r *Ranged) lookup(member string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[member]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, member)
	}
	return e, nil
}

// Exists reports whether the backing object responds at all; the central
// directory was already resolved at open time, so this is a cheap re-probe
// rather than a fresh parse.
func (r *Ranged) Exists(ctx context.Context) (bool, error) {
	if _, err := r.fetcher.Size(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

// ReadAll returns the full, decompressed-if-gzipped contents of member.
func (r *Ranged) ReadAll(ctx context.Context, member string) ([]byte, error) {
	e, err := r.lookup(member)
	if err != nil {
		return nil, err
	}
	raw, err := r.fetchData(ctx, e, 0, e.compressedSize)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(member, ".gz") {
		return readAllGzip(bytes.NewReader(raw))
	}
	return raw, nil
}

// ReadPart returns the raw [offset, offset+length) slice of member's own
// byte stream — see Local.ReadPart for why this never decompresses.
func (r *Ranged) ReadPart(ctx context.Context, member string, offset, length int64) ([]byte, error) {
	e, err := r.lookup(member)
	if err != nil {
		return nil, err
	}
	return r.fetchData(ctx, e, offset, length)
}

func (r *Ranged) fetchData(ctx context.Context, e *entry, offset, length int64) ([]byte, error) {
	dataStart, err := r.dataOffset(ctx, e)
	if err != nil {
		return nil, err
	}
	start := dataStart + offset
	data, err := r.fetcher.Fetch(ctx, byteRange(start, start+length-1))
	if err != nil {
		return nil, fmt.Errorf("zipstore: fetch data slice: %w", err)
	}
	return data, nil
}

func byteRange(start, end int64) string {
	return fmt.Sprintf("bytes=%d-%d", start, end)
}

func lastIndexSignature(buf []byte, signature uint32) int {
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], signature)
	for i := len(buf) - 4; i >= 0; i-- {
		if buf[i] == sig[0] && buf[i+1] == sig[1] && buf[i+2] == sig[2] && buf[i+3] == sig[3] {
			return i
		}
	}
	return -1
}

var _ Backend = (*Ranged)(nil)
