package storage

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/world"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"
)

// Archive - прочитанный файл журнала
type Archive struct {
	Build     int32
	CreatedAt time.Time
	Records   []world.LogEntry
}

func (s *ArchiveService) Load(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.In("storage").With("path", path).Wrapf(err, "open archive")
	}
	defer f.Close()

	a, err := readArchive(f)
	if err != nil {
		return nil, oops.In("storage").With("path", path).Wrapf(err, "read archive")
	}
	return a, nil
}

func readArchive(r io.Reader) (*Archive, error) {
	// 1. Читаем заголовок целиком
	var header ArchiveFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Валидация
	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, FormatVersion)
	}
	if header.RecordCount < 0 {
		return nil, fmt.Errorf("negative record count: %d", header.RecordCount)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	a := &Archive{
		Build:     header.Build,
		CreatedAt: time.UnixMilli(header.CreatedAt).UTC(),
		Records:   make([]world.LogEntry, 0, header.RecordCount),
	}

	// 2. Записи, по одной на строку
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var rec world.LogEntry
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(a.Records), err)
		}
		a.Records = append(a.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if int64(len(a.Records)) != header.RecordCount {
		return nil, fmt.Errorf("record count mismatch: header %d, body %d", header.RecordCount, len(a.Records))
	}
	return a, nil
}
