package storage

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/version"
	"github.com/harrisonpepese/aibit-server-sub000/internal/world"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"
)

const (
	MagicHeader   string = `AEVL` // 4 байта
	FormatVersion uint32 = 2      // 2: в заголовке номер сборки сервера
	Extension            = ".aevl"
)

// ArchiveFileHeader: точное представление заголовка файла в памяти.
// binary.Write умеет писать это целиком, так как тут нет слайсов и строк, только массивы и числа.
type ArchiveFileHeader struct {
	Magic       [4]byte // 4 байта
	Version     uint32  // 4 байта
	Build       int32   // 4 байта, номер сборки, записавшей файл (-1: неизвестна)
	CreatedAt   int64   // 8 байт, Unix milliseconds
	RecordCount int64   // 8 байт
}

// ArchiveService пишет журнал событий мира в каталог: заголовок + zstd поток JSON строк.
type ArchiveService struct {
	SaveDir string
	Build   int32
	now     func() time.Time
}

func NewArchiveService(dir string, now func() time.Time) *ArchiveService {
	if now == nil {
		now = time.Now
	}
	return &ArchiveService{SaveDir: dir, Build: version.Current().Stamp(), now: now}
}

// Save пишет записи в новый файл и возвращает путь к нему.
func (s *ArchiveService) Save(records []world.LogEntry) (string, error) {
	errb := oops.In("storage").With("dir", s.SaveDir, "records", len(records))

	if err := os.MkdirAll(s.SaveDir, 0o755); err != nil {
		return "", errb.Wrapf(err, "create archive dir")
	}

	created := s.now().UTC()
	filename := fmt.Sprintf("eventlog_%d%s", created.UnixNano(), Extension)
	path := filepath.Join(s.SaveDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", errb.Wrapf(err, "create archive file")
	}
	defer f.Close()

	if err := writeArchive(f, s.Build, created, records); err != nil {
		return "", errb.With("path", path).Wrapf(err, "write archive")
	}
	return path, f.Sync()
}

func writeArchive(w io.Writer, build int32, created time.Time, records []world.LogEntry) error {
	// 1. Заголовок
	header := ArchiveFileHeader{
		Version:     FormatVersion,
		Build:       build,
		CreatedAt:   created.UnixMilli(),
		RecordCount: int64(len(records)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Тело: по одной записи на строку, сжатое целиком
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			_ = enc.Close()
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if _, err := bw.Write(b); err != nil {
			_ = enc.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = enc.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
