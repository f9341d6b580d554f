package version

import (
	"fmt"
	"time"
)

// Заполняются через -ldflags "-X github.com/harrisonpepese/aibit-server-sub000/internal/version.BuildDate=2026-01-15".
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

// Номер сборки считается в днях от эпохи проекта.
// Он же уходит клиентам в WELCOME и в заголовок архива журнала.
var epoch = time.Date(2025, time.December, 4, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// UnknownStamp пишется в бинарные заголовки, когда дата сборки не задана.
const UnknownStamp int32 = -1

// Build описывает текущую сборку.
type Build struct {
	ID     int    `json:"buildId"`
	Date   string `json:"buildDate"`
	Commit string `json:"commit"`
	Branch string `json:"branch"`
	CI     string `json:"ci"`
	Known  bool   `json:"known"`
	Error  string `json:"error,omitempty"`
}

// DaysSinceEpoch переводит дату сборки в номер сборки.
func DaysSinceEpoch(date string) (int, error) {
	if date == "" {
		return 0, fmt.Errorf("build date is empty")
	}

	t, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid build date %q: %w", date, err)
	}
	if t.Before(epoch) {
		return 0, fmt.Errorf("build date %s is before epoch %s", date, epoch.Format(dateLayout))
	}

	// Обе даты в UTC, сутки ровно по 24 часа
	return int(t.Sub(epoch).Hours() / 24), nil
}

// Current собирает Build из ldflags. Неразобранная дата не фатальна: Known=false.
func Current() Build {
	b := Build{
		Date:   BuildDate,
		Commit: coalesce(BuildCommit, "unknown"),
		Branch: coalesce(BuildBranch, "unknown"),
		CI:     coalesce(BuildCI, "local"),
	}

	id, err := DaysSinceEpoch(BuildDate)
	if err != nil {
		b.Error = err.Error()
		return b
	}
	b.ID, b.Known = id, true
	return b
}

// Stamp - номер сборки для бинарных заголовков.
func (b Build) Stamp() int32 {
	if !b.Known {
		return UnknownStamp
	}
	return int32(b.ID)
}

func (b Build) String() string {
	if !b.Known {
		return fmt.Sprintf("Build unknown (%s)", b.Error)
	}
	return fmt.Sprintf("Build %d (%s) commit[%s] branch[%s] ci[%s]", b.ID, b.Date, b.Commit, b.Branch, b.CI)
}

// DescribeStamp печатает номер сборки из заголовка с датой, от которой он посчитан.
func DescribeStamp(stamp int32) string {
	if stamp < 0 {
		return "unknown build"
	}
	day := epoch.AddDate(0, 0, int(stamp))
	return fmt.Sprintf("build %d (%s)", stamp, day.Format(dateLayout))
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
