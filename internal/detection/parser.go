package detection

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"salescope/internal/logging"
)

// DefaultExt is the label file extension written by the tracker.
const DefaultExt = "txt"

// minFields is class_id, x_center, y_center, w, h, track_id.
const minFields = 6

// Stats summarizes one parse pass.
type Stats struct {
	Files        int
	FilesSkipped int
	Lines        int
	LinesDropped int
	Records      int
}

func (s *Stats) add(other Stats) {
	s.Files += other.Files
	s.FilesSkipped += other.FilesSkipped
	s.Lines += other.Lines
	s.LinesDropped += other.LinesDropped
	s.Records += other.Records
}

// Parser reads label files of one extension.
type Parser struct {
	ext     string
	pattern *regexp.Regexp
	logger  *slog.Logger
}

// NewParser returns a parser for files ending in `_<frame>.<ext>`. An empty
// ext selects DefaultExt.
func NewParser(ext string, logger *slog.Logger) *Parser {
	ext = normalizeExt(ext)
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Parser{
		ext:     ext,
		pattern: framePattern(ext),
		logger:  logger,
	}
}

// Ext returns the extension without its leading dot.
func (p *Parser) Ext() string { return p.ext }

// FrameIndex extracts the frame index encoded in a label file name.
func (p *Parser) FrameIndex(path string) (int, bool) {
	match := p.pattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return 0, false
	}
	frame, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return frame, true
}

// ListFiles returns the label files in dir ordered by frame index. Files with
// the right extension but no frame index sort last, by name.
func (p *Parser) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list label files: %w", err)
	}
	suffix := "." + p.ext
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.SortFunc(files, func(a, b string) int {
		fa, okA := p.FrameIndex(a)
		fb, okB := p.FrameIndex(b)
		switch {
		case okA && okB:
			if c := cmp.Compare(fa, fb); c != 0 {
				return c
			}
		case okA:
			return -1
		case okB:
			return 1
		}
		return strings.Compare(a, b)
	})
	return files, nil
}

// ParseFiles parses every path in order. Files whose names carry no frame
// index are skipped with a warning; read failures abort the pass.
func (p *Parser) ParseFiles(paths []string) ([]Record, Stats, error) {
	var (
		records []Record
		stats   Stats
	)
	for _, path := range paths {
		fileRecords, fileStats, err := p.ParseFile(path)
		if err != nil {
			return nil, stats, err
		}
		stats.add(fileStats)
		records = append(records, fileRecords...)
	}
	return records, stats, nil
}

// ParseFile parses one label file.
func (p *Parser) ParseFile(path string) ([]Record, Stats, error) {
	frame, ok := p.FrameIndex(path)
	if !ok {
		logging.WarnWithContext(p.logger, "skipping label file without frame index", "frame_index_unparsed",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "label files must be named <name>_<frame>."+p.ext),
			logging.String(logging.FieldImpact, "detections in this file are ignored"),
		)
		return nil, Stats{FilesSkipped: 1}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open label file: %w", err)
	}
	defer file.Close()

	stats := Stats{Files: 1}
	var records []Record
	err = EachLine(file, func(line string) {
		stats.Lines++
		record, ok := ParseLine(frame, line)
		if !ok {
			stats.LinesDropped++
			return
		}
		records = append(records, record)
	})
	if err != nil {
		return nil, stats, fmt.Errorf("read label file %s: %w", path, err)
	}
	stats.Records = len(records)
	return records, stats, nil
}

// ParseLine interprets one detection line for the given frame. It reports
// false for lines with fewer than six fields or non-numeric geometry.
func ParseLine(frame int, line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Record{}, false
	}
	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, false
	}
	var coords [4]float64
	for i := range coords {
		value, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Record{}, false
		}
		coords[i] = value
	}
	return Record{
		Frame:   frame,
		ClassID: classID,
		XCenter: coords[0],
		YCenter: coords[1],
		Width:   coords[2],
		Height:  coords[3],
		Track:   ParseTrackID(fields[5]),
	}, true
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return DefaultExt
	}
	return ext
}

func framePattern(ext string) *regexp.Regexp {
	return regexp.MustCompile(`_(\d+)\.` + regexp.QuoteMeta(ext) + `$`)
}
