package consolidate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"salescope/internal/detection"
	"salescope/internal/fileutil"
	"salescope/internal/logging"
)

// LockFileName is created inside the labels directory while files are rewritten.
const LockFileName = ".consolidate.lock"

// BackupSuffix is appended to label files copied aside before a rewrite.
const BackupSuffix = ".bak"

// ErrLocked reports that another process is rewriting the same directory.
var ErrLocked = errors.New("labels directory is locked by another consolidation")

// Options controls a consolidation run.
type Options struct {
	// InPlace rewrites accepted tracks to the subject sentinel.
	InPlace bool
	// Backup copies each rewritten file to <file>.bak first. An existing
	// backup is never replaced, so it keeps the tracker's original output.
	Backup bool
	// Ext is the label file extension; empty selects detection.DefaultExt.
	Ext    string
	Logger *slog.Logger
}

// Result describes a consolidation run.
type Result struct {
	Accepted       []detection.TrackID `json:"accepted"`
	Files          int                 `json:"files"`
	CoveredFrames  int                 `json:"covered_frames"`
	FilesRewritten int                 `json:"files_rewritten"`
	LinesRewritten int                 `json:"lines_rewritten"`

	// Records holds the parsed detections as they now stand on disk: relabelled
	// after an in-place run, unchanged otherwise.
	Records []detection.Record `json:"-"`
	Stats   detection.Stats    `json:"-"`
}

// renameFile commits a staged label file.
var renameFile = os.Rename

// Run selects subject fragments from the label files in dir and, when
// opts.InPlace is set, rewrites them to the subject sentinel. The accepted
// list is returned in both modes.
//
// Rewrites hold an exclusive lock on dir and are all-or-nothing: every new
// file is staged before the first one replaces its original, and a failed
// commit restores the files already replaced. Cancellation is honoured only
// until staging begins.
func Run(ctx context.Context, dir string, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	parser := detection.NewParser(opts.Ext, logger)

	var lock *flock.Flock
	if opts.InPlace {
		lock = flock.New(filepath.Join(dir, LockFileName))
		locked, err := lock.TryLock()
		if err != nil {
			return Result{}, fmt.Errorf("lock labels directory: %w", err)
		}
		if !locked {
			return Result{}, fmt.Errorf("%w: %s", ErrLocked, dir)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	files, err := parser.ListFiles(dir)
	if err != nil {
		return Result{}, err
	}
	records, stats, err := parser.ParseFiles(files)
	if err != nil {
		return Result{}, err
	}

	accepted := Select(records)
	result := Result{
		Accepted:      accepted,
		Files:         stats.Files,
		CoveredFrames: coveredFrames(records, accepted),
		Records:       records,
		Stats:         stats,
	}
	logger.Info("track fragments selected",
		logging.String("dir", dir),
		logging.Int("tracks", len(FrameSets(records))),
		logging.Int("accepted", len(accepted)),
		logging.Int("covered_frames", result.CoveredFrames),
		logging.Bool("in_place", opts.InPlace),
	)
	if !opts.InPlace || len(accepted) == 0 {
		return result, nil
	}

	targets := make(map[detection.TrackID]struct{}, len(accepted))
	for _, id := range accepted {
		targets[id] = struct{}{}
	}
	plans, err := planRewrites(ctx, parser, files, targets)
	if err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := commitRewrites(plans, opts.Backup); err != nil {
		return result, err
	}

	for _, plan := range plans {
		result.FilesRewritten++
		result.LinesRewritten += plan.lines
	}
	result.Records = relabel(records, targets)
	logger.Info("label files rewritten",
		logging.String("dir", dir),
		logging.Int("files", result.FilesRewritten),
		logging.Int("lines", result.LinesRewritten),
	)
	return result, nil
}

type rewrite struct {
	path     string
	mode     fs.FileMode
	original []byte
	content  []byte
	lines    int

	staged string
	backup string
}

// planRewrites computes the new content of every label file that changes.
// Nothing is written.
func planRewrites(ctx context.Context, parser *detection.Parser, files []string, targets map[detection.TrackID]struct{}) ([]rewrite, error) {
	var plans []rewrite
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := parser.FrameIndex(path); !ok {
			continue
		}
		plan, err := planFile(path, targets)
		if err != nil {
			return nil, err
		}
		if plan.lines > 0 {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

// planFile replaces the track field of matching lines with the subject
// sentinel. Lines that are not detections are kept verbatim.
func planFile(path string, targets map[detection.TrackID]struct{}) (rewrite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return rewrite{}, fmt.Errorf("stat label file: %w", err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return rewrite{}, fmt.Errorf("read label file: %w", err)
	}

	plan := rewrite{path: path, mode: info.Mode().Perm(), original: original}
	var out bytes.Buffer
	subject := detection.Subject().String()
	err = detection.EachLine(bytes.NewReader(original), func(line string) {
		fields := strings.Fields(line)
		if len(fields) >= 6 {
			if _, ok := targets[detection.ParseTrackID(fields[5])]; ok && fields[5] != subject {
				fields[5] = subject
				line = strings.Join(fields, " ")
				plan.lines++
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	})
	if err != nil {
		return rewrite{}, fmt.Errorf("scan label file %s: %w", path, err)
	}
	plan.content = out.Bytes()
	return plan, nil
}

// commitRewrites stages backups and new contents for every plan, then renames
// the staged files into place. Any failure leaves the originals in place.
func commitRewrites(plans []rewrite, backup bool) error {
	discard := func(keepBackups bool) {
		for i := range plans {
			if plans[i].staged != "" {
				_ = os.Remove(plans[i].staged)
			}
			if plans[i].backup != "" && !keepBackups {
				_ = os.Remove(plans[i].backup)
			}
		}
	}

	for i := range plans {
		plan := &plans[i]
		if backup {
			created, err := ensureBackup(plan.path, plan.mode)
			if err != nil {
				discard(false)
				return fmt.Errorf("backup label file: %w", err)
			}
			plan.backup = created
		}
		staged, err := fileutil.StageFile(plan.path, plan.content, plan.mode)
		if err != nil {
			discard(false)
			return fmt.Errorf("stage label file %s: %w", plan.path, err)
		}
		plan.staged = staged
	}

	for i := range plans {
		if err := renameFile(plans[i].staged, plans[i].path); err != nil {
			commitErr := fmt.Errorf("rewrite label file %s: %w", plans[i].path, err)
			if restoreErr := restore(plans[:i]); restoreErr != nil {
				discard(true)
				return errors.Join(commitErr, restoreErr)
			}
			discard(false)
			return commitErr
		}
		plans[i].staged = ""
	}
	return nil
}

// restore writes back the original content of already committed files.
func restore(committed []rewrite) error {
	var errs []error
	for _, plan := range committed {
		if err := fileutil.WriteFileAtomic(plan.path, plan.original, plan.mode); err != nil {
			errs = append(errs, fmt.Errorf("restore %s (original kept in %s%s): %w", plan.path, plan.path, BackupSuffix, err))
		}
	}
	return errors.Join(errs...)
}

// ensureBackup copies path to its backup unless one already exists. It returns
// the backup path when this call created it.
func ensureBackup(path string, mode fs.FileMode) (string, error) {
	target := path + BackupSuffix
	if _, err := os.Lstat(target); err == nil {
		return "", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := fileutil.CopyFileMode(path, target, mode); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

// relabel returns a copy of records with accepted tracks set to the subject.
func relabel(records []detection.Record, targets map[detection.TrackID]struct{}) []detection.Record {
	out := make([]detection.Record, len(records))
	subject := detection.Subject()
	for i, record := range records {
		if _, ok := targets[record.Track]; ok {
			record.Track = subject
		}
		out[i] = record
	}
	return out
}

func coveredFrames(records []detection.Record, accepted []detection.TrackID) int {
	sets := FrameSets(records)
	total := 0
	for _, id := range accepted {
		total += len(sets[id])
	}
	return total
}
