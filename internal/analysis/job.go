package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"salescope/internal/textutil"
)

const dateLayout = "2006-01-02"

// Job identifies one video result directory.
type Job struct {
	Dir     string
	Shop    string
	ShopKey string
	// Date is the YYYY-MM-DD recording date taken from the video name, or
	// empty when the name carries none.
	Date  string
	Video string
}

// JobFromDir derives a Job from a result directory path. The shop is the
// parent directory name, title-cased when written in lower case, and the date
// is the leading YYYY-MM-DD of the video directory name.
func JobFromDir(dir string) (Job, error) {
	if strings.TrimSpace(dir) == "" {
		return Job{}, errors.New("result directory is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Job{}, fmt.Errorf("resolve result directory: %w", err)
	}
	video := filepath.Base(abs)
	shop := textutil.TitleName(filepath.Base(filepath.Dir(abs)))
	return Job{
		Dir:     abs,
		Shop:    shop,
		ShopKey: textutil.NameKey(shop),
		Date:    ParseDate(video),
		Video:   video,
	}, nil
}

// ParseDate returns the YYYY-MM-DD prefix of name when it is a valid date.
func ParseDate(name string) string {
	if len(name) < len(dateLayout) {
		return ""
	}
	prefix := name[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, prefix); err != nil {
		return ""
	}
	return prefix
}

// Discover lists every <shop>/<video> directory under resultsDir that holds a
// labels directory. Jobs are ordered by shop then video.
func Discover(resultsDir, labelsDir string) ([]Job, error) {
	shops, err := os.ReadDir(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}
	var jobs []Job
	for _, shop := range shops {
		if !shop.IsDir() || strings.HasPrefix(shop.Name(), ".") {
			continue
		}
		shopDir := filepath.Join(resultsDir, shop.Name())
		videos, err := os.ReadDir(shopDir)
		if err != nil {
			return nil, fmt.Errorf("read shop directory: %w", err)
		}
		for _, video := range videos {
			if !video.IsDir() {
				continue
			}
			dir := filepath.Join(shopDir, video.Name())
			if info, err := os.Stat(filepath.Join(dir, labelsDir)); err != nil || !info.IsDir() {
				continue
			}
			job, err := JobFromDir(dir)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
		}
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		if c := strings.Compare(a.ShopKey, b.ShopKey); c != 0 {
			return c
		}
		return strings.Compare(a.Video, b.Video)
	})
	return jobs, nil
}
