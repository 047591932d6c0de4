package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"demc/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates an initialized empty reporter. When the configured
// destination cannot be created the report goes to a temporary file.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{items: make(map[string]reportItem)}

	f, err := os.Create(conf.Destination)
	if err != nil {
		f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip")
	}
	if err != nil {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	r.file = f
	return r, nil
}

// reportItem is either a path to pick up at finalization time or an
// in-memory payload stored during the run.
type reportItem struct {
	srcPath string
	absPath string
	when    time.Time
	payload []byte
}

// Report accumulates run artifacts and packs them into a single zip on
// Close. All methods tolerate a nil receiver so callers do not have to
// check whether a report was requested.
// NOTE: not safe for concurrent use.
type Report struct {
	items map[string]reportItem
	file  *os.File
}

// Close writes the final report archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// Name returns the report file location.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store registers a file to be picked up when the report is finalized.
// Files absent at that point are silently omitted.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	if old, exists := r.items[name]; exists && old.srcPath != path {
		panic(fmt.Sprintf("conflicting report entries for [%s]: %s vs %s", name, old.srcPath, path))
	}

	it := reportItem{srcPath: path, absPath: path}
	if p, err := filepath.Abs(path); err == nil {
		it.absPath = p
	}
	r.items[name] = it
}

// StoreData saves a payload to be written into the report under the given
// name. Repeated names are versioned with a timestamp suffix, so storing
// under the same name multiple times is safe.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	it := reportItem{payload: data, when: time.Now()}
	if _, exists := r.items[name]; exists {
		name = fmt.Sprintf("%s-%d", name, it.when.UnixNano())
	}
	r.items[name] = it
}

func (r *Report) finalize() error {

	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names := make([]string, 0, len(r.items))
	for n := range r.items {
		names = append(names, n)
	}
	sort.Strings(names)

	if err := storeEntry(arc, "MANIFEST", time.Now(), r.manifest(names)); err != nil {
		return err
	}

	for _, name := range names {
		it := r.items[name]
		if len(it.payload) > 0 {
			if err := storeEntry(arc, name, it.when, bytes.NewReader(it.payload)); err != nil {
				return err
			}
			continue
		}
		if err := storeFile(arc, name, it.absPath); err != nil {
			return err
		}
	}
	return nil
}

// manifest lists report entries with timestamps and source locations, in the
// same order the entries are written.
func (r *Report) manifest(names []string) *bytes.Buffer {

	now := time.Now()

	buf := new(bytes.Buffer)
	for _, n := range names {
		it := r.items[n]
		stamp := it.when
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.UnixDate), n, it.srcPath, it.absPath)
	}
	return buf
}

func storeFile(dst *zip.Writer, name, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		// stored files may legitimately be gone by now
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return storeEntry(dst, name, info.ModTime(), f)
}

func storeEntry(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
