package convert

import (
	"archive/zip"
	"fmt"
	"os"
	"path"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"

	"demc/convert/email"
)

// writeBundle packages the fragment together with its exported images into a
// single zip so the result can be uploaded to an ESP in one piece. The
// archive is first assembled next to the destination and then rewritten
// without data descriptors, since some legacy upload tooling refuses streamed
// zip entries.
func writeBundle(outPath string, res *email.Result, overwrite bool) error {
	if err := checkDestination(outPath, overwrite); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmpName := outPath + ".tmp"
	if err := assembleBundle(tmpName, res); err != nil {
		return err
	}
	defer os.Remove(tmpName)

	return copyZipWithoutDataDescriptors(tmpName, outPath)
}

func assembleBundle(name string, res *email.Result) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	w, err := zw.Create("fragment.html")
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(res.HTML)); err != nil {
		return err
	}

	for _, a := range res.Assets {
		w, err := zw.Create(path.Join("images", a.Name))
		if err != nil {
			return err
		}
		if _, err := w.Write(a.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	return f.Close()
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}
