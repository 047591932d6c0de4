package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func createTestZip(t *testing.T, files map[string]string) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize zip: %v", err)
	}
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := createTestZip(t, map[string]string{
		"pages/home.json":    `{"name":"home"}`,
		"pages/pricing.json": `{"name":"pricing"}`,
		"assets/logo.png":    "binary",
		"readme.txt":         "readme content",
	})

	t.Run("walk with pages prefix", func(t *testing.T) {
		seen := map[string]string{}
		err := Walk(zipPath, "pages/", func(archive, name string, data []byte) error {
			if archive != zipPath {
				t.Errorf("archive = %s, want %s", archive, zipPath)
			}
			seen[name] = string(data)
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if len(seen) != 2 {
			t.Errorf("visited %d files, want 2", len(seen))
		}
		if seen["pages/home.json"] != `{"name":"home"}` {
			t.Errorf("unexpected content for pages/home.json: %q", seen["pages/home.json"])
		}
	})

	t.Run("walk with no matching prefix", func(t *testing.T) {
		var visited int
		err := Walk(zipPath, "nonexistent/", func(archive, name string, data []byte) error {
			visited++
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if visited != 0 {
			t.Errorf("visited %d files, want 0", visited)
		}
	})

	t.Run("walk with empty prefix", func(t *testing.T) {
		var visited int
		err := Walk(zipPath, "", func(archive, name string, data []byte) error {
			visited++
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
		if visited != 4 {
			t.Errorf("visited %d files, want 4", visited)
		}
	})

	t.Run("walkFn returns error", func(t *testing.T) {
		expectedErr := errors.New("test error")
		err := Walk(zipPath, "pages/", func(archive, name string, data []byte) error {
			return expectedErr
		})
		if err != expectedErr {
			t.Errorf("Walk() error = %v, want %v", err, expectedErr)
		}
	})
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		err := Walk("/nonexistent/file.zip", "", func(archive, name string, data []byte) error {
			return nil
		})
		if err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		err := Walk(invalidZip, "", func(archive, name string, data []byte) error {
			return nil
		})
		if err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestWalk_SkipsDirectories(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)
	dirHeader := &zip.FileHeader{Name: "mydir/"}
	dirHeader.SetMode(os.ModeDir | 0755)
	if _, err := w.CreateHeader(dirHeader); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	fw, err := w.Create("mydir/page.json")
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	fw.Write([]byte("{}"))
	w.Close()
	zipFile.Close()

	var visited []string
	err = Walk(zipPath, "mydir/", func(archive, name string, data []byte) error {
		visited = append(visited, name)
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
	if len(visited) != 1 || visited[0] != "mydir/page.json" {
		t.Errorf("visited = %v, want [mydir/page.json]", visited)
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := createTestZip(t, map[string]string{
		"files/a.json": "{}",
		"files/b.json": "{}",
		"files/c.json": "{}",
	})

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "files/", func(archive, name string, data []byte) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if err != stopErr {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2 (early termination)", visited)
	}
}

func TestWalk_UnsafePaths(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)
	fw, err := w.CreateHeader(&zip.FileHeader{Name: "../escape.json"})
	if err != nil {
		t.Fatalf("Failed to create entry: %v", err)
	}
	fw.Write([]byte("{}"))
	w.Close()
	zipFile.Close()

	err = Walk(zipPath, "", func(archive, name string, data []byte) error {
		t.Errorf("walkFn called for unsafe entry %q", name)
		return nil
	})
	if err == nil {
		t.Error("Expected error for path traversal entry")
	}
}
