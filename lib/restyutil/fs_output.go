package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOutput persists raw fetched documents for offline inspection.
// Writes are best-effort: a failure is logged and never surfaced, a broken
// capture directory must not take down a crawl.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents []byte) {
	err := os.WriteFile(filepath.Join(o.directory, id), contents, 0644)
	if err != nil {
		slog.Warn("failed to write captured document", "id", id, "err", err)
	}
}

var urlReplacer = strings.NewReplacer(
	"http://", "",
	"https://", "",
	"/", "_",
	".", "_",
)

// FilenameForUrl converts a fetched URL into a filesystem-safe capture key.
func FilenameForUrl(url string) string {
	return urlReplacer.Replace(url) + ".html"
}
