package store

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// writeAtomic marshals data to YAML and writes it to path via a temp file in
// the same directory, so the rename is atomic on the same volume. The written
// content is re-read and validated before the rename, and any previous file
// is kept as path.bak. A header comment is prepended when non-empty.
func writeAtomic(path string, data any, header string) error {
	content, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "yaml marshal")
	}
	if header != "" {
		content = append([]byte(header), content...)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".ryu-tmp-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	written, err := os.ReadFile(tmpName)
	if err != nil {
		return errors.Wrap(err, "read temp file for validation")
	}
	var probe any
	if err := yaml.Unmarshal(written, &probe); err != nil {
		return errors.Wrap(err, "yaml validation failed")
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return errors.Wrap(err, "create backup")
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "atomic rename")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
