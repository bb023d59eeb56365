package internal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const keyCopyBufferSize = 1024

// ValidateKeyPath rejects paths that cannot hold a key file.
func ValidateKeyPath(path string) error {
	if path == "" {
		return ErrEmptyKeyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking key path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrKeyPathIsDirectory, path)
	}
	return nil
}

// PersistKeyMaterial writes material to path with mode 0600, replacing any
// existing file. The writer is flushed and closed on every return path.
func PersistKeyMaterial(material []byte, path string) (err error) {
	if err := ValidateKeyPath(path); err != nil {
		return err
	}
	if len(material) == 0 {
		return ErrNoKeyMaterial
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening key file: %w", err)
	}
	w := bufio.NewWriter(f)
	defer func() {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flushing key file: %w", ferr)
		}
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing key file: %w", cerr)
		}
	}()

	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("setting key file permissions: %w", err)
	}

	r := bytes.NewReader(material)
	buf := make([]byte, keyCopyBufferSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing key file: %w", werr)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("reading key material: %w", rerr)
		}
	}
}

// FileStore writes key material to a single file path.
type FileStore struct {
	Path string
}

func (s FileStore) Name() string { return s.Path }

func (s FileStore) Store(_ string, material []byte) error {
	return PersistKeyMaterial(material, s.Path)
}
