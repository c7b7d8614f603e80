package fileutil

import (
	"fmt"
	"io"
	"os"
)

// Batch stages several files and replaces them together
// ⭐ SSOT: 학습 산출물(아티팩트, 컬럼, 카탈로그)은 모두 Batch로 기록
//
// Add writes each file to a temp file. Commit renames them into place in Add
// order; if any rename fails the files already replaced are restored, so the
// targets end up either all new or all as they were.
type Batch struct {
	files []staged
}

type staged struct {
	path   string
	tmp    string
	backup string // previous file moved aside during Commit; empty if none
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// Add encodes one file into a temp file next to path
func (b *Batch) Add(path string, write func(w io.Writer) error) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	tmp, err := writeTemp(path, write)
	if err != nil {
		return err
	}
	b.files = append(b.files, staged{path: path, tmp: tmp})
	return nil
}

// Commit moves every staged file into place
func (b *Batch) Commit() error {
	for i := range b.files {
		if err := b.files[i].replace(); err != nil {
			b.rollback(i)
			return err
		}
	}
	for _, f := range b.files {
		if f.backup != "" {
			_ = os.Remove(f.backup)
		}
	}
	b.files = nil
	return nil
}

// Discard removes staged temp files that were not committed
func (b *Batch) Discard() {
	for _, f := range b.files {
		_ = os.Remove(f.tmp)
	}
	b.files = nil
}

func (f *staged) replace() error {
	if info, err := os.Lstat(f.path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", f.path)
		}
		f.backup = f.tmp + ".bak"
		if err := os.Rename(f.path, f.backup); err != nil {
			f.backup = ""
			return fmt.Errorf("back up %s: %w", f.path, err)
		}
	}
	if err := os.Rename(f.tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", f.path, err)
	}
	return nil
}

// rollback restores files [0, failed] to their state before Commit
func (b *Batch) rollback(failed int) {
	for i := failed; i >= 0; i-- {
		f := b.files[i]
		if i < failed {
			_ = os.Remove(f.path)
		}
		if f.backup != "" {
			_ = os.Rename(f.backup, f.path)
		}
	}
}
