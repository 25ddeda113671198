// Package resumes opens local resume files and rejects anything that is not a PDF.
package resumes

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// MIMEType is the only accepted resume content type.
const MIMEType = "application/pdf"

// ErrUnsupportedFileType is returned for files that are not readable PDFs.
var ErrUnsupportedFileType = errors.New("only PDF files are supported")

// FileError reports why a path was rejected.
type FileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", filepath.Base(e.Path), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", filepath.Base(e.Path), e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// File is a resume on disk that passed the PDF checks.
type File struct {
	Path  string
	Size  int64
	Pages int
	MIME  string
}

// Name is the file's base name, used as the upload filename.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Open opens the file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// Open checks that path is a regular file whose content is a structurally
// valid PDF. Extensions are ignored.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{Path: path, Message: "cannot read file", Cause: err}
	}
	if info.IsDir() {
		return nil, &FileError{Path: path, Message: "is a directory"}
	}
	if info.Size() == 0 {
		return nil, &FileError{Path: path, Message: "file is empty", Cause: ErrUnsupportedFileType}
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Message: "cannot detect file type", Cause: err}
	}
	if !mtype.Is(MIMEType) {
		return nil, &FileError{
			Path:    path,
			Message: fmt.Sprintf("detected %s", mtype.String()),
			Cause:   ErrUnsupportedFileType,
		}
	}

	pages, err := countPages(path, info.Size())
	if err != nil {
		return nil, &FileError{Path: path, Message: "damaged PDF", Cause: errors.Join(ErrUnsupportedFileType, err)}
	}

	return &File{Path: path, Size: info.Size(), Pages: pages, MIME: MIMEType}, nil
}

// countPages parses the PDF cross-reference structure. The parser panics on
// some malformed inputs, so panics are converted to errors.
func countPages(path string, size int64) (pages int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF structure: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, size)
	if err != nil {
		return 0, err
	}
	pages = reader.NumPage()
	if pages == 0 {
		return 0, errors.New("PDF has no pages")
	}
	return pages, nil
}

// Rejection records a path that Partition refused.
type Rejection struct {
	Path string
	Err  error
}

// Partition opens every path, returning accepted files in input order and
// the rejected paths with their reasons.
func Partition(paths []string) ([]*File, []Rejection) {
	var accepted []*File
	var rejected []Rejection
	for _, p := range paths {
		f, err := Open(p)
		if err != nil {
			rejected = append(rejected, Rejection{Path: p, Err: err})
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, rejected
}
