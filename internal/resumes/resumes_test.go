package resumes

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ValidPDF(t *testing.T) {
	f, err := Open(filepath.Join("testdata", "resume.pdf"))
	require.NoError(t, err)

	assert.Equal(t, "resume.pdf", f.Name())
	assert.Equal(t, MIMEType, f.MIME)
	assert.Equal(t, 1, f.Pages)
	assert.Positive(t, f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	head := make([]byte, 5)
	_, err = io.ReadFull(rc, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
}

func TestOpen_ContentSniffingIgnoresExtension(t *testing.T) {
	dir := t.TempDir()

	// A PDF with a misleading extension is accepted
	data, err := os.ReadFile(filepath.Join("testdata", "resume.pdf"))
	require.NoError(t, err)
	disguised := filepath.Join(dir, "resume.bin")
	require.NoError(t, os.WriteFile(disguised, data, 0o644))
	_, err = Open(disguised)
	assert.NoError(t, err)

	// Text renamed to .pdf is rejected
	fake := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(fake, []byte("just some text"), 0o644))
	_, err = Open(fake)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestOpen_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		unsupported bool
	}{
		{"plain text", filepath.Join("testdata", "resume.txt"), true},
		{"docx", filepath.Join("testdata", "resume.docx"), true},
		{"broken pdf", filepath.Join("testdata", "broken.pdf"), true},
		{"missing", filepath.Join("testdata", "nope.pdf"), false},
		{"directory", "testdata", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Open(tt.path)
			require.Error(t, err)
			assert.Nil(t, f)

			var fileErr *FileError
			assert.ErrorAs(t, err, &fileErr)
			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
			}
		})
	}
}

func TestOpen_Empty(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	_, err := Open(empty)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestPartition(t *testing.T) {
	paths := []string{
		filepath.Join("testdata", "resume.txt"),
		filepath.Join("testdata", "resume.pdf"),
		filepath.Join("testdata", "broken.pdf"),
	}

	accepted, rejected := Partition(paths)
	require.Len(t, accepted, 1)
	assert.Equal(t, "resume.pdf", accepted[0].Name())
	require.Len(t, rejected, 2)
	assert.Equal(t, paths[0], rejected[0].Path)
	assert.Equal(t, paths[2], rejected[1].Path)
}
