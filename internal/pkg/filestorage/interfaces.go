package filestorage

import "mime/multipart"

// FileStorage defines the blob-store operations the exam subsystem needs:
// storing uploaded paper/source files, reading a source back for parsing and
// releasing files when a rejected submission is deleted.
type FileStorage interface {
	// SaveFileWithPath stores an upload under a subdirectory and returns the
	// opaque path used to reference it later.
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// ReadFile returns the content of a stored file by its opaque path.
	ReadFile(filePath string) ([]byte, error)

	// DeleteFile removes a stored file. Deleting a missing file is not an
	// error.
	DeleteFile(filePath string) error
}
