package filestorage

import (
	"mime/multipart"
)

// FileStorage defines the interface for certificate file storage. The
// production deployment fronts an object store; this interface keeps the
// registrar flow independent of the backend.
type FileStorage interface {
	// SaveFile saves a file and returns the URL it is reachable at
	SaveFile(fileHeader *multipart.FileHeader) (string, error)

	// SaveFileWithPath lets you specify a subdirectory for storing the file
	SaveFileWithPath(fileHeader *multipart.FileHeader, path string) (string, error)

	// DeleteFile removes a file from storage
	DeleteFile(filePath string) error
}
