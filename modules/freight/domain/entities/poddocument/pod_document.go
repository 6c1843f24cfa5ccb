package poddocument

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrEmpty           = errors.New("pod document is empty")
	ErrTooLarge        = errors.New("pod document is too large")
	ErrUnsupportedType = errors.New("pod document type is not supported")
)

var allowedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/tiff",
}

type Document struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LoadID         uuid.UUID
	FileName       string
	ContentType    string
	Size           int64
	SHA256         string
	Data           []byte
	UploadedBy     uuid.UUID
	CreatedAt      time.Time
}

// New sniffs the content type of data and rejects anything that is not a
// PDF or a scanned image.
func New(organizationID, loadID, uploadedBy uuid.UUID, fileName string, data []byte, maxBytes int64) (Document, error) {
	if len(data) == 0 {
		return Document{}, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Document{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), maxBytes)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	sum := sha256.Sum256(data)
	return Document{
		OrganizationID: organizationID,
		LoadID:         loadID,
		FileName:       fileName,
		ContentType:    mt.String(),
		Size:           int64(len(data)),
		SHA256:         hex.EncodeToString(sum[:]),
		Data:           data,
		UploadedBy:     uploadedBy,
	}, nil
}

// StorageID is the reference recorded on the load.
func (d Document) StorageID() string {
	return "pod/" + d.ID.String()
}

type Repository interface {
	Create(ctx context.Context, doc Document) (Document, error)
}
