package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/poddocument"
)

type PODDocumentRepository struct{}

func NewPODDocumentRepository() poddocument.Repository {
	return &PODDocumentRepository{}
}

func (r *PODDocumentRepository) Create(ctx context.Context, doc poddocument.Document) (poddocument.Document, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return poddocument.Document{}, err
	}
	doc.OrganizationID = tenantID
	if err := tx.QueryRow(ctx, `
		INSERT INTO freight_pod_documents (
			organization_id, load_id, file_name, content_type, size_bytes, sha256, data, uploaded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		tenantID, doc.LoadID, doc.FileName, doc.ContentType, doc.Size, doc.SHA256, doc.Data, doc.UploadedBy,
	).Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return poddocument.Document{}, gerrors.Wrap(err, "create pod document")
	}
	return doc, nil
}
