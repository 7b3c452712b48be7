package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/ports"
)

const defaultTextTitle = "Untitled document"

type uploadPayload struct {
	statusPayload
	DocID string `json:"doc_id"`
}

// UploadFile sends a file as multipart form data. When an extractor is
// configured the file is converted to UTF-8 text first, since the RAG
// service indexes uploads as text.
func (uc *CatalogUseCase) UploadFile(ctx context.Context, upload domain.FileUpload) error {
	const operation = "upload file"

	filename := strings.TrimSpace(upload.Filename)
	if filename == "" {
		return domain.WrapError(domain.ErrInvalidInput, operation, errors.New("file name is required"))
	}
	if upload.Body == nil {
		return domain.WrapError(domain.ErrInvalidInput, operation, errors.New("file body is required"))
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = filename
	}

	uploadName := filename
	var body io.Reader = upload.Body
	if uc.extractor != nil && uc.extractor.Supports(filename) {
		extracted, err := uc.extractor.Extract(ctx, filename, upload.Body)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", filename, err)
		}
		uploadName = extracted.Filename
		body = strings.NewReader(extracted.Text)
	}

	tags, err := json.Marshal(cleanTags(upload.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	form := &ports.Form{}
	form.AddFile("file", uploadName, body)
	form.AddField("title", title)
	form.AddField("author", strings.TrimSpace(upload.Author))
	form.AddField("tags", string(tags))

	docID, err := uc.sendUpload(ctx, operation, ports.Call{
		Service:   ports.ServiceRAG,
		Method:    http.MethodPost,
		Path:      pathUploadFile,
		Form:      form,
		Operation: operation,
	})
	if err != nil {
		return err
	}
	slog.Info("document_uploaded", "doc_id", docID, "filename", uploadName)
	return nil
}

type textUploadRequest struct {
	Document string   `json:"document"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Tags     []string `json:"tags"`
}

func (uc *CatalogUseCase) UploadText(ctx context.Context, upload domain.TextUpload) error {
	const operation = "upload text"

	if strings.TrimSpace(upload.Text) == "" {
		return domain.WrapError(domain.ErrInvalidInput, operation, errors.New("document text is required"))
	}
	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = defaultTextTitle
	}

	docID, err := uc.sendUpload(ctx, operation, ports.Call{
		Service: ports.ServiceRAG,
		Method:  http.MethodPost,
		Path:    pathUploadText,
		JSON: textUploadRequest{
			Document: upload.Text,
			Title:    title,
			Author:   strings.TrimSpace(upload.Author),
			Tags:     cleanTags(upload.Tags),
		},
		Operation: operation,
	})
	if err != nil {
		return err
	}
	slog.Info("document_uploaded", "doc_id", docID, "title", title)
	return nil
}

func (uc *CatalogUseCase) sendUpload(ctx context.Context, operation string, call ports.Call) (string, error) {
	raw, err := uc.transport.Do(ctx, call)
	if err != nil {
		return "", err
	}
	var payload uploadPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", malformed(operation, err)
	}
	if !payload.ok() {
		return "", domain.BackendError(operation, payload.failureDetail())
	}
	return payload.DocID, nil
}
