package httpjson

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/kirillkom/ragdesk/internal/core/ports"
)

func encodeMultipart(form *ports.Form) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, file := range form.Files {
		if file.Body == nil {
			return nil, "", fmt.Errorf("multipart file %q has no body", file.Field)
		}
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create multipart file %q: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			return nil, "", fmt.Errorf("copy multipart file %q: %w", file.Field, err)
		}
	}
	for _, field := range form.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("write multipart field %q: %w", field.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
