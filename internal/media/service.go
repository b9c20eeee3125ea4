package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/patitas-pets/patitas-backend/pkg/config"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
	"github.com/patitas-pets/patitas-backend/pkg/slug"
	"github.com/patitas-pets/patitas-backend/pkg/storage/gcs"
)

// ImageKind tells the uploader which folder an image belongs to.
type ImageKind string

const (
	// ImageKindPrincipal is a root category image.
	ImageKindPrincipal ImageKind = "principal"
	// ImageKindSubcategoria is a subcategory image.
	ImageKindSubcategoria ImageKind = "subcategoria"
)

func (k ImageKind) IsValid() bool {
	return k == ImageKindPrincipal || k == ImageKindSubcategoria
}

func (k ImageKind) folder() string {
	if k == ImageKindSubcategoria {
		return "categorias/subcategorias"
	}
	return "categorias/principales"
}

// sniffLen matches http.DetectContentType's window.
const sniffLen = 512

var extensionsByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type objectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Service handles category image uploads and cleanup.
type Service interface {
	UploadImage(ctx context.Context, input UploadImageInput) (*UploadImageOutput, error)
	DeleteByURL(ctx context.Context, publicURL string) error
}

// UploadImageInput carries one multipart image plus its destination.
type UploadImageInput struct {
	Kind      ImageKind
	Slug      string
	MimeType  string
	SizeBytes int64
	Body      io.Reader
}

// UploadImageOutput returns where the object landed.
type UploadImageOutput struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the media service.
func NewService(store objectStore, cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 5
	}
	return &service{
		store:    store,
		maxBytes: int64(maxMB) * 1024 * 1024,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// UploadImage validates the file and writes it to object storage under a key
// derived from the category slug and the upload timestamp. Re-uploading for
// the same slug within the same second overwrites, which is the intent.
func (s *service) UploadImage(ctx context.Context, input UploadImageInput) (*UploadImageOutput, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de imagen inválido").
			WithDetails(map[string]any{"tipo": string(input.Kind)})
	}

	if strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el slug es obligatorio")
	}
	cleanSlug := slug.Make(input.Slug)

	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el archivo está vacío")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("el archivo supera el máximo de %d MB", s.maxBytes/(1024*1024)))
	}

	mimeType, err := normalizeMime(input.MimeType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tipo de archivo inválido")
	}
	ext, ok := extensionsByMime[mimeType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "solo se permiten imágenes JPEG, PNG o WebP").
			WithDetails(map[string]any{"mimeType": mimeType})
	}

	// The declared Content-Type is client input; the magic bytes decide.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "leer imagen")
	}
	head = head[:n]
	if detected := http.DetectContentType(head); detected != mimeType {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el contenido del archivo no coincide con el tipo declarado").
			WithDetails(map[string]any{"declarado": mimeType, "detectado": detected})
	}

	key := fmt.Sprintf("%s/%s-%d.%s", input.Kind.folder(), cleanSlug, s.now().Unix(), ext)

	// LimitReader guards against clients lying about the declared size.
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), input.Body), s.maxBytes+1)
	url, err := s.store.Upload(ctx, key, mimeType, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subir imagen")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"key": key, "mime_type": mimeType, "size_bytes": input.SizeBytes})
		s.logg.Info(logCtx, "media.image_uploaded")
	}

	return &UploadImageOutput{URL: url, Key: key}, nil
}

// DeleteByURL removes an uploaded object given its public URL. URLs outside
// the configured bucket are rejected.
func (s *service) DeleteByURL(ctx context.Context, publicURL string) error {
	key, err := gcs.KeyFromPublicURL(s.store.Bucket(), publicURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "url de imagen inválida")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "eliminar imagen")
	}
	return nil
}

func normalizeMime(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}
