package controllers

import (
	"net/http"

	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/internal/media"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

// UploadCategoryImage receives a multipart form with the image under
// "file", the image kind under "tipo" (principal or subcategoria) and the
// category slug under "slug".
func UploadCategoryImage(svc media.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "formulario multipart inválido"))
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "falta el archivo de imagen"))
			return
		}
		defer file.Close()

		result, err := svc.UploadImage(r.Context(), media.UploadImageInput{
			Kind:      media.ImageKind(r.FormValue("tipo")),
			Slug:      r.FormValue("slug"),
			MimeType:  header.Header.Get("Content-Type"),
			SizeBytes: header.Size,
			Body:      file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{
			"message":  "Imagen subida",
			"imageUrl": result.URL,
		})
	}
}
