package controllers

import (
	"io"
	"net/http"

	"github.com/meshilogapp/meshilog-backend/api/middleware"
	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/internal/vision"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

// AnalyzeFood accepts a multipart photo upload under the "image" field and
// returns the recognized dish.
func AnalyzeFood(svc vision.Service, media config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	maxMB := media.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	maxBytes := int64(maxMB) << 20

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image analysis service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image upload"))
			return
		}

		result, err := svc.AnalyzeImage(ctx, middleware.UserIDFromContext(ctx), data, header.Header.Get("Content-Type"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
