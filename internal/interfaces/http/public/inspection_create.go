package public

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/interfaces/http/common"
)

const submitFailedMessage = "Failed to submit inspection"

// inspectionCreateHandler accepts the intake form.
//
// The multipart body is parsed before any backend call so validation never
// has side effects. Parts above MultipartMemoryBytes are spooled to a temp
// file by net/http and streamed from there to storage.
func (h *Handler) inspectionCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

		if err := parseForm(r); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, "Request body is too large", "")
				return
			}
			common.WriteError(h.logger, w, http.StatusBadRequest, "Invalid form data", err.Error())
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		cmd := application.SubmitCommand{
			StoreName:    r.FormValue("storeName"),
			StoreAddress: r.FormValue("storeAddress"),
			ItemType:     r.FormValue("itemType"),
			Level:        r.FormValue("level"),
			Notes:        r.FormValue("notes"),
		}

		photo, closePhoto, err := formPhoto(r)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "Invalid photo", err.Error())
			return
		}
		defer closePhoto()
		cmd.Photo = photo

		result, err := h.submissions.Submit(r.Context(), cmd)
		if err != nil {
			h.writeSubmitError(w, r, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, inspectionResponse{OK: true, PhotoURL: result.PhotoURL})
	}
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindValidation {
		common.WriteError(h.logger, w, http.StatusBadRequest, err.Error(), "")
		return
	}

	event := h.logger.Error()
	if kind == domain.KindAppend {
		event = event.Bool("partial_failure", true)
	}
	event.
		Err(err).
		Str("kind", kind.String()).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("inspection submission failed")

	common.WriteError(h.logger, w, http.StatusInternalServerError, submitFailedMessage, err.Error())
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(common.MultipartMemoryBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formPhoto returns the photo part, or nil when absent or empty.
func formPhoto(r *http.Request) (*domain.Photo, func(), error) {
	noop := func() {}
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	if header.Size <= 0 {
		file.Close()
		return nil, noop, nil
	}
	return &domain.Photo{
		Filename:    header.Filename,
		ContentType: partContentType(header),
		Size:        header.Size,
		Body:        file,
	}, func() { file.Close() }, nil
}

func partContentType(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Header.Get("Content-Type")
}
