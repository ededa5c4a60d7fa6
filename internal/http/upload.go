package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
	"github.com/google/uuid"
)

// maxUploadBytes caps a product archive at 10 MiB.
const maxUploadBytes = 10 << 20

// UploadHandler serves POST /api/v1/products/upload. Admin only; the route
// chain enforces authentication and the role check before this runs.
type UploadHandler struct {
	ProductService *service.ProductService
	UploadDir      string
}

type uploadResponse struct {
	ProductID string `json:"productId"`
	FileName  string `json:"fileName"`
}

// ServeHTTP godoc
//
//	@Summary		Upload a product archive
//	@Description	Accepts a multipart form with a single "zip" file field. The archive is stored under a generated name and registered as a product.
//	@Tags			Products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			zip	formData	file	true	"zip archive, at most 10 MiB"
//	@Success		200	{object}	httpx.Envelope	"data holds productId and fileName"
//	@Failure		401	{object}	httpx.Envelope
//	@Failure		403	{object}	httpx.Envelope	"caller is not an admin"
//	@Failure		422	{object}	httpx.Envelope	"missing, oversized or non-zip file"
//	@Failure		500	{object}	httpx.Envelope
//	@Security		BearerAuth
//	@Router			/api/v1/products/upload [post].
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("zip")
	if err != nil {
		httpx.Fail(w, http.StatusUnprocessableEntity, "Unprocessable Entity - File Upload Error")
		return
	}
	defer file.Close()

	if err := checkZip(file, header); err != nil {
		httpx.Fail(w, http.StatusUnprocessableEntity, "Unprocessable Entity - File Upload Error")
		return
	}

	storedName := uuid.NewString() + ".zip"
	if err := h.saveUpload(file, storedName); err != nil {
		log.Error("saving upload failed", "file", header.Filename, "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	adminID := httpx.UserIDFromCtx(r.Context())
	product, err := h.ProductService.CreateProduct(r.Context(), adminID, storedName, h.UploadDir)
	if err != nil {
		// The file on disk is orphaned; remove it so retries stay clean.
		_ = os.Remove(filepath.Join(h.UploadDir, storedName))
		log.Error("recording product failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.OK(w, "File uploaded successfully", uploadResponse{
		ProductID: product.ID,
		FileName:  product.FileName,
	})
}

// checkZip verifies the upload looks like a zip archive: .zip extension and
// the PK local-file-header magic. The reader is rewound before returning.
func checkZip(file multipart.File, header *multipart.FileHeader) error {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".zip") {
		return errors.New("not a zip file")
	}

	var magic [4]byte
	if _, err := io.ReadFull(file, magic[:]); err != nil {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if magic[0] != 'P' || magic[1] != 'K' {
		return errors.New("not a zip file")
	}
	return nil
}

func (h *UploadHandler) saveUpload(src io.Reader, name string) error {
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return err
	}

	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
