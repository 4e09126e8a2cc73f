package service

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/pkg/response"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// UploadService accepts vehicle photos and tenant logos.
type UploadService struct {
	uc       *biz.UploadUseCase
	maxBytes int64
	logger   *logger.Logger
}

func NewUploadService(uc *biz.UploadUseCase, maxBytes int64, log *logger.Logger) *UploadService {
	return &UploadService{uc: uc, maxBytes: maxBytes, logger: log.Named("upload-api")}
}

func (s *UploadService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/vehicles/:id/images", s.UploadVehicleImage)
	rg.PUT("/tenants/:id/logo", s.UploadTenantLogo)
}

// UploadVehicleImage expects multipart fields "file" and optional "order".
func (s *UploadService) UploadVehicleImage(c *gin.Context) {
	// the form is parsed once, by readFile, under the size limit
	data, ok := s.readFile(c)
	if !ok {
		return
	}

	order := 0
	if raw := c.PostForm("order"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.ErrorWithCode(c, apperrors.ErrInvalidParams, "order must be a non-negative integer")
			return
		}
		order = n
	}

	img, err := s.uc.UploadVehicleImage(c.Request.Context(), c.Param("id"), order, data)
	if err != nil {
		s.fail(c, "vehicle image upload failed", err)
		return
	}
	response.Created(c, toImageResponse(img))
}

func (s *UploadService) UploadTenantLogo(c *gin.Context) {
	variant, err := biz.ParseLogoVariant(c.Query("variant"))
	if err != nil {
		s.fail(c, "invalid logo variant", err)
		return
	}

	data, ok := s.readFile(c)
	if !ok {
		return
	}

	key, size, err := s.uc.UploadTenantLogo(c.Request.Context(), c.Param("id"), variant, data)
	if err != nil {
		s.fail(c, "tenant logo upload failed", err)
		return
	}
	response.Success(c, LogoResponse{Key: key, SizeBytes: size})
}

// readFile reads the "file" form field within the upload limit. It writes the
// error response itself and reports false on failure.
func (s *UploadService) readFile(c *gin.Context) ([]byte, bool) {
	if s.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			response.ErrorWithCode(c, apperrors.ErrStorageFileTooLarge)
			return nil, false
		}
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "multipart field 'file' is required")
		return nil, false
	}

	data, err := readAll(fh)
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("failed to read upload", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrBadRequest, "failed to read upload")
		return nil, false
	}
	return data, true
}

func (s *UploadService) fail(c *gin.Context, msg string, err error) {
	appErr := toAppError(err)
	logError(s.logger, c, msg, appErr)
	response.HandleError(c, appErr)
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge)
}
