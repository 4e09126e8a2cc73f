package service

import (
	"errors"

	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

var errorCodes = []struct {
	err  error
	code int
}{
	{biz.ErrStoreUnavailable, apperrors.ErrStorageUnavailable},
	{biz.ErrStoreWrite, apperrors.ErrStorageWriteFailed},
	{biz.ErrObjectNotFound, apperrors.ErrStorageObjectMissing},
	{biz.ErrInvalidTier, apperrors.ErrStorageInvalidTier},
	{biz.ErrInvalidGranularity, apperrors.ErrStorageInvalidRange},
	{biz.ErrInvalidLimit, apperrors.ErrStorageInvalidRange},
	{biz.ErrInvalidLogoVariant, apperrors.ErrInvalidParams},
	{biz.ErrInvalidLifecycleRule, apperrors.ErrInvalidParams},
	{biz.ErrEmptyUpload, apperrors.ErrInvalidParams},
	{biz.ErrCleanupInProgress, apperrors.ErrStorageCleanupLocked},
	{biz.ErrImageDecode, apperrors.ErrStorageImageDecode},
	{biz.ErrImageEncode, apperrors.ErrStorageImageEncode},
	{biz.ErrVehicleNotFound, apperrors.ErrStorageOwnerNotFound},
	{biz.ErrTenantNotFound, apperrors.ErrStorageOwnerNotFound},
}

// toAppError attaches the business code matching err's sentinel.
// Unknown errors become internal errors and keep no detail.
func toAppError(err error) error {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return apperrors.Wrap(err, m.code, err.Error())
		}
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer, "")
}

func isClientError(err error) bool {
	return apperrors.IsClientError(apperrors.ExtractCode(err))
}
