package settings

import "codeberg.org/wrenvik/dutymond/internal/errors"

const (
	ErrOutOfRange   = errors.ErrorCode("settings_out_of_range")
	ErrStoreAccess  = errors.ErrorCode("settings_store_access_failed")
	ErrStoreEncode  = errors.ErrorCode("settings_store_encode_failed")
	ErrStoreDecode  = errors.ErrorCode("settings_store_decode_failed")
	ErrStorePersist = errors.ErrorCode("settings_store_persist_failed")
)
