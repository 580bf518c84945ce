package protocol

import "codeberg.org/wrenvik/dutymond/internal/errors"

const (
	ErrPortOpen   = errors.ErrorCode("protocol_port_open_failed")
	ErrPortWrite  = errors.ErrorCode("protocol_port_write_failed")
	ErrPortClosed = errors.ErrorCode("protocol_port_closed")
)
