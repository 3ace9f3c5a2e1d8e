package files

import "errors"

var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrNotFound     = errors.New("file not found")
	ErrInvalidName  = errors.New("invalid stored name")
	ErrIndexed      = errors.New("file already indexed")
)
