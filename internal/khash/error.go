package khash

import "errors"

var (
	ErrMissingSalt      = errors.New("khash: salt is not configured")
	ErrTokenTooShort    = errors.New("khash: token must be at least 10 characters to mask")
	ErrInvalidConfigKey = errors.New("khash: config key is not valid base85")
)
