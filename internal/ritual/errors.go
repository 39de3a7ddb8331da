package ritual

import (
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/session"
)

var (
	ErrNotAuthenticated  = session.ErrNotAuthenticated
	ErrRemoteUnavailable = session.ErrRemoteUnavailable
	ErrInvalidDateFormat = model.ErrInvalidDateFormat
	ErrEmptyKeystone     = model.ErrKeystoneTextRequired
)
