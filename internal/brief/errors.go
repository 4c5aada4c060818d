package brief

import "errors"

var (
	ErrProviderUnavailable = errors.New("brief provider unavailable")
	ErrGenerationTimeout   = errors.New("brief generation timeout")
	ErrInvalidResponse     = errors.New("brief provider returned invalid response")
)
