package value

import "errors"

// These mirror the raw::fatal::* interruption names from SPEC_FULL.md
// §7. The executor package turns a returned error's message directly
// into the raised interruption name, so these messages ARE the wire
// names — never change their text without updating SPEC_FULL.md.
var (
	ErrNotAnInteger      = errors.New("raw::fatal::not_an_integer")
	ErrNotAnObject       = errors.New("raw::fatal::not_an_object")
	ErrNotABuf           = errors.New("raw::fatal::not_a_buf")
	ErrNotAChar          = errors.New("raw::fatal::not_a_char")
	ErrNotARawCollection = errors.New("raw::fatal::not_a_raw_collection")
	ErrNotAPtr           = errors.New("raw::fatal::not_a_ptr")
	ErrMathType          = errors.New("raw::fatal::math_type_error")
	ErrDivideZero        = errors.New("raw::fatal::divide_zero")
	ErrOutOfRange        = errors.New("raw::fatal::out_of_range")
	ErrTransmuteNP       = errors.New("raw::fatal::transmute_np")
	ErrTransmuteTE       = errors.New("raw::fatal::transmute_te")
	ErrNotValidUTF8      = errors.New("raw::fatal::not_valid_utf8")
	ErrArgumentNull      = errors.New("raw::fatal::argument_null")
	ErrMetadataDisorder  = errors.New("raw::fatal::metadata_disorder")
)
