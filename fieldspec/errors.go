package fieldspec

import "fmt"

// ShapeError reports input that decoded successfully but is not a list of
// field objects.
type ShapeError struct {
	Got string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field specs must be a list of objects, got %s", e.Got)
}

// FieldError reports the first element that fails validation. Index is the
// zero-based position in the list, Key the offending attribute.
type FieldError struct {
	Index  int
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d: %s %s", e.Index, e.Key, e.Reason)
}

// SyntaxError reports input that neither the strict nor the lenient parse
// could decode. Err is the strict parser's diagnostic.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unparseable field specs: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
