package api

import "fmt"

// Kind tags which variant a Response carries.
type Kind int

const (
	// KindSuccess is a 2xx response with a JSON body.
	KindSuccess Kind = iota + 1
	// KindNoContent is a 204 No Content response.
	KindNoContent
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNoContent:
		return "no-content"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Response is the outcome of a successful HTTP exchange: either a decoded
// body or No Content. Callers pick the variant their endpoint allows with
// ExpectSuccess or ExpectNoContent.
type Response[T any] struct {
	Kind Kind
	Body T
}

// Success wraps a decoded body.
func Success[T any](body T) Response[T] {
	return Response[T]{Kind: KindSuccess, Body: body}
}

// NoContent is the 204 variant.
func NoContent[T any]() Response[T] {
	return Response[T]{Kind: KindNoContent}
}

// ExpectSuccess returns the body, failing with ErrInvalidResponse on No Content.
func ExpectSuccess[T any](resp Response[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if resp.Kind != KindSuccess {
		return zero, fmt.Errorf("%w: expected a body, got %s", ErrInvalidResponse, resp.Kind)
	}
	return resp.Body, nil
}

// ExpectNoContent succeeds only on No Content.
func ExpectNoContent[T any](resp Response[T], err error) error {
	if err != nil {
		return err
	}
	if resp.Kind != KindNoContent {
		return fmt.Errorf("%w: expected no content, got %s", ErrInvalidResponse, resp.Kind)
	}
	return nil
}
