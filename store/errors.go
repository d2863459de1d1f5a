package store

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/minio/minio-go/v7"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknown      = errors.New("store failure")
)

// Error is returned by every Store operation. Kind is one of ErrNotFound,
// ErrUnauthorized or ErrUnknown; both Kind and Err match errors.Is.
type Error struct {
	Op   string
	Ref  BlobRef
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Ref, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

var authCodes = map[string]bool{
	"AccessDenied":          true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"ExpiredToken":          true,
	"InvalidToken":          true,
	"TokenRefreshRequired":  true,
	"AllAccessDisabled":     true,
}

func classify(op string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case authCodes[resp.Code]:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case op == opDownload && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound):
		return ErrNotFound
	}
	return ErrUnknown
}
