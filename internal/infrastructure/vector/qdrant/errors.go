package qdrant

import (
	"errors"
	"fmt"
	"strings"
)

type httpStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *httpStatusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("qdrant status: %s", e.Status)
	}
	return fmt.Sprintf("qdrant status: %s: %s", e.Status, e.Body)
}

func asHTTPStatus(err error, target **httpStatusError) bool {
	return errors.As(err, target)
}
