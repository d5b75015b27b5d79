// Provides helper functions for mapping engine errors to HTTP errors.

package handlers

import (
	"errors"
	"net/http"

	"github.com/mirieri/mdb/internal/jsondb"
	"github.com/mirieri/mdb/internal/server/dto"
)

// apiError converts an engine error to an APIError carrying the HTTP status.
func apiError(err error, table string) error {
	var ews dto.ErrorWithStatus
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ews):
		return err
	case errors.Is(err, jsondb.ErrTableNotFound):
		return dto.TableNotFound(table)
	case errors.Is(err, jsondb.ErrKeyNotFound):
		return dto.NotFound("row").Wrap(err)
	case errors.Is(err, jsondb.ErrDuplicateKey),
		errors.Is(err, jsondb.ErrTableExists),
		errors.Is(err, jsondb.ErrSchemaConflict):
		return dto.Conflict(err.Error())
	case errors.Is(err, jsondb.ErrSchema), errors.Is(err, jsondb.ErrInvalidName):
		return dto.BadRequest(err.Error())
	default:
		return dto.InternalWithError("internal error", err)
	}
}

// statusOf returns the HTTP status code of an error produced by apiError.
func statusOf(err error) int {
	var ews dto.ErrorWithStatus
	if errors.As(err, &ews) {
		return ews.StatusCode()
	}
	return http.StatusInternalServerError
}
