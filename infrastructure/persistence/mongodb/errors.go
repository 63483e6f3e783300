package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	pkgerrors "templatehub/pkg/errors"
)

// mapError converts driver errors into AppErrors. It is applied at every
// return of the Store.
func mapError(op string, err error) error {
	if err == nil || pkgerrors.IsAppError(err) {
		return err
	}

	var writeException mongo.WriteException
	var bulkException mongo.BulkWriteException

	switch {
	case mongo.IsDuplicateKeyError(err):
		return pkgerrors.NewWriteConflictError(op, err)
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return pkgerrors.NewNetworkError(fmt.Sprintf("mongodb unreachable during '%s'", op), err)
	case errors.As(err, &writeException), errors.As(err, &bulkException):
		return pkgerrors.NewWriteError(op, err)
	default:
		return pkgerrors.NewDatabaseError(op, err)
	}
}
