package neo4j

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	pkgerrors "templatehub/pkg/errors"
)

const (
	codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
	codeStatementPrefix     = "Neo.ClientError.Statement."
	codeClientErrorPrefix   = "Neo.ClientError."
)

// mapError classifies a driver error into the application error taxonomy.
func mapError(op string, write bool, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || neo4j.IsConnectivityError(err) {
		return pkgerrors.NewNetworkError("graph store unreachable during "+op, err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		switch {
		case neoErr.Code == codeConstraintViolation:
			return pkgerrors.NewWriteConflictError(op, err)
		case strings.HasPrefix(neoErr.Code, codeStatementPrefix):
			return pkgerrors.NewInvalidArgumentError("%s rejected: %s", op, neoErr.Msg).WithCause(err)
		case write && strings.HasPrefix(neoErr.Code, codeClientErrorPrefix):
			return pkgerrors.NewWriteError(op, err)
		}
	}
	return pkgerrors.NewDatabaseError(op, err)
}
