package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/venue-planner/internal/common"
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/export"
	"github.com/joseph-ayodele/venue-planner/internal/merge"
	"github.com/joseph-ayodele/venue-planner/internal/planner"
	"github.com/joseph-ayodele/venue-planner/internal/queue"
)

// toStatus maps domain errors onto gRPC codes. Errors that already carry a
// status pass through untouched.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeFor(err), err.Error())
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, export.ErrUnknownFormat):
		return codes.InvalidArgument
	case planner.IsNotFound(err):
		return codes.NotFound
	case errors.Is(err, merge.ErrDuplicateKey):
		return codes.AlreadyExists
	case errors.Is(err, queue.ErrJobNotQueued), errors.Is(err, queue.ErrQueueBusy):
		return codes.FailedPrecondition
	case errors.Is(err, common.ErrUnavailable), errors.Is(err, queue.ErrQueueClosed):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	return codes.Internal
}
