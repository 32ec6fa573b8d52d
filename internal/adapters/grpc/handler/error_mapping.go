package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/orgrecords/internal/core/outcome"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch outcome.Kind(err) {
	case outcome.ErrInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case outcome.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case outcome.ErrConflict, outcome.ErrSchedulingConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case outcome.ErrUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	case outcome.ErrUnauthenticated:
		return status.Error(codes.Unauthenticated, err.Error())
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
