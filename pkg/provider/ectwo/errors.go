package ectwo

import (
	"context"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/fogtools/fogtest/pkg/provider/status"
)

func apiErrors(err awserr.Error) error {
	// handle EC2 API errors
	// https://docs.aws.amazon.com/AWSEC2/latest/APIReference/errors-overview.html
	switch err.Code() {
	case "UnauthorizedOperation", "AuthFailure", "OptInRequired":
		return status.ErrUnauthorized.Wrap(err)
	case "RequestLimitExceeded", "Throttling", "ThrottlingException":
		return status.ErrThrottled.Wrap(err)
	case "IncorrectInstanceState", "IncorrectState", "VolumeInUse":
		return status.ErrBadState.Wrap(err)
	case "InvalidInstanceID.NotFound":
		return status.ErrInstanceNotFound.Wrap(err)
	case "InvalidSnapshot.NotFound":
		return status.ErrSnapshotNotFound.Wrap(err)
	case request.CanceledErrorCode:
		// keep context cancellation visible to callers
		return err
	default:
		return status.ErrProviderAPI.Wrap(err)
	}
}

func toSentinelErrors(err error) error {
	// return sentinel errors defined by the status package
	if err == nil {
		return nil
	}
	if awsErr, isAWS := err.(awserr.Error); isAWS {
		return apiErrors(awsErr)
	}
	return err
}

func toWaitErrors(ctx context.Context, err error) error {
	// waiter failures are either a cancelled context, an exhausted waiter or
	// a plain API error
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if awsErr, isAWS := err.(awserr.Error); isAWS && awsErr.Code() == request.WaiterResourceNotReadyErrorCode {
		return status.ErrWaitTimeout.Wrap(err)
	}
	return toSentinelErrors(err)
}
