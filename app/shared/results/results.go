// Package results carries the success/failure split returned by application
// services. A failure is a domain outcome the caller reports to its client;
// an error returned alongside it is an infrastructure fault worth retrying.
package results

// OperationResult holds exactly one of Success or Failure.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a successful payload.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a domain failure.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// Map converts the success payload while keeping any failure.
func Map[S any, F any, T any](r OperationResult[S, F], fn func(S) T) OperationResult[T, F] {
	if r.Success == nil {
		return OperationResult[T, F]{Failure: r.Failure}
	}
	return SuccessResult[T, F](fn(*r.Success))
}
