package apperr

import "errors"

// ErrInvalidInput is returned when the provided input fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyInput is returned when a job is requested for a list with no lines.
// No job id is allocated in that case.
var ErrEmptyInput = errors.New("no domains provided")

// ErrRequestFailed is returned by the DNS-over-HTTPS backend when the request fails
// at the transport level or the server responds with a non-2xx status code.
var ErrRequestFailed = errors.New("request failed")

// ErrLookupFailed is returned by resolver backends when a DNS query produced no
// usable answer (NXDOMAIN, SERVFAIL, malformed or empty response).
var ErrLookupFailed = errors.New("lookup failed")

// ErrJobNotFound is returned when no job exists for the requested id.
var ErrJobNotFound = errors.New("job not found")

// ErrJobIncomplete is returned when results are requested for a job that has not completed.
var ErrJobIncomplete = errors.New("job not completed")

// ErrJobFinished is returned when a write or cancel targets a job that already left
// the processing state.
var ErrJobFinished = errors.New("job already finished")

// ErrJobCancelled is returned by a batch run that stopped because its job was cancelled.
var ErrJobCancelled = errors.New("job cancelled")
