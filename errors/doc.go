/*
Package errors provides semantic error types for fpmstore.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound        = errors.New("record not found")
	    ErrAlreadyExists   = errors.New("record already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrUnsupported     = errors.New("operation not supported")
	    ErrUnauthorized    = errors.New("unauthorized")
	    ErrUnknownMethod   = errors.New("unknown method")
	)

Usage:

	row, err := store.First(ctx, q)
	if err != nil {
	    if errors.IsValidationError(err) {
	        return nil, fmt.Errorf("bad query: %w", err)
	    }
	    return nil, err
	}

Wire Mapping:

Errors crossing the HTTP API travel as an errno and a message. Errno maps a
local error onto its number and APIError restores it on the client, so

	errors.Is(err, errors.ErrNotFound)

holds on both sides of the wire.
*/
package errors
