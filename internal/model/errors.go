package model

import "errors"

// ErrLedgerImmutable is returned by the stock transaction hooks on any update or delete attempt.
var ErrLedgerImmutable = errors.New("stock transactions are append-only")
