package core

import (
	"context"
	"io"
)

// FileStore keeps uploaded attachments (purchase invoices, expenditure receipts).
// Keys are opaque and are what the ledger rows store.
type FileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (key string, err error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
}

var ErrFileNotFound = NewError(KindNotFound, "FileNotFound", "file not found")
