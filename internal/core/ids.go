package core

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewDocumentID returns a stable, sortable document id.
func NewDocumentID() string {
	return "doc_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String())
}

// NewSessionID returns a new session id.
func NewSessionID() string {
	return "ses_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String())
}
