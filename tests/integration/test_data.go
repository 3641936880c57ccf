package integration

import (
	"fmt"
	"sync/atomic"
	"time"
)

var emailSeq atomic.Int64

// UniqueEmail generates a unique test email address
func UniqueEmail(suffix string) string {
	return fmt.Sprintf("test-%d-%d-%s@example.com", time.Now().Unix(), emailSeq.Add(1), suffix)
}
