package scanner

import "errors"

// ErrScanInProgress is returned by RunOnce when another scan holds the scanner
var ErrScanInProgress = errors.New("scan already in progress")
