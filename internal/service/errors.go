package service

import (
	"errors"
	"io/fs"
)

var (
	// ErrPathRejected marks a request path that cannot be resolved: a
	// traversal segment, or a category lookup that ran out of tree.
	ErrPathRejected = errors.New("path rejected")

	// ErrProbeFailed wraps any error returned by a filesystem probe.
	ErrProbeFailed = errors.New("probe failed")

	// ErrConfigurationConflict is returned at startup when two types claim
	// the same extension.
	ErrConfigurationConflict = errors.New("configuration conflict")
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
