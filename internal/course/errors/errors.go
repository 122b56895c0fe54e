// Package errors provides sentinel errors for lesson discovery operations.
// These enable consistent classification and improved error handling for discovery stage failures.
package errors

import "errors"

var (
	// ErrContentPathNotFound indicates a configured content path does not exist in the repository.
	ErrContentPathNotFound = errors.New("content path not found")

	// ErrContentDirWalkFailed indicates filesystem traversal of a content directory failed.
	ErrContentDirWalkFailed = errors.New("content directory walk failed")

	// ErrFileReadFailed indicates reading content from a discovered lesson file failed.
	ErrFileReadFailed = errors.New("lesson file read failed")

	// ErrCourseIgnoreCheckFailed indicates checking for .courseignore file failed.
	ErrCourseIgnoreCheckFailed = errors.New("courseignore check failed")

	// ErrNoLessonsFound indicates no lesson files were discovered in any repository.
	ErrNoLessonsFound = errors.New("no lesson files found")

	// ErrInvalidRelativePath indicates calculating relative path from a content base failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")

	// ErrSlugCollision indicates multiple lessons map to the same bundle slug.
	ErrSlugCollision = errors.New("lesson slug collision detected")
)
