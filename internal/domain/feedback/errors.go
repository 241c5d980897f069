package feedback

import "errors"

var (
	ErrFeedbackNotFound      = errors.New("feedback not found")
	ErrDuplicateFeedback     = errors.New("feedback already submitted for this appointment")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrReportNotFound        = errors.New("spam report not found")
	ErrReportAlreadyResolved = errors.New("spam report has already been resolved")
	ErrInvalidReportStatus   = errors.New("invalid spam report status")
	ErrSelfReport            = errors.New("cannot report yourself")
)
