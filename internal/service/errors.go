package service

import (
	apperrors "github.com/yourusername/contest-api/internal/pkg/errors"
)

// Машиночитаемые коды ошибок сервисов
const (
	CodeContestNotFound       = "CONTEST_NOT_FOUND"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeParticipationNotFound = "PARTICIPATION_NOT_FOUND"
	CodePrizeNotFound         = "PRIZE_NOT_FOUND"
	CodeAccessDenied          = "ACCESS_DENIED"
	CodeAdminOnly             = "ADMIN_ONLY"
	CodeContestNotStarted     = "CONTEST_NOT_STARTED"
	CodeContestEnded          = "CONTEST_ENDED"
	CodeContestNotEnded       = "CONTEST_NOT_ENDED"
	CodeAlreadySubmitted      = "ALREADY_SUBMITTED"
	CodeParticipationExists   = "PARTICIPATION_EXISTS"
	CodeNoPrizes              = "NO_PRIZES"
	CodeNoParticipants        = "NO_PARTICIPANTS"
	CodePrizeExists           = "PRIZE_EXISTS"
	CodePrizeNotAwarded       = "PRIZE_NOT_AWARDED"
	CodeAlreadyClaimed        = "ALREADY_CLAIMED"
	CodeInvalidContest        = "INVALID_CONTEST"
	CodeInvalidPrizes         = "INVALID_PRIZES"
	CodeInvalidRole           = "INVALID_ROLE"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeUserExists            = "USER_EXISTS"
	CodeContestLocked         = "CONTEST_LOCKED"
)

func errContestNotFound() error {
	return apperrors.NotFound(CodeContestNotFound, "Contest not found")
}

func errUserNotFound() error {
	return apperrors.NotFound(CodeUserNotFound, "User not found")
}

func errAdminOnly() error {
	return apperrors.Forbidden(CodeAdminOnly, "Only admins can perform this action")
}
