package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrSubmissionTooEarly     ErrCode = "SUBMISSION_TOO_EARLY"
	ErrSessionNotActive       ErrCode = "SESSION_NOT_ACTIVE"
	ErrDuplicateActiveSession ErrCode = "DUPLICATE_ACTIVE_SESSION"
	ErrExamAccessBlocked      ErrCode = "EXAM_ACCESS_BLOCKED"
	ErrInstanceNotAvailable   ErrCode = "INSTANCE_NOT_AVAILABLE"
	ErrInstanceFull           ErrCode = "INSTANCE_FULL"
	ErrNoQuestions            ErrCode = "NO_QUESTIONS"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to exam candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	case ErrSubmissionTooEarly:
		return "The exam cannot be submitted yet. Keep working until the submission window opens."
	case ErrSessionNotActive:
		return "This exam session is no longer active."
	case ErrDuplicateActiveSession:
		return "You already have an exam in progress. Resume it instead of starting a new one."
	case ErrExamAccessBlocked:
		return "You are not eligible to take the exam. Please wait for administrator approval."
	case ErrInstanceNotAvailable:
		return "This exam instance is not currently open."
	case ErrInstanceFull:
		return "This exam instance has reached its maximum number of candidates."
	case ErrNoQuestions:
		return "This exam has no questions configured."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
