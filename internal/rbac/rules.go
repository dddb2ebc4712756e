package rbac

// Permissions used by the quiz API.
const (
	PermQuizView    = "quiz:view"
	PermQuizViewKey = "quiz:view-key" // see correctOption before answering
	PermQuizAnswer  = "quiz:answer"
	PermQuizEdit    = "quiz:edit"
	PermQuizDelete  = "quiz:delete"
	PermQuizImport  = "quiz:import"
	PermAttemptOwn  = "attempt:view-own"
	PermEventsRead  = "events:read"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermQuizView,
		PermQuizAnswer,
		PermAttemptOwn,
	},
	"professor": {
		"quiz:*",
		PermAttemptOwn,
	},
	"admin": {
		"*", // everything
	},
}
