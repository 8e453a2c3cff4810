package rbac

const (
	PermQuizView        = "quiz:view"
	PermQuizCreate      = "quiz:create"
	PermQuizViewAnswers = "quiz:view-answers"
	PermSessionPlay     = "session:play"
	PermReportViewOwn   = "report:view-own"
	PermReportViewAll   = "report:view-all"
	PermReviewViewOwn   = "review:view-own"
	PermEventsView      = "events:view"
)

// RolePermissions is the default policy. A trailing "*" matches a prefix.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"session:*",
		"report:view-own",
		"review:view-own",
	},
	"teacher": {
		"quiz:view",
		"quiz:create",
		"quiz:view-answers",
		"session:*",
		"report:view-own",
		"report:view-all",
		"review:view-own",
	},
	"admin": {
		"*", // everything
	},
}
