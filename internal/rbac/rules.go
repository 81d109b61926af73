package rbac

// Permissions used by the routes.
const (
	PermResultSubmit    = "result:submit"
	PermResultSubmitAny = "result:submit-any"
	PermResultViewOwn   = "result:view-own"
	PermResultViewAll   = "result:view-all"
	PermQuestionImport  = "question:import"
	PermAssetUpload     = "asset:upload"
)

// Default policy. Guests are anonymous test takers with a server-issued id.
var RolePermissions = map[string][]string{
	"student": {
		PermResultSubmit,
		PermResultViewOwn,
	},
	"editor": {
		"question:*",
		PermAssetUpload,
		PermResultViewAll,
	},
	"admin": {
		"*", // everything
	},
}
