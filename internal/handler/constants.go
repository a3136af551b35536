package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"

	// RouteRegister is the sign-up route.
	RouteRegister = "/users/register"
	// RouteLogin is the login route.
	RouteLogin = "/users/login"
	// RouteLogout is the logout route.
	RouteLogout = "/users/logout"
	// RouteProfile is the combined profile view and edit route.
	RouteProfile = "/users/profile"
	// RouteAccount is the read-only account details route.
	RouteAccount = "/users/account"
	// RouteAccountEdit is the account edit form route.
	RouteAccountEdit = "/users/account/edit"
	// RouteAccountUpdate receives the account edit form.
	RouteAccountUpdate = "/users/account/update"

	// RouteAdmin is the admin prefix.
	RouteAdmin = "/admin"
	// RouteAdminPages is the page tree admin route.
	RouteAdminPages = RouteAdmin + "/pages"
	// RouteAdminImages is the image library admin route.
	RouteAdminImages = RouteAdmin + "/images"
	// RouteAdminUsers is the user admin route.
	RouteAdminUsers = RouteAdmin + "/users"
	// RouteAdminEvents is the event log admin route.
	RouteAdminEvents = RouteAdmin + "/events"
	// RouteAdminScheduler is the scheduled jobs admin route.
	RouteAdminScheduler = RouteAdmin + "/scheduler"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteAPI is the JSON API prefix.
	RouteAPI = "/api/v1"
	// RouteMedia serves stored image files.
	RouteMedia = "/media"
	// RouteStatic serves embedded assets.
	RouteStatic = "/static"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

// Template names.
const (
	tmplHome        = "site/home"
	tmplIndex       = "site/index"
	tmplDetail      = "site/detail"
	tmplAbout       = "site/about"
	tmplNotFound    = "site/404"
	tmplRegister    = "users/register"
	tmplLogin       = "users/login"
	tmplProfile     = "users/profile"
	tmplAccount     = "users/account"
	tmplAccountEdit = "users/account_edit"
	tmplAdminPages  = "admin/pages"
	tmplAdminPage   = "admin/page_form"
	tmplAdminRevs   = "admin/revisions"
	tmplAdminImages = "admin/images"
	tmplAdminUsers  = "admin/users"
	tmplAdminEvents = "admin/events"
	tmplAdminJobs   = "admin/scheduler"
)

// adminPerPage is the page size of admin lists.
const adminPerPage = 25

// maxUploadSize bounds the multipart body of an image upload.
const maxUploadSize = 20 << 20
