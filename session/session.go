package session

// State is the lifecycle position of the managed identity.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	// StateRefreshing is a sub-state of StateAuthenticated; reads keep working
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

// User is the identity returned by the API's identity and login endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a read-only snapshot of the manager's state.
type Session struct {
	User        *User  `json:"user"`
	AccessToken string `json:"-"`
	Loading     bool   `json:"loading"`
	State       State  `json:"-"`
}

// Auth-flow routes on the garden API.
const (
	RouteMe         = "/auth/me"
	RouteRequestOTP = "/auth/request-otp"
	RouteVerifyOTP  = "/auth/verify-otp"
	RouteRefresh    = "/auth/refresh"
	RouteLogout     = "/auth/logout"
)

var authFlowRoutes = []string{RouteRequestOTP, RouteVerifyOTP, RouteRefresh, RouteLogout}

// meResponse covers both shapes /auth/me has been seen to return: an envelope with
// authenticated/user/access_token, or the bare user object.
type meResponse struct {
	Authenticated *bool  `json:"authenticated"`
	User          *User  `json:"user"`
	AccessToken   string `json:"access_token"`
	ID            any    `json:"id"`
	Email         string `json:"email"`
}

type verifyOTPResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}
