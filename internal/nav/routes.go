// Package nav decides which console views are reachable for the current
// session and mounts them.
package nav

// Route paths
const (
	PathHome     = "/"
	PathProfile  = "/profile"
	PathSettings = "/settings"
	PathLogin    = "/login"
	PathRegister = "/register"
)

// DefaultAuthenticated is where an authenticated session lands.
const DefaultAuthenticated = PathHome

// Access describes who may mount a route
type Access int

const (
	// Protected routes require a credential
	Protected Access = iota
	// PublicOnly routes are for anonymous sessions; authenticated sessions are sent away
	PublicOnly
)

// String returns the string representation of the access level
func (a Access) String() string {
	if a == PublicOnly {
		return "public"
	}
	return "protected"
}

// Route is one navigable view
type Route struct {
	Path   string
	Title  string
	Access Access
}

// Protected reports whether the route requires a credential
func (r Route) Protected() bool {
	return r.Access == Protected
}

var routes = []Route{
	{Path: PathHome, Title: "Users", Access: Protected},
	{Path: PathProfile, Title: "Profile", Access: Protected},
	{Path: PathSettings, Title: "Settings", Access: Protected},
	{Path: PathLogin, Title: "Login", Access: PublicOnly},
	{Path: PathRegister, Title: "Register", Access: PublicOnly},
}

// Routes returns the route table in menu order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup resolves path to its route.
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
