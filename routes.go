package session

import "strings"

// Route constants for the storefront client. Guard rules compare against
// these rather than free-form strings so redirect targets stay consistent.
const (
	RouteLanding        = "/"
	RouteSignIn         = "/login"
	RouteSignUp         = "/signup"
	RouteTerms          = "/terms"
	RouteHome           = "/home"
	RouteShopBrowsing   = "/shops"
	RouteShopManagement = "/myshop"
	RouteOnboarding     = "/onboarding"
	RouteSubscription   = "/subscription"
	RouteCart           = "/cart"
	RouteSettings       = "/settings"
)

var publicPaths = map[string]struct{}{
	RouteLanding: {},
	RouteSignIn:  {},
	RouteSignUp:  {},
	RouteTerms:   {},
}

var authPaths = map[string]struct{}{
	RouteLanding: {},
	RouteSignIn:  {},
	RouteSignUp:  {},
}

// IsPublicPath reports whether the path is reachable without a session.
func IsPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// IsAuthPath reports whether the path belongs to the authentication set
// (landing, sign-in, sign-up). Bootstrap only ever redirects away from these.
func IsAuthPath(path string) bool {
	_, ok := authPaths[path]
	return ok
}

// IsShopPath matches the shop browsing and shop detail pages ("/shops",
// "/shop/{id}"). Customers may visit these before entering a referral code.
func IsShopPath(path string) bool {
	return strings.HasPrefix(path, "/shop")
}
