// Package guard decides which client routes a session may open and where
// to send it otherwise. Every CLI command declares the route it belongs to.
package guard

import (
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

const (
	RouteLogin              = "/login"
	RouteRegister           = "/register"
	RouteDashboard          = "/dashboard"
	RouteCases              = "/cases"
	RouteQuestionnaire      = "/questionnaire"
	RouteProfessional       = "/professional"
	RouteProfessionalVerify = "/professional/verification"
	RouteAdmin              = "/admin"
	RouteAdminVerifications = "/admin/verifications"
	RouteProfile            = "/profile"
	RouteHealth             = "/health"
)

type access int

const (
	public access = iota
	guestOnly
	authenticated
)

type rule struct {
	prefix string
	access access
	roles  []string
}

// rules are matched longest prefix first.
var rules = []rule{
	{RouteAdminVerifications, authenticated, []string{common.RoleAdmin}},
	{RouteAdmin, authenticated, []string{common.RoleAdmin}},
	{RouteProfessionalVerify, authenticated, []string{common.RoleProfessional}},
	{RouteProfessional, authenticated, []string{common.RoleProfessional}},
	{RouteQuestionnaire, authenticated, []string{common.RoleUser}},
	{RouteDashboard, authenticated, []string{common.RoleUser}},
	{RouteCases, authenticated, nil},
	{RouteProfile, authenticated, nil},
	{RouteLogin, guestOnly, nil},
	{RouteRegister, guestOnly, nil},
	{RouteHealth, public, nil},
}

// Session is what the guard knows about the caller.
type Session struct {
	LoggedIn bool
	Role     string
}

// Decision is the outcome of a route check. When Allowed is false, Redirect
// names the route to show instead.
type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
}

// Home is the landing route for role.
func Home(role string) string {
	switch role {
	case common.RoleAdmin:
		return RouteAdmin
	case common.RoleProfessional:
		return RouteProfessional
	case common.RoleUser:
		return RouteDashboard
	}
	return RouteLogin
}

// Check decides whether s may open route. Administrators may open every
// authenticated route; unknown routes require a login.
func Check(route string, s Session) Decision {
	r, ok := match(route)
	if !ok {
		r = rule{access: authenticated}
	}

	switch r.access {
	case public:
		return Decision{Allowed: true}
	case guestOnly:
		if s.LoggedIn {
			return Decision{Redirect: Home(s.Role), Reason: "already signed in"}
		}
		return Decision{Allowed: true}
	}

	if !s.LoggedIn {
		return Decision{Redirect: RouteLogin, Reason: "sign in first"}
	}
	if len(r.roles) == 0 || s.Role == common.RoleAdmin {
		return Decision{Allowed: true}
	}
	for _, role := range r.roles {
		if role == s.Role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: Home(s.Role), Reason: "not available for role " + s.Role}
}

func match(route string) (rule, bool) {
	for _, r := range rules {
		if route == r.prefix || strings.HasPrefix(route, r.prefix+"/") {
			return r, true
		}
	}
	return rule{}, false
}
