package routes

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Upstream selects which service a route is forwarded to.
type Upstream int

const (
	Backend Upstream = iota
	ConfigService
)

func (u Upstream) String() string {
	if u == ConfigService {
		return "config"
	}
	return "backend"
}

// Route maps one public method+path (relative to /api) onto an upstream path.
// Every :param in Path must appear in Target.
type Route struct {
	Method   string
	Path     string
	Target   string
	Upstream Upstream
}

func r(method, path, target string) Route {
	return Route{Method: method, Path: path, Target: target}
}

func WorkItemRoutes() []Route {
	return []Route{
		r(fiber.MethodGet, "/workitems", "/workitems"),
		r(fiber.MethodPost, "/workitems", "/workitems"),
		r(fiber.MethodPatch, "/workitems/:taskId", "/workitems/:taskId"),
		r(fiber.MethodDelete, "/workitems/:taskId", "/workitems/:taskId"),
	}
}

func TaskRoutes() []Route {
	return []Route{
		r(fiber.MethodGet, "/tasks", "/tasks"),
		r(fiber.MethodGet, "/tasks/export/excel", "/export/excel"),
		r(fiber.MethodGet, "/tasks/:taskId/updates", "/tasks/:taskId/updates"),
		r(fiber.MethodGet, "/tasks/:taskId", "/tasks/:taskId"),
		r(fiber.MethodPatch, "/tasks/:taskId", "/tasks/:taskId"),
	}
}

func ReportRoutes() []Route {
	return []Route{
		r(fiber.MethodGet, "/reports/daily", "/reports/daily"),
		r(fiber.MethodGet, "/reports/weekly", "/reports/weekly"),
		r(fiber.MethodGet, "/reports/monthly", "/reports/monthly"),
	}
}

// ProjectRoutes covers organizations, projects, sprints, retrospectives,
// project team members and roles.
func ProjectRoutes() []Route {
	return []Route{
		r(fiber.MethodGet, "/organizations", "/organizations"),
		r(fiber.MethodPost, "/organizations", "/organizations"),
		r(fiber.MethodGet, "/organizations/:id", "/organizations/:id"),
		r(fiber.MethodPatch, "/organizations/:id", "/organizations/:id"),
		r(fiber.MethodDelete, "/organizations/:id", "/organizations/:id"),

		r(fiber.MethodGet, "/projects", "/projects"),
		r(fiber.MethodPost, "/projects", "/projects"),
		r(fiber.MethodGet, "/projects/:id", "/projects/:id"),
		r(fiber.MethodPatch, "/projects/:id", "/projects/:id"),
		r(fiber.MethodDelete, "/projects/:id", "/projects/:id"),

		r(fiber.MethodGet, "/projects/:id/team_members", "/projects/:id/team_members"),
		r(fiber.MethodPost, "/projects/:id/team_members", "/projects/:id/team_members"),
		r(fiber.MethodPatch, "/projects/:id/team_members/:memberId", "/projects/:id/team_members/:memberId"),
		r(fiber.MethodDelete, "/projects/:id/team_members/:memberId", "/projects/:id/team_members/:memberId"),

		r(fiber.MethodGet, "/projects/:id/roles/:userId", "/projects/:id/roles/:userId"),
		r(fiber.MethodPost, "/projects/:id/roles", "/projects/:id/roles"),
		r(fiber.MethodPatch, "/roles/:roleId", "/roles/:roleId"),

		r(fiber.MethodGet, "/projects/:id/sprints", "/projects/:id/sprints"),
		r(fiber.MethodPost, "/projects/:id/sprints", "/projects/:id/sprints"),
		r(fiber.MethodGet, "/sprints/:id", "/sprints/:id"),
		r(fiber.MethodPatch, "/sprints/:id", "/sprints/:id"),
		r(fiber.MethodDelete, "/sprints/:id", "/sprints/:id"),
		r(fiber.MethodPost, "/sprints/:id/activate", "/sprints/:id/activate"),
		r(fiber.MethodPost, "/sprints/:id/complete", "/sprints/:id/complete"),

		r(fiber.MethodGet, "/sprints/:id/retrospective", "/sprints/:id/retrospective"),
		r(fiber.MethodPost, "/sprints/:id/retrospective", "/sprints/:id/retrospective"),
		r(fiber.MethodPatch, "/sprints/:id/retrospective", "/sprints/:id/retrospective"),
	}
}

func ConfigRoutes() []Route {
	routes := []Route{
		r(fiber.MethodGet, "/config", "/config"),
		r(fiber.MethodPost, "/config", "/config"),
		r(fiber.MethodGet, "/config/defaults", "/config/defaults"),
		r(fiber.MethodGet, "/config/:key", "/config/:key"),
		r(fiber.MethodPost, "/config/:key", "/config/:key"),
		r(fiber.MethodDelete, "/config/:key", "/config/:key"),
	}
	for i := range routes {
		routes[i].Upstream = ConfigService
	}
	return routes
}

// TeamRoutes covers users, teams, team membership, project/team mapping and
// the project access check.
func TeamRoutes() []Route {
	return []Route{
		r(fiber.MethodGet, "/users", "/users"),
		r(fiber.MethodPost, "/users", "/users"),
		r(fiber.MethodGet, "/users/:id", "/users/:id"),
		r(fiber.MethodPatch, "/users/:id", "/users/:id"),
		r(fiber.MethodDelete, "/users/:id", "/users/:id"),

		r(fiber.MethodGet, "/teams", "/teams"),
		r(fiber.MethodPost, "/teams", "/teams"),
		r(fiber.MethodGet, "/teams/:id", "/teams/:id"),
		r(fiber.MethodPatch, "/teams/:id", "/teams/:id"),
		r(fiber.MethodDelete, "/teams/:id", "/teams/:id"),

		r(fiber.MethodGet, "/teams/:id/members", "/teams/:id/members"),
		r(fiber.MethodPost, "/teams/:id/members", "/teams/:id/members"),
		r(fiber.MethodDelete, "/teams/:id/members/:userId", "/teams/:id/members/:userId"),

		r(fiber.MethodGet, "/projects/:id/teams", "/projects/:id/teams"),
		r(fiber.MethodPost, "/projects/:id/teams/:teamId", "/projects/:id/teams/:teamId"),
		r(fiber.MethodDelete, "/projects/:id/teams/:teamId", "/projects/:id/teams/:teamId"),

		r(fiber.MethodGet, "/projects/:id/access/:userId", "/projects/:id/access/:userId"),
	}
}

// Table is every proxied route in registration order. Literal segments are
// listed before parameterized siblings (tasks/export/excel before tasks/:taskId).
func Table() []Route {
	var all []Route
	all = append(all, WorkItemRoutes()...)
	all = append(all, TaskRoutes()...)
	all = append(all, ReportRoutes()...)
	all = append(all, ProjectRoutes()...)
	all = append(all, ConfigRoutes()...)
	all = append(all, TeamRoutes()...)
	return all
}

// TargetPath substitutes each :param segment of pattern with the value from
// param, normalized to a single level of URL path escaping.
func TargetPath(pattern string, param func(name string) string) string {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		raw := param(seg[1:])
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
		segments[i] = url.PathEscape(raw)
	}
	return strings.Join(segments, "/")
}
