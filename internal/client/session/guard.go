package session

// RouteClass says who may see a route.
type RouteClass int

const (
	// RoutePublic renders only while unauthenticated (login, register).
	RoutePublic RouteClass = iota
	// RoutePrivate renders only while authenticated.
	RoutePrivate
)

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	// Allow means the route may render.
	Allow bool
	// RedirectTo names the route to go to instead, when Allow is false.
	RedirectTo string
	// Pending means the session is still resolving persisted credentials;
	// nothing may render yet.
	Pending bool
}

// Guard gates navigable views by session state.
type Guard struct {
	routes      map[string]RouteClass
	publicHome  string
	privateHome string
}

// NewGuard builds a guard over a route table. publicHome is where
// anonymous users land (typically the login view), privateHome where
// authenticated users land.
func NewGuard(routes map[string]RouteClass, publicHome, privateHome string) *Guard {
	table := make(map[string]RouteClass, len(routes))
	for name, class := range routes {
		table[name] = class
	}
	return &Guard{routes: table, publicHome: publicHome, privateHome: privateHome}
}

// Decide evaluates one route against the session state. While the session
// is loading no protected content may render, so the verdict is Pending
// regardless of the route.
func (g *Guard) Decide(state State, route string) Decision {
	if state.Loading {
		return Decision{Pending: true}
	}

	class, ok := g.routes[route]
	if !ok {
		return Decision{RedirectTo: g.fallback(state)}
	}

	switch class {
	case RoutePrivate:
		if state.Authenticated() {
			return Decision{Allow: true}
		}
		return Decision{RedirectTo: g.publicHome}
	case RoutePublic:
		if !state.Authenticated() {
			return Decision{Allow: true}
		}
		return Decision{RedirectTo: g.privateHome}
	default:
		return Decision{RedirectTo: g.fallback(state)}
	}
}

func (g *Guard) fallback(state State) string {
	if state.Authenticated() {
		return g.privateHome
	}
	return g.publicHome
}
