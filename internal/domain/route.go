package domain

// Route is transit reference data. Tickets and passes reference routes by
// id only; there is no cascading ownership.
type Route struct {
	ID   string
	Name string
	From string
	To   string
}

// Bus is a vehicle operating on a route.
type Bus struct {
	ID      string
	RouteID string
	Number  string
}

// Station is a named stop on a route.
type Station struct {
	ID      string
	RouteID string
	Name    string
}

// RouteRef is an explicit route reference: always an id, optionally a
// resolved snapshot. Callers resolve once and never pass around an
// ambiguous id-or-object value.
type RouteRef struct {
	ID       string
	Snapshot *Route
}
