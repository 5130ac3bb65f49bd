package core

// ConfigurationID identifies the configuration a Client evaluates against:
// the App Configuration service instance (GUID), the environment within it,
// and the collection of features/properties scoped to this client. All
// three are opaque strings supplied by the caller; this package never
// parses or validates their shape.
type ConfigurationID struct {
	GUID          string
	EnvironmentID string
	CollectionID  string
}

func (c ConfigurationID) String() string {
	return c.GUID + "/" + c.EnvironmentID + "/" + c.CollectionID
}
