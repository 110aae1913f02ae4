// Package version carries the build identity stamped into every response envelope.
package version

// App is the application identity reported in response envelopes.
const App = "webmoe"

// Version is the running build's version identifier.
//
// Overridable at link time:
//
//	go build -ldflags "-X webmoe/pkg/version.Version=1.0.0"
var Version = "0.3.1"
