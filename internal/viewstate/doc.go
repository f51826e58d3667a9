// Package viewstate holds the single source of truth for the page's transient view state.
//
// State is changed only through Store.Dispatch with one of the closed set of Action
// variants. Reduce is the pure transition function behind it:
//
//	next, err := Reduce(current, action, sections)
//
// Store adds the observable parts on top of Reduce:
//
//   - Subscribers are called once per committed transition, in registration order,
//     always with a complete snapshot
//   - Every committed SetTheme is persisted and mirrored onto the global dark flag,
//     strictly after the commit
//   - Rejected actions leave the state untouched and are reported as errors that
//     callers are free to ignore
package viewstate
