// Package browser implements core.Page on top of playwright-go.
//
// A Session owns one Chromium browser context. Interactive elements inside
// the viewport are indexed by an injected script that tags them with a data
// attribute; Click, Type and the dropdown operations address elements by
// that index, so indices are only valid for the most recent State call.
//
// Usage:
//
//	s, err := browser.Launch(func(o *browser.Options) { o.Headless = true })
//	if err != nil { ... }
//	defer s.Close()
//	rc := core.NewRunContext(ctx, func(o *core.RunContextOptions) { o.Page = s })
package browser
