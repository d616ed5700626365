// Package alert models inventory alerts (parts picked up from or added to
// stock) and renders them as LINE text messages.
//
// A Payload arrives as JSON:
//
//	{"employee": "Somchai", "stock": {"bolt": 5, "nut": 10}}
//
// Stock keeps the key order of the JSON object, so the rendered message lists
// items in the same order the caller sent them.
package alert
