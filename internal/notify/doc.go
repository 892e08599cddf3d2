// Package notify renders and delivers workspace event notifications.
//
// Notification bodies are written as markdown templates and converted to
// HTML before delivery. Delivery is best-effort: a failed notification is
// logged and dropped, never propagated to the operation that produced it.
package notify
