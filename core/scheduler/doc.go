// Package scheduler turns an hourly mode plan into device-side calendar
// entries and keeps both in sync as time advances. A full replan runs only
// when the forecast horizon has moved past the last planned watermark; every
// replan re-derives ground truth from the device, deletes conflicting and
// expired entries, and recreates the entries the new plan requires. Failed
// device calls are logged and skipped; the absent handler causes a natural
// retry on the next admitted cycle.
package scheduler
