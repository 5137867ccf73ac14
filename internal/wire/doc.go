// Package wire defines the JSON representations shared by the REST API and the
// realtime channel.
//
// Schedules are written with both naming variants (start_time and startTime,
// subject and title), announcements mirror content/message and
// active/isActive, and decoders accept either spelling.
package wire
