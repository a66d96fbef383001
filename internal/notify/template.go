package notify

import "strings"

// Render substitutes {placeholder} tokens in a message template. Unknown
// placeholders are left intact so a template typo stays visible in the
// delivered text instead of vanishing silently.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// callCompletedTemplate is the owner alert sent after a completed call.
const callCompletedTemplate = `Call Completed

Business: {business}
Caller: {caller}
Duration: {duration}s

{summary}`

// CallCompleted renders the owner notification for a finished call.
// The caller number arrives already masked.
func CallCompleted(businessName, maskedCaller, duration, summary string) string {
	return Render(callCompletedTemplate, map[string]string{
		"business": businessName,
		"caller":   maskedCaller,
		"duration": duration,
		"summary":  summary,
	})
}

const appointmentBookedTemplate = `New appointment at {business}: {service} on {date} at {time} for {name}.`

// AppointmentBooked renders the owner notification for an AI-booked appointment.
func AppointmentBooked(businessName, service, date, timeOfDay, customerName string) string {
	return Render(appointmentBookedTemplate, map[string]string{
		"business": businessName,
		"service":  service,
		"date":     date,
		"time":     timeOfDay,
		"name":     customerName,
	})
}
