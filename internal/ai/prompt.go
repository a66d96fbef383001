package ai

import (
	"strings"

	"github.com/Deverdnd/neverdnd-call-handler/internal/appointment"
	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"
)

// buildSystemPrompt conditions the model on the tenant persona. The scheduling
// protocol is appended only when the tenant's tier allows booking; otherwise
// the model is told to take a message instead.
func buildSystemPrompt(cfg business.Config, canSchedule bool) string {
	info := cfg.BusinessInfo
	if strings.TrimSpace(info) == "" {
		info = "a business"
	}
	tone := cfg.Tone
	if strings.TrimSpace(tone) == "" {
		tone = "professional"
	}
	instructions := cfg.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = "None"
	}

	var b strings.Builder
	b.WriteString("You are an AI phone assistant for ")
	b.WriteString(info)
	b.WriteString(".\n\nYour personality: ")
	b.WriteString(tone)
	b.WriteString("\n\nBusiness Information:\n")
	b.WriteString(info)
	b.WriteString("\n\nAdditional Instructions:\n")
	b.WriteString(instructions)
	b.WriteString("\n\nRules:\n")
	b.WriteString(strings.Join([]string{
		"1. Keep responses under 50 words",
		"2. Be helpful and friendly",
		"3. If you don't know something, say you'll have someone call back",
		"4. Never make up information",
		"5. Stay on topic - you're a phone assistant",
	}, "\n"))

	if canSchedule {
		b.WriteString("\n\n")
		b.WriteString(schedulingProtocol(cfg.Name))
	} else {
		b.WriteString("\n\nIf a customer asks to schedule an appointment, politely inform them that you can take a message and someone will call them back to schedule. Ask for their name and phone number.")
	}
	return b.String()
}

func schedulingProtocol(businessName string) string {
	if strings.TrimSpace(businessName) == "" {
		businessName = "this business"
	}
	return strings.Join([]string{
		"IMPORTANT SCHEDULING CAPABILITIES:",
		"You CAN schedule appointments for " + businessName + "! When a customer wants to book an appointment:",
		"",
		"1. First, ask what service they need",
		"2. Then ask when they'd like to come in (day and time)",
		"3. Get their name",
		"4. Get their phone number",
		"5. For auto shops: ask about their vehicle (year, make, model)",
		"6. Ask if they have any special requests or concerns",
		"",
		"Once you have all this information, respond with EXACTLY this format:",
		"",
		appointment.BeginSentinel,
		"Service: [service type]",
		"Date: [YYYY-MM-DD format]",
		"Time: [HH:MM format in 24-hour]",
		"Name: [customer name]",
		"Phone: [phone number]",
		"Vehicle: [year make model] (if applicable)",
		"Notes: [any special notes]",
		appointment.EndSentinel,
		"",
		"Be conversational and natural while collecting this information!",
	}, "\n")
}

// historyMessages maps session turns onto chat roles.
func historyMessages(history []session.Turn) []Message {
	msgs := make([]Message, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == session.RoleAgent {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: t.Text})
	}
	return msgs
}
