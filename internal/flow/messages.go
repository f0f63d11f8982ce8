package flow

import "fmt"

// Reason labels recorded when the contact picks a menu option.
const (
	ReasonServices  = "Services"
	ReasonProducts  = "Products"
	ReasonExecutive = "Talk to an Executive"
)

func greetingMenu(company string) string {
	return fmt.Sprintf("Hi 👋\n"+
		"I am a helper bot for *%s*.\n"+
		"\n"+
		"How can I help you today?\n"+
		"\n"+
		"1️⃣ Services\n"+
		"2️⃣ Products\n"+
		"3️⃣ Talk to an Executive\n"+
		"\n"+
		"_Reply with 1, 2, or 3_", company)
}

func welcomeBackMenu(name string) string {
	return fmt.Sprintf("Welcome back %s 👋\n"+
		"\n"+
		"How can we help you today?\n"+
		"\n"+
		"1️⃣ Services\n"+
		"2️⃣ Products\n"+
		"3️⃣ Talk to an Executive\n"+
		"\n"+
		"_Reply with 1, 2, or 3_", name)
}

const (
	menuRetryReply       = "Please reply with 1, 2, or 3 🙂"
	askNameReply         = "Great 😊\nMay I know your *name*?"
	nameRetryReply       = "Please share your *name* 🙂"
	emailRetryReply      = "Please share your *email address* 🙂"
	askMessageReply      = "Got it 👍\nPlease tell us briefly *how we can help you*."
	askMessageTodayReply = "Got it 👍\nPlease tell us briefly *how we can help you today*."
	messageRetryReply    = "Please tell us briefly *how we can help you* 🙂"
)

func askEmailReply(name string) string {
	return fmt.Sprintf("Thanks %s 🙏\nCould you please share your *email address*?", name)
}

func thankYouReply(name string) string {
	return fmt.Sprintf("Thank you %s 😊\nOur team will contact you shortly.", name)
}
