package render

const (
	welcomeMessage = "👋 Hi! I'm your real-estate assistant.\n\n" +
		"Send me the details of the property you're visiting, as if you were talking to a colleague. " +
		"For example:\n\n" +
		"💬 \"It's a 65m² T3 on the 2nd floor, rue de la Paix in Lyon. " +
		"Seller price 280k. Good overall condition, DPE D. " +
		"There's a balcony and a cellar. Charges €150/month.\"\n\n" +
		"You can send the details over several messages, text or voice.\n\n" +
		"📋 /fiche shows the current sheet\n" +
		"🗑️ /reset starts a new sheet\n" +
		"❓ /manque lists the fields still to fill"

	resetMessage = "🗑️ Sheet reset!\n" +
		"You can start describing a new property."

	emptySheetMessage = "📋 The sheet is empty for now.\n" +
		"Send me details about the property!"

	completeMessage = "🎉 Well done! All fields are filled!"

	sheetTitle     = "📋 *LISTING SHEET IN PROGRESS*"
	missingTitle   = "❓ *Fields still empty:*"
	unknownCommand = "🤔 I don't know that command.\n\n" +
		"/start, /fiche, /manque and /reset are available."

	transcribingMessage = "🎙️ Transcribing your voice message..."
	failureMarker       = "❌"
	undeliveredMessage  = failureMarker + " The result could not be delivered.\n\nYou can send the voice message again."

	// ackPreviewRunes bounds how much of the user's message is echoed back.
	ackPreviewRunes = 100
)

var categoryIcons = map[string]string{
	"General":            "🏠",
	"Surfaces":           "📐",
	"Rooms":              "🚪",
	"Features":           "✨",
	"Condition & Energy": "🔧",
	"Charges":            "💰",
	"Owner":              "👤",
	"Notes":              "📝",
}
