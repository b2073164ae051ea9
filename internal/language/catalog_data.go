package language

import "unicode"

var hebrew = Catalog{
	Tag:    "he",
	Name:   "Hebrew",
	Script: unicode.Hebrew,
	Messages: map[MessageKey]string{
		MsgGreeting:           "שלום, כאן משיח מחברת המכירות של חבארי.",
		MsgListening:          "אני מקשיבה.",
		MsgAskTime:            "איזה זמן מתאים לך?",
		MsgNoResponse:         "מצטערת, לא שמעתי תשובה. אם תרצה לדבר, תתקשר שוב. יום טוב!",
		MsgTechnicalError:     "מצטערים, ישנה בעיה טכנית. ננסה שוב מאוחר יותר. להתראות!",
		MsgGoodbye:            "תודה ושיהיה יום נהדר!",
		MsgMeetingConfirmed:   "תקבל אישור במייל עם פרטי הפגישה. מחכה לשיחה!",
		MsgPermissionAsk:      "שלום, כאן משיח מחברת המכירות של חבארי. אנחנו עוזרים לחברות להגדיל מכירות בעזרת סוכני בינה מלאכותית. האם זה זמן טוב לדבר? אנא ענה רק כן או לא.",
		MsgPermissionQuestion: "האם זה זמן טוב לדבר? אנא ענה רק כן או לא.",
		MsgNotInterested:      "אין בעיה, תודה על הזמן שלך. שיהיה יום נהדר!",
		MsgRecordingRetry:     "סליחה, לא הצלחתי לשמוע טוב. אפשר לחזור על זה?",
		MsgFallbackShort:      "סליחה, אפשר לחזור על זה?",
	},
	Affirmative: []string{
		"כן", "בטח", "בסדר", "אפשר", "כמובן", "בוודאי", "יאללה", "סבבה", "זמן טוב", "מתאים",
		"yes", "sure", "ok", "okay",
	},
	Negative: []string{
		"לא", "לא עכשיו", "אין לי זמן", "לא מתאים", "עסוק", "עסוקה", "תתקשר אחר כך",
		"no", "not now",
	},
	NotInterested: []string{
		"לא מעוניין", "לא מעוניינת", "לא מעניין אותי", "לא רלוונטי", "תוריד אותי", "אל תתקשרו",
		"not interested",
	},
	Goodbye:     []string{"להתראות", "יום טוב", "יום נהדר", "ביי", "שיהיה לך יום"},
	EchoMarkers: []string{"תמלל", "תמלול", "תמליל", "transcribe", "transcription"},
}

var english = Catalog{
	Tag:    "en",
	Name:   "English",
	Script: unicode.Latin,
	Messages: map[MessageKey]string{
		MsgGreeting:           "Hi, this is Messiah from Habari's Sales Company.",
		MsgListening:          "I'm listening.",
		MsgAskTime:            "Which time works for you?",
		MsgNoResponse:         "Sorry, I didn't hear an answer. If you'd like to talk, please call again. Have a good day!",
		MsgTechnicalError:     "Sorry, we're having a technical issue. We'll try again later. Goodbye!",
		MsgGoodbye:            "Thank you and have a great day!",
		MsgMeetingConfirmed:   "You'll get an email confirmation with the meeting details. Talk soon!",
		MsgPermissionAsk:      "Hi! I'm Messiah from Habari's Sales Company. We help companies increase sales with AI agents. Is this a good time to talk? Please answer only yes or no.",
		MsgPermissionQuestion: "Is this a good time to talk? Please answer only yes or no.",
		MsgNotInterested:      "No problem, thanks for your time. Have a great day!",
		MsgRecordingRetry:     "Sorry, I couldn't hear you well. Could you say that again?",
		MsgFallbackShort:      "Sorry, could you repeat that?",
	},
	Affirmative:   []string{"yes", "yeah", "yep", "sure", "ok", "okay", "of course", "go ahead", "good time"},
	Negative:      []string{"no", "nope", "not now", "bad time", "busy", "call me later", "call back later"},
	NotInterested: []string{"not interested", "no thanks", "don't want", "not for me", "remove me", "stop calling"},
	Goodbye:       []string{"goodbye", "bye", "have a great day", "have a good day"},
	EchoMarkers:   []string{"transcribe the audio", "transcription of"},
}
