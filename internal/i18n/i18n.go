// Package i18n provides the UI string tables.
package i18n

import "fmt"

// Language represents a UI language. Values match catalog languages.
type Language string

const (
	English Language = "english"
	Hindi   Language = "hindi"
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	English: {
		// Session
		"title":       "Stroop test",
		"intro":       "Name the INK color, not the word.",
		"intro_quit":  "Esc or q quits at any time.",
		"intro_start": "Starting in a moment...",
		"round":       "Round %d of %d",

		// Engines
		"get_ready":    "Get ready...",
		"recording":    "Say the ink color now",
		"processing":   "Recognizing...",
		"show_fingers": "Show fingers: 1 for the first color, 2 for the second...",
		"fingers":      "Fingers",
		"show_color":   "Hold an object of the ink color in the middle of the camera",
		"show_qr":      "Show the QR card of the ink color",
		"click_color":  "Click the ink color",
		"press_key":    "Press the key of the ink color",

		// Feedback
		"correct":  "Correct!",
		"wrong":    "Wrong!",
		"times_up": "Time's up!",

		// Summary
		"summary":           "Score %d/%d",
		"summary_mean":      "Mean reaction time: %.2fs",
		"summary_eff":       "Efficiency: %.2f",
		"summary_stroop":    "Stroop effect: %+.0fms",
		"summary_cancelled": "Session ended early",

		// Notifications
		"notify_device":      "Input device unavailable",
		"notify_device_hint": "Falling back to the keyboard",
		"notify_done":        "Session finished",
	},
	Hindi: {
		"title":       "स्ट्रूप परीक्षण",
		"intro":       "शब्द नहीं, स्याही का रंग बताइए।",
		"intro_quit":  "बाहर निकलने के लिए Esc या q दबाएँ।",
		"intro_start": "कुछ ही क्षण में शुरू...",
		"round":       "प्रश्न %d / %d",

		"get_ready":    "तैयार हो जाइए...",
		"recording":    "अब स्याही का रंग बोलिए",
		"processing":   "पहचान रहे हैं...",
		"show_fingers": "उँगलियाँ दिखाइए: पहले रंग के लिए 1, दूसरे के लिए 2...",
		"fingers":      "उँगलियाँ",
		"show_color":   "स्याही के रंग की कोई वस्तु कैमरे के बीच में रखिए",
		"show_qr":      "स्याही के रंग का QR कार्ड दिखाइए",
		"click_color":  "स्याही के रंग पर क्लिक कीजिए",
		"press_key":    "स्याही के रंग की कुंजी दबाइए",

		"correct":  "सही!",
		"wrong":    "गलत!",
		"times_up": "समय समाप्त!",

		"summary":           "अंक %d/%d",
		"summary_mean":      "औसत प्रतिक्रिया समय: %.2fs",
		"summary_eff":       "दक्षता: %.2f",
		"summary_stroop":    "स्ट्रूप प्रभाव: %+.0fms",
		"summary_cancelled": "सत्र बीच में समाप्त",

		"notify_device":      "इनपुट उपकरण उपलब्ध नहीं",
		"notify_device_hint": "कीबोर्ड का उपयोग किया जाएगा",
		"notify_done":        "सत्र समाप्त",
	},
}

// Table is the string table of one language. It satisfies input.Strings.
type Table struct {
	lang Language
}

// For returns the table for lang; unknown languages get English.
func For(lang string) Table {
	l := Language(lang)
	if _, ok := translations[l]; !ok {
		l = English
	}
	return Table{lang: l}
}

// Language returns the table's language.
func (t Table) Language() Language { return t.lang }

// T returns the translation for the given key.
func (t Table) T(key string) string {
	if s, ok := translations[t.lang][key]; ok {
		return s
	}
	if s, ok := translations[English][key]; ok {
		return s
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for key with args.
func (t Table) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{English, Hindi}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case English:
		return "English"
	case Hindi:
		return "हिन्दी"
	default:
		return string(lang)
	}
}
