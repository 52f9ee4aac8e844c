package speech

// locales - порядок локалей для каждого языка интерфейса:
// сначала основной язык, затем нейтральные варианты.
var locales = map[string][]string{
	"english": {"en-US", "en-IN", "en-GB"},
	"hindi":   {"hi-IN", "en-IN", "en-US"},
}

// Locales возвращает порядок локалей для языка. Неизвестный язык
// распознаётся как английский.
func Locales(language string) []string {
	l, ok := locales[language]
	if !ok {
		l = locales["english"]
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Attempt - одна попытка распознавания: движок и локаль.
type Attempt struct {
	Locale     string
	Recognizer Recognizer
}

// Name возвращает имя попытки для логов ("google/en-US").
func (a Attempt) Name() string {
	return a.Recognizer.Name() + "/" + a.Locale
}

// Plan строит попытки: для каждой локали по порядку все движки по порядку.
func Plan(language string, recognizers []Recognizer) []Attempt {
	var plan []Attempt
	for _, locale := range Locales(language) {
		for _, rec := range recognizers {
			plan = append(plan, Attempt{Locale: locale, Recognizer: rec})
		}
	}
	return plan
}
