package utils

import (
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Catalog keys. English output is the key itself.
const (
	bookingMessageKey      = "New appointment from %s for %s"
	cancellationSubjectKey = "Appointment canceled"
	cancellationBodyKey    = "Hello %s, %s canceled the appointment scheduled for %s."
)

var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Date layouts per supported locale, in monday's localized layout syntax.
var localeLayouts = map[language.Tag]struct {
	locale monday.Locale
	layout string
}{
	language.AmericanEnglish:     {monday.LocaleEnUS, "January 2, at 15:04"},
	language.BrazilianPortuguese: {monday.LocalePtBR, "dia 02 de January, às 15:04h"},
}

func init() {
	pt := language.BrazilianPortuguese
	_ = message.SetString(pt, bookingMessageKey, "Novo agendamento de %s para %s")
	_ = message.SetString(pt, cancellationSubjectKey, "Agendamento cancelado")
	_ = message.SetString(pt, cancellationBodyKey, "Olá %s, %s cancelou o agendamento marcado para %s.")
}

// DateFormatter renders dates and user-facing texts for one locale and
// time zone.
type DateFormatter struct {
	tag      language.Tag
	printer  *message.Printer
	location *time.Location
}

// NewDateFormatter falls back to American English when locale is unknown
// and to UTC when loc is nil.
func NewDateFormatter(locale string, loc *time.Location) *DateFormatter {
	requested, err := language.Parse(locale)
	if err != nil {
		requested = language.AmericanEnglish
	}
	_, idx, _ := localeMatcher.Match(requested)
	tag := supportedLocales[idx]

	if loc == nil {
		loc = time.UTC
	}
	return &DateFormatter{tag: tag, printer: message.NewPrinter(tag), location: loc}
}

func (f *DateFormatter) Locale() language.Tag {
	return f.tag
}

func (f *DateFormatter) Location() *time.Location {
	return f.location
}

// Format renders t as a day, month and hour, e.g. "June 10, at 14:00"
// or "dia 10 de junho, às 14:00h".
func (f *DateFormatter) Format(t time.Time) string {
	l := localeLayouts[f.tag]
	return monday.Format(t.In(f.location), l.layout, l.locale)
}

func (f *DateFormatter) BookingMessage(customerName string, date time.Time) string {
	return f.printer.Sprintf(bookingMessageKey, customerName, f.Format(date))
}

func (f *DateFormatter) CancellationSubject() string {
	return f.printer.Sprintf(cancellationSubjectKey)
}

func (f *DateFormatter) CancellationBody(providerName, customerName string, date time.Time) string {
	return f.printer.Sprintf(cancellationBodyKey, providerName, customerName, f.Format(date))
}
