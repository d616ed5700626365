package alert

import (
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used in the message trailer.
const TimeLayout = "2006-01-02 15:04:05"

// Locale names understood by NewFormatter.
const (
	LocaleEnglish = "en"
	LocaleThai    = "th"
)

type wording struct {
	header   string // followed by the item lines
	itemPre  string // between name and quantity
	itemPost string // after quantity
	timeTag  string
	actorTag string
}

var templates = map[string]map[Kind]wording{
	LocaleEnglish: {
		Pickup: {
			header:   "💬 Notice: parts have been picked up from stock 🔴 Details:\n\n📦 Picked up items:",
			itemPre:  " in quantity ",
			itemPost: " units",
			timeTag:  "📅 time: ",
			actorTag: "responsible: ",
		},
		Addition: {
			header:   "💬 Notice: parts have been added to stock 🟢 Details:\n\n📦 Added items:",
			itemPre:  " in quantity ",
			itemPost: " units",
			timeTag:  "📅 time: ",
			actorTag: "performed by: ",
		},
	},
	LocaleThai: {
		Pickup: {
			header:   "💬 เรียนแจ้งมีการดำเนินการเบิกอะไหล่ออกจากคลัง 🔴 รายละเอียดดังนี้:\n\n📦 รายการเบิกดังนี้:",
			itemPre:  " เป็นจำนวน ",
			itemPost: " ชิ้น",
			timeTag:  "📅 เวลา: ",
			actorTag: "รับผิดชอบโดย: ",
		},
		Addition: {
			header:   "💬 เรียนแจ้งมีการดำเนินการเพิ่มอะไหล่เข้าคลัง 🟢 รายละเอียดดังนี้:\n\n📦 รายการเพิ่มดังนี้:",
			itemPre:  " เป็นจำนวน ",
			itemPost: " ชิ้น",
			timeTag:  "📅 เวลา: ",
			actorTag: "ปฏิบัติงานโดย: ",
		},
	},
}

// Formatter renders alert messages. The zero value formats English text in
// the timestamp's own location.
type Formatter struct {
	locale   string
	location *time.Location
}

// NewFormatter returns a formatter for locale ("en" or "th"; anything else
// falls back to "en"). A nil location keeps timestamps as given.
func NewFormatter(locale string, loc *time.Location) Formatter {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := templates[locale]; !ok {
		locale = LocaleEnglish
	}
	return Formatter{locale: locale, location: loc}
}

func (f Formatter) Locale() string {
	if f.locale == "" {
		return LocaleEnglish
	}
	return f.locale
}

// Format builds the message: a header per kind, one line per item in payload
// order, then the timestamp and the actor.
func (f Formatter) Format(kind Kind, p Payload, now time.Time) string {
	w, ok := templates[f.Locale()][kind]
	if !ok {
		w = templates[f.Locale()][Pickup]
	}
	if f.location != nil {
		now = now.In(f.location)
	}

	var b strings.Builder
	b.WriteString(w.header)
	for _, it := range p.Items() {
		b.WriteString("\n- ")
		b.WriteString(it.Name)
		b.WriteString(w.itemPre)
		b.WriteString(strconv.Itoa(it.Quantity))
		b.WriteString(w.itemPost)
	}
	b.WriteString("\n\n")
	b.WriteString(w.timeTag)
	b.WriteString(now.Format(TimeLayout))
	b.WriteString("\n")
	b.WriteString(w.actorTag)
	b.WriteString(p.Actor())
	return b.String()
}
