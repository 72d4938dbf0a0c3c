package model

// LessonRecord is one timetable entry produced by the XML and JSON adapters.
// Day is 1=Monday..7=Sunday, Hour is the 1-based period number.
type LessonRecord struct {
	Day     int    `json:"day"`
	Hour    int    `json:"hour"`
	Subject string `json:"subject,omitempty"`
	Teacher string `json:"teacher,omitempty"`
	Room    string `json:"room,omitempty"`
	Week    Week   `json:"week,omitempty"`
	Info    string `json:"info,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`

	ChangedSubject bool `json:"changed_subject,omitempty"`
	ChangedTeacher bool `json:"changed_teacher,omitempty"`
	ChangedRoom    bool `json:"changed_room,omitempty"`
}

// Changed reports whether any of subject, teacher or room is flagged as
// changed by a substitution.
func (l LessonRecord) Changed() bool {
	return l.ChangedSubject || l.ChangedTeacher || l.ChangedRoom
}

// Empty reports whether the record carries neither subject, teacher nor room.
func (l LessonRecord) Empty() bool {
	return l.Subject == "" && l.Teacher == "" && l.Room == ""
}

// HourTimeSpec holds the optional "HH:MM" start and end of one period.
type HourTimeSpec struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// IsZero reports whether neither bound is known.
func (h HourTimeSpec) IsZero() bool { return h.Start == "" && h.End == "" }

// MobileWeek is the alternate JSON weekly plan: one entry per calendar date.
type MobileWeek struct {
	Days []MobileDay `json:"days"`
}

// MobileDay lists the lessons of one date in YYYYMMDD form.
type MobileDay struct {
	Date    string         `json:"date"`
	Lessons []MobileLesson `json:"lessons"`
}

// MobileLesson is a lesson as found in the mobile JSON format. Field names
// follow the upstream document.
type MobileLesson struct {
	Hour    HourNumber `json:"stunde"`
	Subject string     `json:"fach,omitempty"`
	Teacher string     `json:"lehrer,omitempty"`
	Room    string     `json:"raum,omitempty"`
	Info    string     `json:"info,omitempty"`
	Start   string     `json:"start,omitempty"`
	End     string     `json:"end,omitempty"`
}
