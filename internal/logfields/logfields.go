package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRunType    = "run_type"
	KeyRunStatus  = "run_status"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyScheduleID = "schedule_id"
	KeySchedule   = "schedule_name"
	KeyRepo       = "repository"
	KeyCourse     = "course"
	KeyLesson     = "lesson"
	KeySection    = "section"
	KeyQuiz       = "quiz_id"
	KeyRule       = "rule"
	KeyName       = "name"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func RunType(t string) slog.Attr      { return slog.String(KeyRunType, t) }
func RunStatus(s string) slog.Attr    { return slog.String(KeyRunStatus, s) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Course(c string) slog.Attr       { return slog.String(KeyCourse, c) }
func Lesson(path string) slog.Attr    { return slog.String(KeyLesson, path) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func QuizID(id string) slog.Attr      { return slog.String(KeyQuiz, id) }
func Rule(name string) slog.Attr      { return slog.String(KeyRule, name) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
