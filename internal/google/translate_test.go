package google

import (
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"famsync/internal/models"
)

func TestInferEventType(t *testing.T) {
	tests := []struct {
		title string
		want  models.EventType
	}{
		{"Dentist checkup", models.TypeAppointment},
		{"Doctor visit for Sam", models.TypeAppointment},
		{"Team meeting", models.TypeMeeting},
		{"Quick call with school office", models.TypeMeeting}, // "call" outranks "school"
		{"Doctor call", models.TypeAppointment},               // first rule wins
		{"School play rehearsal", models.TypeEducation},
		{"Piano class", models.TypeEducation},
		{"Birthday bash", models.TypeSocial},
		{"Office party", models.TypeSocial},
		{"Family dinner", models.TypeFamily},
		{"Grocery run", models.TypeOther},
		{"", models.TypeOther},
	}

	for _, tt := range tests {
		if got := InferEventType(tt.title); got != tt.want {
			t.Errorf("InferEventType(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestRoundTripPreservesCoreFields(t *testing.T) {
	tr := NewTranslator(time.UTC)

	local := &models.CalendarEvent{
		ID:              "local-1",
		Title:           "Dentist",
		Date:            "2024-05-01",
		Time:            "10:00",
		DurationMinutes: 30,
		Location:        "Main St Clinic",
		Notes:           "Bring insurance card",
		Status:          models.StatusConfirmed,
		Reminders:       []models.Reminder{{Kind: "popup", OffsetMinutes: 15, Enabled: true}},
	}

	remote, err := tr.ToRemote(local)
	if err != nil {
		t.Fatalf("ToRemote failed: %v", err)
	}
	back, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}

	if back.Title != local.Title {
		t.Errorf("title: got %q, want %q", back.Title, local.Title)
	}
	if back.Date != local.Date {
		t.Errorf("date: got %q, want %q", back.Date, local.Date)
	}
	if back.Time != local.Time {
		t.Errorf("time: got %q, want %q", back.Time, local.Time)
	}
	if back.DurationMinutes != local.DurationMinutes {
		t.Errorf("duration: got %d, want %d", back.DurationMinutes, local.DurationMinutes)
	}
	if back.Location != local.Location {
		t.Errorf("location: got %q, want %q", back.Location, local.Location)
	}
	if back.Notes != local.Notes {
		t.Errorf("notes: got %q, want %q", back.Notes, local.Notes)
	}
}

func TestToLocalClampsShortDurations(t *testing.T) {
	tr := NewTranslator(time.UTC)

	remote := &calendar.Event{
		Id:      "r1",
		Summary: "Standup",
		Start:   &calendar.EventDateTime{DateTime: "2024-05-01T10:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-05-01T10:05:00Z"},
	}

	local, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}
	if local.DurationMinutes != models.MinDurationMinutes {
		t.Errorf("duration = %d, want clamp to %d", local.DurationMinutes, models.MinDurationMinutes)
	}
}

func TestToLocalAllDayEvent(t *testing.T) {
	tr := NewTranslator(time.UTC)

	remote := &calendar.Event{
		Id:      "r2",
		Summary: "Spring break",
		Start:   &calendar.EventDateTime{Date: "2024-04-01"},
		End:     &calendar.EventDateTime{Date: "2024-04-02"},
	}

	local, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}
	if local.Date != "2024-04-01" {
		t.Errorf("date = %q, want 2024-04-01", local.Date)
	}
	if local.Time != "" {
		t.Errorf("time = %q, want empty for all-day event", local.Time)
	}
	if local.DurationMinutes != 24*60 {
		t.Errorf("duration = %d, want %d", local.DurationMinutes, 24*60)
	}
}

func TestToLocalDefaultsReminder(t *testing.T) {
	tr := NewTranslator(time.UTC)

	remote := &calendar.Event{
		Id:      "r3",
		Summary: "Checkup",
		Start:   &calendar.EventDateTime{DateTime: "2024-05-01T09:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-05-01T10:00:00Z"},
	}

	local, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}
	if len(local.Reminders) != 1 {
		t.Fatalf("got %d reminders, want 1 default", len(local.Reminders))
	}
	r := local.Reminders[0]
	if r.Kind != "popup" || r.OffsetMinutes != 15 || !r.Enabled {
		t.Errorf("default reminder = %+v, want enabled 15-minute popup", r)
	}
}

func TestToLocalKeepsExplicitReminders(t *testing.T) {
	tr := NewTranslator(time.UTC)

	remote := &calendar.Event{
		Id:      "r4",
		Summary: "Recital",
		Start:   &calendar.EventDateTime{DateTime: "2024-05-01T18:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-05-01T19:00:00Z"},
		Reminders: &calendar.EventReminders{
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 10},
			},
		},
	}

	local, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}
	if len(local.Reminders) != 2 {
		t.Fatalf("got %d reminders, want 2", len(local.Reminders))
	}
	if local.Reminders[0].Kind != "email" || local.Reminders[0].OffsetMinutes != 60 {
		t.Errorf("first reminder = %+v, want 60-minute email", local.Reminders[0])
	}
}

func TestToRemoteOnlyEnabledRemindersCross(t *testing.T) {
	tr := NewTranslator(time.UTC)

	local := &models.CalendarEvent{
		Title:           "Vet",
		Date:            "2024-06-10",
		Time:            "14:00",
		DurationMinutes: 30,
		Status:          models.StatusConfirmed,
		Reminders: []models.Reminder{
			{Kind: "popup", OffsetMinutes: 15, Enabled: true},
			{Kind: "email", OffsetMinutes: 120, Enabled: false},
		},
	}

	remote, err := tr.ToRemote(local)
	if err != nil {
		t.Fatalf("ToRemote failed: %v", err)
	}
	if remote.Reminders.UseDefault {
		t.Error("UseDefault should be false when reminders are explicit")
	}
	if len(remote.Reminders.Overrides) != 1 {
		t.Fatalf("got %d overrides, want 1 (disabled reminders must not cross)", len(remote.Reminders.Overrides))
	}
	if remote.Reminders.Overrides[0].Method != "popup" {
		t.Errorf("override method = %q, want popup", remote.Reminders.Overrides[0].Method)
	}
}

func TestStatusMapping(t *testing.T) {
	tr := NewTranslator(time.UTC)

	tests := []struct {
		local models.EventStatus
		want  string
	}{
		{models.StatusConfirmed, "confirmed"},
		{models.StatusTentative, "tentative"},
		{models.StatusCancelled, "tentative"},
	}

	for _, tt := range tests {
		local := &models.CalendarEvent{
			Title: "x", Date: "2024-01-01", Time: "08:00",
			DurationMinutes: 30, Status: tt.local,
		}
		remote, err := tr.ToRemote(local)
		if err != nil {
			t.Fatalf("ToRemote failed: %v", err)
		}
		if remote.Status != tt.want {
			t.Errorf("status %q maps to %q, want %q", tt.local, remote.Status, tt.want)
		}
	}
}

func TestToLocalUsesFixedTimezone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	tr := NewTranslator(chicago)

	// 15:00Z is 10:00 in Chicago during DST.
	remote := &calendar.Event{
		Id:      "r5",
		Summary: "Lunch",
		Start:   &calendar.EventDateTime{DateTime: "2024-05-01T15:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-05-01T16:00:00Z"},
	}

	local, err := tr.ToLocal(remote)
	if err != nil {
		t.Fatalf("ToLocal failed: %v", err)
	}
	if local.Time != "10:00" {
		t.Errorf("time = %q, want 10:00 (Chicago)", local.Time)
	}
}
