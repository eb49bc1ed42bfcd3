// ABOUTME: Bidirectional mapping between local events and Google Calendar events
// ABOUTME: A fixed codec table packs typed domain fields into private extended properties
package gcal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"stallbook/models"
)

const dateLayout = "2006-01-02"

// codecEntry is one row of the extension-channel codec: a property key,
// an encoder, a decoder, and the value assumed when the key is absent.
// Encoders returning "" omit the key, so unset fields collapse to their
// defaults on the return trip rather than round-tripping as empty strings.
type codecEntry struct {
	key          string
	encode       func(e *models.LocalEvent) string
	decode       func(v string, e *models.LocalEvent) error
	defaultValue string
}

var codecTable = []codecEntry{
	{
		key:    "eventType",
		encode: func(e *models.LocalEvent) string { return string(e.EventType) },
		decode: func(v string, e *models.LocalEvent) error {
			e.EventType = models.EventType(v)
			return nil
		},
		defaultValue: string(models.EventTypeGeneric),
	},
	{
		key:    "eventCategory",
		encode: func(e *models.LocalEvent) string { return e.EventCategory },
		decode: func(v string, e *models.LocalEvent) error {
			e.EventCategory = v
			return nil
		},
		defaultValue: "other",
	},
	{
		key: "expectedAttendees",
		encode: func(e *models.LocalEvent) string {
			if e.ExpectedAttendees == 0 {
				return ""
			}
			return strconv.Itoa(e.ExpectedAttendees)
		},
		decode: func(v string, e *models.LocalEvent) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expectedAttendees %q: %w", v, err)
			}
			e.ExpectedAttendees = n
			return nil
		},
		defaultValue: "0",
	},
	{
		key:    "productsToBring",
		encode: func(e *models.LocalEvent) string { return strings.Join(e.ProductsToBring, ",") },
		decode: func(v string, e *models.LocalEvent) error {
			if v != "" {
				e.ProductsToBring = strings.Split(v, ",")
			}
			return nil
		},
		defaultValue: "",
	},
	{
		key:    "specialRequirements",
		encode: func(e *models.LocalEvent) string { return e.SpecialRequirements },
		decode: func(v string, e *models.LocalEvent) error {
			e.SpecialRequirements = v
			return nil
		},
		defaultValue: "",
	},
	{
		key: "estimatedRevenue",
		encode: func(e *models.LocalEvent) string {
			if e.EstimatedRevenue == 0 {
				return ""
			}
			return strconv.FormatFloat(e.EstimatedRevenue, 'f', -1, 64)
		},
		decode: func(v string, e *models.LocalEvent) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("estimatedRevenue %q: %w", v, err)
			}
			e.EstimatedRevenue = f
			return nil
		},
		defaultValue: "0",
	},
	{
		key: "localEventId",
		encode: func(e *models.LocalEvent) string {
			if e.ID == uuid.Nil {
				return ""
			}
			return e.ID.String()
		},
		decode: func(v string, e *models.LocalEvent) error {
			id, err := uuid.Parse(v)
			if err == nil {
				e.ID = id
			}
			// A foreign or missing id just means the record is new here.
			return nil
		},
		defaultValue: "",
	},
}

// Fixed colors per event type; Google color ids are small numeric strings.
var eventTypeColors = map[models.EventType]string{
	models.EventTypeFair:        "5",
	models.EventTypeGeneric:     "7",
	models.EventTypeAppointment: "9",
	models.EventTypeDelivery:    "10",
	models.EventTypeMeeting:     "11",
}

const defaultColorID = "1"

// Mapper transforms events between the local and provider schemas. It is
// stateless apart from the configured timezone applied to timed events.
type Mapper struct {
	timeZone string
}

func NewMapper(timeZone string) *Mapper {
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &Mapper{timeZone: timeZone}
}

// ToProviderEvent converts a local event into the Google representation.
func (m *Mapper) ToProviderEvent(e *models.LocalEvent) *calendar.Event {
	location := e.Location
	if location == "" {
		location = e.Address
	}

	event := &calendar.Event{
		Summary:     e.Title,
		Description: e.Description,
		Location:    location,
		ColorId:     colorForEventType(e.EventType),
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	if e.AllDay {
		start := e.StartDate.Format(dateLayout)
		end := start
		if e.EndDate != nil {
			end = e.EndDate.Format(dateLayout)
		}
		event.Start = &calendar.EventDateTime{Date: start}
		event.End = &calendar.EventDateTime{Date: end}
	} else {
		endDate := e.StartDate
		if e.EndDate != nil {
			endDate = *e.EndDate
		}
		event.Start = &calendar.EventDateTime{
			DateTime: e.StartDate.Format(time.RFC3339),
			TimeZone: m.timeZone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: endDate.Format(time.RFC3339),
			TimeZone: m.timeZone,
		}
	}

	private := make(map[string]string)
	for _, entry := range codecTable {
		if v := entry.encode(e); v != "" {
			private[entry.key] = v
		}
	}
	event.ExtendedProperties = &calendar.EventExtendedProperties{Private: private}

	return event
}

// ToLocalEvent converts a Google event into the local schema. Sync fields
// (status, timestamps, calendar id) are the engine's responsibility.
func (m *Mapper) ToLocalEvent(event *calendar.Event) (*models.LocalEvent, error) {
	if event.Start == nil {
		return nil, fmt.Errorf("%w: event %q has no start", ErrMapping, event.Id)
	}

	local := &models.LocalEvent{
		Title:         event.Summary,
		Description:   event.Description,
		Location:      event.Location,
		GoogleEventID: event.Id,
	}

	start, allDay, err := parseEventTime(event.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: event %q start: %v", ErrMapping, event.Id, err)
	}
	local.StartDate = start
	local.AllDay = allDay

	if event.End != nil && (event.End.DateTime != "" || event.End.Date != "") {
		end, _, err := parseEventTime(event.End)
		if err != nil {
			return nil, fmt.Errorf("%w: event %q end: %v", ErrMapping, event.Id, err)
		}
		local.EndDate = &end
	}

	var private map[string]string
	if event.ExtendedProperties != nil {
		private = event.ExtendedProperties.Private
	}

	for _, entry := range codecTable {
		v, ok := private[entry.key]
		if !ok {
			v = entry.defaultValue
		}
		if v == "" && entry.defaultValue == "" {
			continue
		}
		if err := entry.decode(v, local); err != nil {
			return nil, fmt.Errorf("%w: event %q: %v", ErrMapping, event.Id, err)
		}
	}

	return local, nil
}

func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool, error) {
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		return t, false, err
	}
	t, err := time.Parse(dateLayout, edt.Date)
	return t, true, err
}

func colorForEventType(t models.EventType) string {
	if color, ok := eventTypeColors[t]; ok {
		return color
	}
	return defaultColorID
}
