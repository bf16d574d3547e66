package integrations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/mwangi2684/coachmarket/configs"
)

// CalendarService pushes booking events to the calendar bridge. Strictly
// fire-and-forget: errors are returned for logging only and never block a
// booking transition.
type CalendarService struct {
	APIBase string
	Token   string
	Client  *http.Client
}

func NewCalendarService() *CalendarService {
	return &CalendarService{
		APIBase: config.Config("CALENDAR_API_BASE_URL"),
		Token:   config.Config("CALENDAR_API_TOKEN"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *CalendarService) Enabled() bool {
	return s.APIBase != "" && s.Token != ""
}

type calendarEvent struct {
	Summary   string `json:"summary"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Attendees []string `json:"attendees"`
}

func (s *CalendarService) do(method, path string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.APIBase, path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar %s %s: %s", method, path, string(raw))
	}
	return nil
}

func (s *CalendarService) CreateEvent(eventID, summary string, start, end time.Time, attendees []string) error {
	if !s.Enabled() {
		return nil
	}
	return s.do("PUT", fmt.Sprintf("/events/%s", eventID), calendarEvent{
		Summary:   summary,
		Start:     start.UTC().Format(time.RFC3339),
		End:       end.UTC().Format(time.RFC3339),
		Attendees: attendees,
	})
}

func (s *CalendarService) UpdateEvent(eventID string, start, end time.Time) error {
	if !s.Enabled() {
		return nil
	}
	return s.do("PATCH", fmt.Sprintf("/events/%s", eventID), map[string]string{
		"start": start.UTC().Format(time.RFC3339),
		"end":   end.UTC().Format(time.RFC3339),
	})
}

func (s *CalendarService) DeleteEvent(eventID string) error {
	if !s.Enabled() {
		return nil
	}
	return s.do("DELETE", fmt.Sprintf("/events/%s", eventID), nil)
}
