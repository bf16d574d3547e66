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

// SchedulingService mirrors bookings into the external scheduling provider
// (Cal.com-compatible API). Every call here is best-effort from the core's
// point of view: callers wrap results in a SideEffect and continue.
type SchedulingService struct {
	APIBase string
	APIKey  string
	Client  *http.Client
}

func NewSchedulingService() *SchedulingService {
	return &SchedulingService{
		APIBase: config.Config("SCHEDULING_API_BASE_URL"),
		APIKey:  config.Config("SCHEDULING_API_KEY"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the integration is configured; the core treats an
// unconfigured provider as a silent no-op.
func (s *SchedulingService) Enabled() bool {
	return s.APIBase != "" && s.APIKey != ""
}

type externalBooking struct {
	UID string `json:"uid"`
}

func (s *SchedulingService) do(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s?apiKey=%s", s.APIBase, path, s.APIKey), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("scheduling provider %s %s: %s", method, path, string(raw))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreateBooking mirrors a new booking and returns the provider's correlation
// id for later cancel/reschedule calls.
func (s *SchedulingService) CreateBooking(coachEmail, studentEmail string, start, end time.Time, title string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	payload := map[string]interface{}{
		"title":     title,
		"start":     start.UTC().Format(time.RFC3339),
		"end":       end.UTC().Format(time.RFC3339),
		"attendees": []map[string]string{{"email": coachEmail}, {"email": studentEmail}},
	}
	var created externalBooking
	if err := s.do("POST", "/v2/bookings", payload, &created); err != nil {
		return "", err
	}
	return created.UID, nil
}

func (s *SchedulingService) CancelBooking(ref, reason string) error {
	if !s.Enabled() || ref == "" {
		return nil
	}
	payload := map[string]string{"cancellationReason": reason}
	return s.do("POST", fmt.Sprintf("/v2/bookings/%s/cancel", ref), payload, nil)
}

func (s *SchedulingService) RescheduleBooking(ref string, start, end time.Time) error {
	if !s.Enabled() || ref == "" {
		return nil
	}
	payload := map[string]string{
		"start": start.UTC().Format(time.RFC3339),
		"end":   end.UTC().Format(time.RFC3339),
	}
	return s.do("POST", fmt.Sprintf("/v2/bookings/%s/reschedule", ref), payload, nil)
}
