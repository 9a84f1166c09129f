// Command timetable_audit pulls the committed timetables from a running API
// instance and checks them for booking conflicts and malformed windows. It is
// meant to run against staging after a generation run; a non-zero exit means
// at least one invariant is broken in the stored schedule.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type slotView struct {
	ID          string `json:"id"`
	CourseName  string `json:"course_name"`
	TeacherName string `json:"teacher_name"`
	RoomName    string `json:"room_name"`
	GroupID     string `json:"group_id"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Kind        string `json:"kind"`
}

type group struct {
	ID string `json:"id"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type violation struct {
	Kind   string
	Detail string
}

var validWindows = map[string]string{
	"08:00": "10:00",
	"10:15": "12:15",
	"14:00": "16:00",
	"16:15": "18:15",
}

const maxDailyHours = 6

func main() {
	var (
		base    string
		token   string
		groups  string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token with read access")
	flag.StringVar(&groups, "groups", "", "Comma-separated group IDs (default: all groups)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &apiClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}

	ids, err := resolveGroups(client, groups)
	if err != nil {
		log.Fatalf("resolve groups: %v", err)
	}
	if len(ids) == 0 {
		log.Fatal("no groups to audit")
	}

	var slots []slotView
	for _, id := range ids {
		groupSlots, err := client.groupTimetable(id)
		if err != nil {
			log.Fatalf("fetch timetable for group %s: %v", id, err)
		}
		slots = append(slots, groupSlots...)
	}

	violations := audit(slots)
	printReport(ids, len(slots), violations)
	if len(violations) > 0 {
		os.Exit(1)
	}
}

func resolveGroups(client *apiClient, flagValue string) ([]string, error) {
	if flagValue != "" {
		var ids []string
		for _, id := range strings.Split(flagValue, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	var all []group
	if err := client.getJSON("/api/v1/groups", &all); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, g := range all {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func audit(slots []slotView) []violation {
	var violations []violation

	type key struct{ resource, name, day, start string }
	seen := map[key]string{}
	dailyCount := map[string]int{}

	for _, s := range slots {
		if end, ok := validWindows[s.StartTime]; !ok || end != s.EndTime {
			violations = append(violations, violation{
				Kind:   "WINDOW",
				Detail: fmt.Sprintf("slot %s has non-canonical window %s-%s", s.ID, s.StartTime, s.EndTime),
			})
		}

		checks := []key{
			{"room", s.RoomName, s.Day, s.StartTime},
			{"teacher", s.TeacherName, s.Day, s.StartTime},
			{"group", s.GroupID, s.Day, s.StartTime},
		}
		for _, k := range checks {
			if k.name == "" {
				continue
			}
			if other, dup := seen[k]; dup {
				violations = append(violations, violation{
					Kind:   "DOUBLE_BOOKING",
					Detail: fmt.Sprintf("%s %q booked by slots %s and %s at %s %s", k.resource, k.name, other, s.ID, k.day, k.start),
				})
				continue
			}
			seen[k] = s.ID
		}

		dailyCount[s.GroupID+"|"+s.Day]++
	}

	for groupDay, count := range dailyCount {
		if count*2 > maxDailyHours {
			parts := strings.SplitN(groupDay, "|", 2)
			violations = append(violations, violation{
				Kind:   "DAILY_CAP",
				Detail: fmt.Sprintf("group %s has %d hours on %s (cap %d)", parts[0], count*2, parts[1], maxDailyHours),
			})
		}
	}

	return violations
}

func printReport(groupIDs []string, slotCount int, violations []violation) {
	fmt.Println("Timetable Audit Report")
	fmt.Println("======================")
	fmt.Printf("Groups audited: %d | Slots: %d\n", len(groupIDs), slotCount)
	if len(violations) == 0 {
		fmt.Println("[OK] no violations found")
		return
	}
	for _, v := range violations {
		fmt.Printf("[%s] %s\n", v.Kind, v.Detail)
	}
	fmt.Printf("Violations: %d\n", len(violations))
}

type apiClient struct {
	base   string
	token  string
	client *http.Client
}

func (c *apiClient) groupTimetable(groupID string) ([]slotView, error) {
	var slots []slotView
	if err := c.getJSON("/api/v1/timetable/groups/"+groupID, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *apiClient) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return fmt.Errorf("api error %s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
