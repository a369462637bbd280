package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/whetstone/internal/domain"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// cmdProblem runs one interactive review session against the daemon
func cmdProblem(args []string) error {
	fs := flag.NewFlagSet("problem", flag.ExitOnError)
	lang := fs.String("lang", "", "programming language (default from config)")
	level := fs.Int("level", 0, "difficulty level 1-10 (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	fmt.Println("Generating problem...")
	var prob domain.Problem
	if err := postJSON("/v1/problems", map[string]any{
		"language": *lang,
		"level":    *level,
	}, &prob); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Language: %s    Level: %d    Issues to find: %d\n", prob.Language, prob.Level, prob.RequiredIssuesCount)
	if prob.Prerequisite != "" {
		fmt.Printf("Context:  %s\n", prob.Prerequisite)
	}
	fmt.Println()
	fmt.Println("--- Code under review ---")
	fmt.Println(prob.Code)
	fmt.Println("-------------------------")
	fmt.Println()
	fmt.Println("Write your review. Name each issue, where it is, and why it matters.")
	fmt.Println("Finish with a single '.' on its own line.")
	fmt.Println()

	answer, err := readAnswer(os.Stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("empty review, nothing submitted")
	}

	fmt.Println("Grading...")
	var outcome trainer.Outcome
	if err := postJSON("/v1/reviews", map[string]any{
		"problem": prob,
		"answer":  answer,
	}, &outcome); err != nil {
		return err
	}

	printOutcome(outcome)
	return nil
}

// readAnswer reads lines until a lone "." or EOF
func readAnswer(r io.Reader) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "." {
			break
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), scanner.Err()
}

func printOutcome(outcome trainer.Outcome) {
	result := outcome.Entry.EvaluationResult

	fmt.Println()
	fmt.Println("Review Result")
	fmt.Println("=============")
	for _, score := range result.Scores {
		bar := renderProgressBar(float64(score.Score)/10.0, 10)
		fmt.Printf("Issue %d: %s %d/10  %s\n", score.IssueIndex+1, bar, score.Score, score.Feedback)
	}
	fmt.Printf("\nTotal Score: %d/100\n", result.TotalScore)
	if result.OverallFeedback != "" {
		fmt.Printf("\n%s\n", result.OverallFeedback)
	}

	fmt.Printf("\nStreak: %d day(s) (best %d, %d sessions total)\n",
		outcome.Streak.CurrentStreak, outcome.Streak.LongestStreak, outcome.Streak.TotalSessions)

	for _, badge := range outcome.NewBadges {
		fmt.Printf("🏅 Badge unlocked: %s — %s\n", badge.Name, badge.Description)
	}
	for _, title := range outcome.NewTitles {
		fmt.Printf("👑 Title unlocked: %s — %s\n", title.Name, title.Description)
	}
}

// cmdHistory lists past review sessions
func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	lang := fs.String("lang", "", "filter by language")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	path := "/v1/history"
	if *lang != "" {
		path += "?language=" + *lang
	}

	var resp struct {
		Entries []domain.Entry `json:"entries"`
	}
	if err := getJSON(path, &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Println("No review sessions yet. Run 'whetstone problem' to start.")
		return nil
	}

	fmt.Println("Review History")
	fmt.Println("==============")
	for _, e := range resp.Entries {
		fmt.Printf("%s  %-10s L%-2d  %3d/100  %s\n",
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Language, e.Problem.Level,
			e.EvaluationResult.TotalScore,
			e.ID[:8])
	}
	return nil
}

// cmdStreak shows or rebuilds the practice streak
func cmdStreak(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	if len(args) > 0 && args[0] == "rebuild" {
		var rec struct {
			CurrentStreak int `json:"current_streak"`
			LongestStreak int `json:"longest_streak"`
		}
		if err := postJSON("/v1/streak/rebuild", nil, &rec); err != nil {
			return err
		}
		fmt.Printf("Streak rebuilt from history: current %d, longest %d\n", rec.CurrentStreak, rec.LongestStreak)
		return nil
	}

	var rec struct {
		CurrentStreak   int    `json:"current_streak"`
		LongestStreak   int    `json:"longest_streak"`
		LastSessionDate string `json:"last_session_date"`
		TotalSessions   int    `json:"total_sessions"`
	}
	if err := getJSON("/v1/streak", &rec); err != nil {
		return err
	}

	fmt.Printf("Current streak:  %d day(s)\n", rec.CurrentStreak)
	fmt.Printf("Longest streak:  %d day(s)\n", rec.LongestStreak)
	fmt.Printf("Total sessions:  %d\n", rec.TotalSessions)
	if rec.LastSessionDate != "" {
		fmt.Printf("Last session:    %s\n", rec.LastSessionDate)
	}
	return nil
}

// cmdHeatmap renders recent daily activity
func cmdHeatmap(args []string) error {
	fs := flag.NewFlagSet("heatmap", flag.ExitOnError)
	window := fs.Int("days", 28, "window size in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	var resp struct {
		WindowDays int `json:"window_days"`
		Days       []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
			Level int    `json:"level"`
		} `json:"days"`
	}
	if err := getJSON(fmt.Sprintf("/v1/heatmap?window_days=%d", *window), &resp); err != nil {
		return err
	}

	glyphs := []string{"·", "░", "▒", "▓", "█"}
	fmt.Printf("Activity, last %d days (oldest to newest):\n  ", resp.WindowDays)
	for _, day := range resp.Days {
		fmt.Print(glyphs[day.Level])
	}
	fmt.Println()

	active := 0
	for _, day := range resp.Days {
		if day.Count > 0 {
			active++
		}
	}
	fmt.Printf("Active on %d of %d days\n", active, len(resp.Days))
	return nil
}

// cmdAchievements lists badges and titles
func cmdAchievements() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	var resp struct {
		Badges []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Rarity      string `json:"rarity"`
			Unlocked    bool   `json:"unlocked"`
		} `json:"badges"`
		Titles []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Unlocked    bool   `json:"unlocked"`
		} `json:"titles"`
		SelectedTitle string `json:"selected_title"`
	}
	if err := getJSON("/v1/achievements", &resp); err != nil {
		return err
	}

	unlockedBadges := 0
	fmt.Println("Badges")
	fmt.Println("======")
	for _, b := range resp.Badges {
		mark := " "
		if b.Unlocked {
			mark = "✓"
			unlockedBadges++
		}
		fmt.Printf("[%s] %-22s %-9s %s\n", mark, b.Name, b.Rarity, b.Description)
	}
	fmt.Printf("Unlocked: %d/%d\n\n", unlockedBadges, len(resp.Badges))

	unlockedTitles := 0
	fmt.Println("Titles")
	fmt.Println("======")
	for _, t := range resp.Titles {
		mark := " "
		if t.Unlocked {
			mark = "✓"
			unlockedTitles++
		}
		selected := ""
		if t.ID == resp.SelectedTitle {
			selected = " (selected)"
		}
		fmt.Printf("[%s] %-22s %s%s\n", mark, t.Name, t.Description, selected)
	}
	fmt.Printf("Unlocked: %d/%d\n", unlockedTitles, len(resp.Titles))
	return nil
}

// cmdTitle selects the display title
func cmdTitle(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("title id required (see 'whetstone achievements')")
	}

	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	body, err := json.Marshal(map[string]string{"id": args[0]})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, daemonAddr+"/v1/achievements/title", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Printf("✓ Display title set to %s\n", args[0])
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("unknown title: %s", args[0])
	case http.StatusConflict:
		return fmt.Errorf("title %s is not unlocked yet", args[0])
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

// HTTP helpers

func getJSON(path string, out any) error {
	resp, err := http.Get(daemonAddr + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.Body, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := http.Post(daemonAddr+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.Body, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(r io.Reader, status int) error {
	var apiErr struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(r).Decode(&apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Details != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
		}
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("unexpected status: %d", status)
}
