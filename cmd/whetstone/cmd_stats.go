package main

import (
	"fmt"

	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// cmdStats shows aggregate training statistics
func cmdStats() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'whetstone start' first)")
	}

	var summary trainer.Summary
	if err := getJSON("/v1/stats", &summary); err != nil {
		return err
	}

	fmt.Println("Training Statistics")
	fmt.Println("===================")
	fmt.Printf("Current Streak:  %d day(s)\n", summary.Streak.CurrentStreak)
	fmt.Printf("Longest Streak:  %d day(s)\n", summary.Streak.LongestStreak)
	fmt.Printf("Total Sessions:  %d\n", summary.Streak.TotalSessions)
	fmt.Printf("Badges:          %d/%d\n", summary.BadgesUnlocked, summary.BadgesTotal)
	fmt.Printf("Titles:          %d/%d\n", summary.TitlesUnlocked, summary.TitlesTotal)
	if summary.SelectedTitle != "" {
		fmt.Printf("Display Title:   %s\n", summary.SelectedTitle)
	}

	if len(summary.Languages) == 0 {
		fmt.Println("\nNo sessions yet. Run 'whetstone problem' to start practicing.")
		return nil
	}

	fmt.Println("\nPer Language")
	fmt.Println("------------")
	for _, ls := range summary.Languages {
		bar := renderProgressBar(ls.AverageScore/100.0, 20)
		fmt.Printf("%-12s %s avg %.0f  best %d  (%d sessions, %d retained)\n",
			ls.Language, bar, ls.AverageScore, ls.BestScore, ls.Lifetime, ls.Retained)
	}

	return nil
}
