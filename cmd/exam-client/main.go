package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Bandi-Aditya/OfflineExam/internal/client"
	"github.com/Bandi-Aditya/OfflineExam/internal/model"
)

// Minimal terminal exam client: downloads the package, runs the countdown
// locally and submits cached answers when done. Answers persist in a local
// sqlite cache, so a crash or a dead network mid-exam loses nothing.
func main() {
	var (
		server    = flag.String("server", "http://localhost:8080", "Backend base URL")
		jwt       = flag.String("jwt", "", "Student JWT (from login)")
		sessionID = flag.String("session", "", "Exam session ID")
		cachePath = flag.String("cache", "exam-cache.db", "Local answer cache path")
	)
	flag.Parse()

	if *jwt == "" || *sessionID == "" {
		fmt.Println("Usage: exam-client -jwt <token> -session <session-id> [-server URL] [-cache path]")
		os.Exit(1)
	}

	sid, err := uuid.Parse(*sessionID)
	if err != nil {
		fmt.Printf("Invalid session ID: %v\n", err)
		os.Exit(1)
	}

	store, err := client.OpenStore(*cachePath)
	if err != nil {
		fmt.Printf("Failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	c := client.New(*server, *jwt, store)
	ctx := context.Background()

	pkg, err := c.Download(ctx, sid)
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== %s ===\n", pkg.Exam.Title)
	if pkg.Exam.Description != "" {
		fmt.Println(pkg.Exam.Description)
	}
	fmt.Printf("%d questions, %d marks, %d minutes\n\n",
		len(pkg.Questions), pkg.Exam.TotalMarks, pkg.Exam.DurationMinutes)

	if _, err := c.Start(ctx, sid); err != nil {
		fmt.Printf("Start failed: %v\n", err)
		os.Exit(1)
	}

	var expired atomic.Bool
	timer := client.NewExamTimer(
		time.Duration(pkg.Exam.DurationMinutes)*time.Minute,
		func(reason string) {
			expired.Store(true)
			fmt.Printf("\nTime is up (%s). Press Enter to submit.\n", reason)
		},
	)
	defer timer.Stop()

	reader := bufio.NewReader(os.Stdin)
	answered := runQuestionLoop(ctx, c, reader, sid, pkg, timer, &expired)

	auto := expired.Load()
	if !auto {
		timer.Stop()
	}

	fmt.Printf("\nSubmitting %d answers...\n", answered)
	result := submitWithRetry(ctx, c, sid, auto)
	fmt.Printf("Submitted. Score: %d (auto_submitted=%t)\n", result, auto)
}

// runQuestionLoop walks the questions in order, saving each answer to the
// cache as it is entered. Returns the number of answered questions.
func runQuestionLoop(
	ctx context.Context,
	c *client.Client,
	reader *bufio.Reader,
	sid uuid.UUID,
	pkg *model.ExamPackage,
	timer *client.ExamTimer,
	expired *atomic.Bool,
) int {
	answered := 0
	for i, q := range pkg.Questions {
		if expired.Load() {
			return answered
		}

		fmt.Printf("[%d/%d] (%d marks, %s left) %s\n",
			i+1, len(pkg.Questions), q.Marks, timer.Remaining().Round(time.Second), q.QuestionText)
		for j, opt := range q.Options {
			fmt.Printf("  %d) %s\n", j+1, opt)
		}
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return answered
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			continue
		}
		// Numeric input selects an option for MCQ questions.
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Options) {
			answer = q.Options[n-1]
		}

		if err := c.SaveAnswer(ctx, sid, q.ID, answer); err != nil {
			fmt.Printf("Failed to save answer locally: %v\n", err)
			continue
		}
		answered++
	}
	return answered
}

func submitWithRetry(ctx context.Context, c *client.Client, sid uuid.UUID, auto bool) int {
	for {
		result, err := c.Submit(ctx, sid, auto)
		if err == nil {
			return result.Score
		}
		// Only network failures are worth retrying. A server rejection
		// (stale token, already submitted) will never succeed on replay.
		if !errors.Is(err, client.ErrUnreachable) {
			fmt.Printf("Submit rejected by server: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Server unreachable. Answers are cached; retrying in 10s...\n")
		time.Sleep(10 * time.Second)
	}
}
