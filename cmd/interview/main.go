// Command interview runs one interview call from the terminal: it connects
// a call-session controller to the hosted voice gateway and renders the
// call the way the web client does, with the status, the speaking
// indicator, and the latest utterance.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	callsession "github.com/voxprep/interview-core/core"
	"github.com/voxprep/interview-core/core/feedback"
	"github.com/voxprep/interview-core/core/interviews"
	"github.com/voxprep/interview-core/core/store/postgres"
	"github.com/voxprep/interview-core/core/voice/gateway"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	mode := flag.String("mode", "evaluate", "call mode: generate or evaluate")
	interviewID := flag.String("interview", "", "interview id (evaluate mode)")
	userID := flag.String("user", "", "user id")
	userName := flag.String("name", "", "user display name")
	questionsFlag := flag.String("questions", "", "semicolon-separated questions; overrides the stored interview")
	flag.Parse()

	request := callsession.StartRequest{
		Mode:        callsession.Mode(*mode),
		UserID:      *userID,
		UserName:    *userName,
		InterviewID: *interviewID,
	}
	if request.Mode != callsession.ModeGenerate && request.Mode != callsession.ModeEvaluate {
		return fmt.Errorf("unknown mode %q", *mode)
	}

	title := "Interview Preparation"
	if *questionsFlag != "" {
		for _, question := range strings.Split(*questionsFlag, ";") {
			if question = strings.TrimSpace(question); question != "" {
				request.Questions = append(request.Questions, question)
			}
		}
	} else if request.Mode == callsession.ModeEvaluate {
		interview, err := loadInterview(*interviewID)
		if err != nil {
			return err
		}
		request.Questions = interview.Questions
		title = fmt.Sprintf("%s Interview (%s)", interview.Role, interview.NormalizedType())
	}

	var opts []callsession.ControllerOption
	if baseURL := os.Getenv("FEEDBACK_API_URL"); baseURL != "" {
		opts = append(opts, callsession.WithDispatcher(
			feedback.NewClient(baseURL, feedback.WithAPIKey(os.Getenv("FEEDBACK_API_KEY")))))
	}
	if workflowID := os.Getenv("GENERATION_WORKFLOW_ID"); workflowID != "" {
		opts = append(opts, callsession.WithGenerationWorkflow(workflowID))
	}
	controller := callsession.NewController(gateway.NewClient(), opts...)

	app := &app{controller: controller, request: request}
	program := tea.NewProgram(newModel(app, title))
	app.send = program.Send

	_, err := program.Run()
	return err
}

// loadInterview resolves the prepared interview from the document store.
func loadInterview(interviewID string) (interviews.Interview, error) {
	if interviewID == "" {
		return interviews.Interview{}, fmt.Errorf("evaluate mode needs -interview or -questions")
	}
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return interviews.Interview{}, fmt.Errorf("POSTGRES_DSN not set; pass -questions to skip the store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return interviews.Interview{}, fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	interview, err := store.Interviews.Get(ctx, interviewID)
	if err != nil {
		return interviews.Interview{}, fmt.Errorf("loading interview %s: %w", interviewID, err)
	}
	return interview, nil
}
